package dto

import (
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/readiness"
	"github.com/feral-file/covenant-witness/internal/store/schema"
)

// MapWitnessSummary converts a witness row to its public view
func MapWitnessSummary(w *schema.Witness) WitnessSummary {
	return WitnessSummary{
		Identifier:     w.Identifier,
		SequenceNumber: w.SequenceNumber,
		Status:         w.Status,
		ProofHash:      w.ProofHash,
		BlockRef:       w.BlockRef,
		SignedAt:       w.SignedAt.UTC(),
		AcceptedAt:     w.CreatedAt.UTC(),
		RevokedAt:      w.RevokedAt,
	}
}

// MapWitness converts a witness row to the registrant's view
func MapWitness(w *schema.Witness) Witness {
	return Witness{
		WitnessSummary:          MapWitnessSummary(w),
		Contact:                 w.Contact,
		NotificationPreferences: w.Preferences(),
	}
}

// MapWitnessSummaries converts a page of witness rows
func MapWitnessSummaries(witnesses []schema.Witness) []WitnessSummary {
	out := make([]WitnessSummary, 0, len(witnesses))
	for i := range witnesses {
		out = append(out, MapWitnessSummary(&witnesses[i]))
	}
	return out
}

// MapStats converts readiness to the stats body
func MapStats(r *readiness.Readiness) *StatsResponse {
	if r == nil {
		return nil
	}
	return &StatsResponse{
		TotalWitnesses:  r.ActiveCount,
		TargetWitnesses: r.TargetCount,
		PercentComplete: r.PercentComplete,
		DaysRemaining:   r.DaysRemaining,
		Tier:            r.Tier,
		Urgent:          r.Urgent,
	}
}

// MapNotificationResult converts a dispatch result.
// Only a failed delivery reports success false; skipped and deduplicated dispatches succeed.
func MapNotificationResult(r *notification.Result) NotificationResponse {
	return NotificationResponse{
		Success:        r.Status != notification.StatusFailed,
		Error:          r.Error,
		Kind:           r.Kind,
		Status:         r.Status,
		EventID:        r.EventID,
		IdempotencyKey: r.IdempotencyKey,
		Recipients:     r.Recipients,
		Total:          r.Total,
		Sent:           r.Sent,
		Failed:         r.Failed,
		Reason:         r.Reason,
	}
}
