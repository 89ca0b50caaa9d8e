package dto

import (
	"time"

	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/readiness"
)

// WitnessSummary is the public view of a witness; it never carries the contact
type WitnessSummary struct {
	Identifier     string               `json:"identifier"`
	SequenceNumber uint64               `json:"sequenceNumber"`
	Status         domain.WitnessStatus `json:"status"`
	ProofHash      string               `json:"proofHash"`
	BlockRef       *uint64              `json:"blockRef,omitempty"`
	SignedAt       time.Time            `json:"signedAt"`
	AcceptedAt     time.Time            `json:"acceptedAt"`
	RevokedAt      *time.Time           `json:"revokedAt,omitempty"`
}

// Witness is the registrant's own view, returned by POST /witnesses
type Witness struct {
	WitnessSummary
	Contact                 *string                        `json:"contact,omitempty"`
	NotificationPreferences domain.NotificationPreferences `json:"notificationPreferences"`
}

// RegisterWitnessResponse represents the response of POST /witnesses
type RegisterWitnessResponse struct {
	Witness Witness `json:"witness"`
}

// WitnessResponse represents the response of GET /witnesses/:identifier
type WitnessResponse struct {
	Witness WitnessSummary `json:"witness"`
}

// StatsResponse is the readiness summary
type StatsResponse struct {
	TotalWitnesses  int64          `json:"totalWitnesses"`
	TargetWitnesses int64          `json:"targetWitnesses"`
	PercentComplete int            `json:"percentComplete"`
	DaysRemaining   int            `json:"daysRemaining"`
	Tier            readiness.Tier `json:"tier"`
	Urgent          bool           `json:"urgent"`
}

// ListWitnessesResponse represents the response of GET /witnesses
type ListWitnessesResponse struct {
	Witnesses []WitnessSummary `json:"witnesses"`
	Stats     *StatsResponse   `json:"stats,omitempty"`
}

// NotificationResponse represents the response of POST /notifications
type NotificationResponse struct {
	Success        bool                    `json:"success"`
	Error          string                  `json:"error,omitempty"`
	Kind           domain.NotificationKind `json:"kind,omitempty"`
	Status         notification.Status     `json:"status,omitempty"`
	EventID        string                  `json:"eventId,omitempty"`
	IdempotencyKey string                  `json:"idempotencyKey,omitempty"`
	Recipients     int                     `json:"recipients"`
	Total          int                     `json:"total,omitempty"`
	Sent           int                     `json:"sent,omitempty"`
	Failed         int                     `json:"failed,omitempty"`
	Reason         string                  `json:"reason,omitempty"`
}

// RevokeWitnessResponse represents the response of POST /admin/witnesses/:identifier/revoke
type RevokeWitnessResponse struct {
	Witness          WitnessSummary `json:"witness"`
	RevocationReason string         `json:"revocationReason"`
}

// HealthResponse represents the response of GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Store   string `json:"store"`
}
