package notification

import "github.com/feral-file/covenant-witness/internal/domain"

// Status is the outcome of one dispatch
type Status string

const (
	StatusSent        Status = "sent"
	StatusFailed      Status = "failed"
	StatusAlreadySent Status = "already_sent"
	StatusInFlight    Status = "in_flight"
	StatusSkipped     Status = "skipped"
)

// Result describes what a dispatch did
type Result struct {
	Kind           domain.NotificationKind `json:"kind"`
	Status         Status                  `json:"status"`
	EventID        string                  `json:"eventId,omitempty"`
	IdempotencyKey string                  `json:"idempotencyKey,omitempty"`
	Recipients     int                     `json:"recipients"`
	// Total, Sent and Failed are per-recipient counts of a batch test
	Total  int `json:"total,omitempty"`
	Sent   int `json:"sent,omitempty"`
	Failed int `json:"failed,omitempty"`
	// Reason explains a skipped dispatch
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
	// Err holds the *domain.NotificationDeliveryError of a failed delivery
	Err error `json:"-"`
}

// Delivered reports whether the notification reached the transport, now or earlier
func (r *Result) Delivered() bool {
	return r.Status == StatusSent || r.Status == StatusAlreadySent
}
