package domain

import (
	"encoding/json"
	"time"
)

// NotificationKind is the discriminator of a notification
type NotificationKind string

const (
	NotificationKindWelcome   NotificationKind = "welcome"
	NotificationKindMilestone NotificationKind = "milestone"
	NotificationKindEmergency NotificationKind = "emergency"
	NotificationKindCountdown NotificationKind = "countdown"
	NotificationKindBatchTest NotificationKind = "batch_test"
)

// IsValidNotificationKind checks if a kind is known
func IsValidNotificationKind(kind NotificationKind) bool {
	switch kind {
	case NotificationKindWelcome,
		NotificationKindMilestone,
		NotificationKindEmergency,
		NotificationKindCountdown,
		NotificationKindBatchTest:
		return true
	}
	return false
}

// DeliveryResult is the outcome recorded on the notification log
type DeliveryResult string

const (
	DeliveryResultSent   DeliveryResult = "sent"
	DeliveryResultFailed DeliveryResult = "failed"
)

// ClaimStatus is the state of an idempotency claim
type ClaimStatus string

const (
	ClaimStatusPending ClaimStatus = "pending"
	ClaimStatusSent    ClaimStatus = "sent"
	ClaimStatusFailed  ClaimStatus = "failed"
)

// ClaimOutcome is what a caller gets back when it asks to own an idempotency key
type ClaimOutcome string

const (
	// ClaimOutcomeClaimed means the caller owns the key and must complete it
	ClaimOutcomeClaimed ClaimOutcome = "claimed"
	// ClaimOutcomeAlreadySent means a previous delivery for the key succeeded
	ClaimOutcomeAlreadySent ClaimOutcome = "already_sent"
	// ClaimOutcomeInFlight means another worker holds a fresh pending claim
	ClaimOutcomeInFlight ClaimOutcome = "in_flight"
)

// Urgency is the level carried by an emergency broadcast
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// IsValidUrgency checks if an urgency level is known
func IsValidUrgency(u Urgency) bool {
	return u == UrgencyLow ||
		u == UrgencyMedium ||
		u == UrgencyHigh ||
		u == UrgencyCritical
}

// NotificationMessage is what a transport delivers: one event addressed to one or more recipients
type NotificationMessage struct {
	EventID    string           `json:"event_id"`
	Kind       NotificationKind `json:"kind"`
	Recipients []Recipient      `json:"recipients"`
	Payload    json.RawMessage  `json:"payload"`
	Timestamp  time.Time        `json:"timestamp"`
}
