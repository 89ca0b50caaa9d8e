package domain

// WitnessStatus is the lifecycle state of a witness
type WitnessStatus string

const (
	WitnessStatusActive  WitnessStatus = "active"
	WitnessStatusRevoked WitnessStatus = "revoked"
)

// NotificationPreferences are the opt-in flags consulted by the dispatcher
type NotificationPreferences struct {
	Welcome    bool `json:"welcome"`
	Milestones bool `json:"milestones"`
	Emergency  bool `json:"emergency"`
	Countdown  bool `json:"countdown"`
}

// DefaultNotificationPreferences opts into everything
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Welcome:    true,
		Milestones: true,
		Emergency:  true,
		Countdown:  true,
	}
}

// Allows reports whether the witness wants notifications of the given kind.
// batch_test targets explicit recipients and is never filtered.
func (p NotificationPreferences) Allows(kind NotificationKind) bool {
	switch kind {
	case NotificationKindWelcome:
		return p.Welcome
	case NotificationKindMilestone:
		return p.Milestones
	case NotificationKindEmergency:
		return p.Emergency
	case NotificationKindCountdown:
		return p.Countdown
	default:
		return true
	}
}

// Recipient is a delivery target resolved from the witness table
type Recipient struct {
	Identifier string `json:"identifier,omitempty"`
	Contact    string `json:"contact"`
}
