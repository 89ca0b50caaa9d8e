package schema

import (
	"time"

	"github.com/feral-file/covenant-witness/internal/domain"
)

// Witness represents the witnesses table - one row per accepted registration, never deleted
type Witness struct {
	// ID is an internal auto-incrementing key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Identifier is the normalized (lower-case) 0x address; unique across all statuses
	Identifier string `gorm:"column:identifier;not null;type:varchar(42);uniqueIndex:uq_witnesses_identifier"`
	// Contact is the delivery address for notifications (immutable once accepted)
	Contact *string `gorm:"column:contact;type:text"`
	// ProofHash is the opaque proof supplied by the registrant (e.g. a transaction hash)
	ProofHash string `gorm:"column:proof_hash;not null;type:text"`
	// BlockRef is an optional numeric reference for the proof (e.g. block number)
	BlockRef *uint64 `gorm:"column:block_ref"`
	// SignedAt is the caller-supplied signing timestamp
	SignedAt time.Time `gorm:"column:signed_at;not null;type:timestamptz"`
	// SequenceNumber is the 1-based acceptance rank
	SequenceNumber uint64 `gorm:"column:sequence_number;not null;uniqueIndex:uq_witnesses_sequence_number"`
	// Status is active or revoked
	Status domain.WitnessStatus `gorm:"column:status;not null;type:varchar(16)"`
	// Notification preference flags
	PrefWelcome    bool `gorm:"column:pref_welcome;not null"`
	PrefMilestones bool `gorm:"column:pref_milestones;not null"`
	PrefEmergency  bool `gorm:"column:pref_emergency;not null"`
	PrefCountdown  bool `gorm:"column:pref_countdown;not null"`
	// RevokedAt is set when an administrator revokes the witness
	RevokedAt *time.Time `gorm:"column:revoked_at;type:timestamptz"`
	// RevocationReason is the free-form reason supplied with the revocation
	RevocationReason *string `gorm:"column:revocation_reason;type:text"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Witness model
func (Witness) TableName() string {
	return "witnesses"
}

// Preferences returns the notification preferences stored on the row
func (w *Witness) Preferences() domain.NotificationPreferences {
	return domain.NotificationPreferences{
		Welcome:    w.PrefWelcome,
		Milestones: w.PrefMilestones,
		Emergency:  w.PrefEmergency,
		Countdown:  w.PrefCountdown,
	}
}

// SetPreferences copies notification preferences onto the row
func (w *Witness) SetPreferences(p domain.NotificationPreferences) {
	w.PrefWelcome = p.Welcome
	w.PrefMilestones = p.Milestones
	w.PrefEmergency = p.Emergency
	w.PrefCountdown = p.Countdown
}

// IsActive reports whether the witness counts toward the population
func (w *Witness) IsActive() bool {
	return w.Status == domain.WitnessStatusActive
}
