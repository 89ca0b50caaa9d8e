package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/covenant-witness/internal/domain"
)

// Notification represents the notifications table - append-only log of delivery attempts
type Notification struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EventID is a unique identifier for this attempt (ULID for time-sortable uniqueness)
	EventID string `gorm:"column:event_id;not null;type:varchar(26);uniqueIndex"`
	// Kind is welcome, milestone, emergency, countdown or batch_test
	Kind domain.NotificationKind `gorm:"column:kind;not null;type:varchar(20)"`
	// TargetWitnessID is set for per-witness notifications; broadcasts leave it nil
	TargetWitnessID *string `gorm:"column:target_witness_id;type:varchar(42)"`
	// IdempotencyKey links the attempt to its claim, when the kind has one
	IdempotencyKey *string `gorm:"column:idempotency_key;type:varchar(128)"`
	// Payload is the kind-specific data as JSON
	Payload datatypes.JSON `gorm:"column:payload;not null;type:jsonb"`
	// DeliveryResult is sent or failed
	DeliveryResult domain.DeliveryResult `gorm:"column:delivery_result;not null;type:varchar(10)"`
	// ErrorMessage contains error details if delivery failed
	ErrorMessage *string `gorm:"column:error_message;type:text"`
	// RecipientCount is how many recipients the attempt addressed
	RecipientCount int `gorm:"column:recipient_count;not null;default:0"`
	// AttemptedAt is when the delivery was attempted
	AttemptedAt time.Time `gorm:"column:attempted_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
