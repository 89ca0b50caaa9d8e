package schema

import (
	"time"

	"github.com/feral-file/covenant-witness/internal/domain"
)

// NotificationClaim represents the notification_claims table - the idempotency ledger.
// A key moves pending -> sent | failed; failed and stale pending claims can be re-claimed.
type NotificationClaim struct {
	IdempotencyKey string             `gorm:"column:idempotency_key;primaryKey;type:varchar(128)"`
	Status         domain.ClaimStatus `gorm:"column:status;not null;type:varchar(10)"`
	Attempts       int                `gorm:"column:attempts;not null;default:1"`
	ClaimedAt      time.Time          `gorm:"column:claimed_at;not null;type:timestamptz"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;not null;type:timestamptz"`
}

// TableName specifies the table name for the NotificationClaim model
func (NotificationClaim) TableName() string {
	return "notification_claims"
}
