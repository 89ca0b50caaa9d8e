package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/store/schema"
)

// AcceptInput represents the data needed to accept a witness
type AcceptInput struct {
	Identifier  string
	Contact     *string
	ProofHash   string
	BlockRef    *uint64
	SignedAt    time.Time
	Preferences domain.NotificationPreferences
	// Capacity caps the sequence; 0 means unlimited
	Capacity int
}

// RevokeInput represents the data needed to revoke a witness
type RevokeInput struct {
	Identifier string
	Reason     string
	RevokedAt  time.Time
}

// RecordMilestonesInput represents a set of thresholds to record as fired
type RecordMilestonesInput struct {
	Thresholds []int
	Population uint64
	FiredAt    time.Time
}

// ClaimInput represents a request to own an idempotency key
type ClaimInput struct {
	IdempotencyKey string
	Now            time.Time
	// StaleBefore lets a pending claim older than this be taken over
	StaleBefore time.Time
}

// CreateNotificationInput represents one append to the notification log.
// When IdempotencyKey is set the matching claim is completed in the same transaction.
type CreateNotificationInput struct {
	EventID         string
	Kind            domain.NotificationKind
	TargetWitnessID *string
	IdempotencyKey  *string
	Payload         json.RawMessage
	DeliveryResult  domain.DeliveryResult
	ErrorMessage    *string
	RecipientCount  int
	AttemptedAt     time.Time
}

// WelcomeBacklogInput bounds the search for witnesses whose welcome has not been sent
type WelcomeBacklogInput struct {
	// AcceptedBefore leaves recent witnesses to the API's own welcome
	AcceptedBefore time.Time
	// MaxAttempts drops keys that have been claimed this many times; 0 means no cap
	MaxAttempts int
	Limit       int
}

// NotificationFilter narrows ListNotifications
type NotificationFilter struct {
	Kind           *domain.NotificationKind
	IdempotencyKey *string
	Limit          int
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// TryAccept atomically reserves the next sequence number and persists the witness.
	// It returns domain.ErrDuplicateWitness, domain.ErrCapacityReached or
	// domain.ErrAllocationConflict (retryable). No number is consumed on failure.
	TryAccept(ctx context.Context, input AcceptInput) (*schema.Witness, error)
	// GetWitness retrieves a witness by normalized identifier; nil when absent
	GetWitness(ctx context.Context, identifier string) (*schema.Witness, error)
	// ListActiveWitnesses returns active witnesses ordered by sequence number
	ListActiveWitnesses(ctx context.Context, limit, offset int) ([]schema.Witness, error)
	// CountActiveWitnesses returns the active population
	CountActiveWitnesses(ctx context.Context) (int64, error)
	// CurrentSequence returns the last allocated sequence number
	CurrentSequence(ctx context.Context) (uint64, error)
	// RevokeWitness marks a witness revoked; its sequence number is kept
	RevokeWitness(ctx context.Context, input RevokeInput) (*schema.Witness, error)
	// ListRecipients returns active witnesses with a contact that opted into the kind
	ListRecipients(ctx context.Context, kind domain.NotificationKind) ([]domain.Recipient, error)

	// RecordMilestones inserts the thresholds that are not yet recorded and returns only those
	RecordMilestones(ctx context.Context, input RecordMilestonesInput) ([]schema.Milestone, error)
	// ListMilestones returns all fired milestones ordered by threshold
	ListMilestones(ctx context.Context) ([]schema.Milestone, error)
	// GetMilestone returns a recorded milestone; nil when the threshold has not fired
	GetMilestone(ctx context.Context, threshold int) (*schema.Milestone, error)

	// ClaimNotification tries to own an idempotency key
	ClaimNotification(ctx context.Context, input ClaimInput) (domain.ClaimOutcome, error)
	// RecordNotification appends to the notification log and completes the claim, if any
	RecordNotification(ctx context.Context, input CreateNotificationInput) (*schema.Notification, error)
	// ListWelcomeBacklog returns active witnesses that opted into welcome and have a contact
	// but no sent welcome:<identifier> claim, ordered by sequence number
	ListWelcomeBacklog(ctx context.Context, input WelcomeBacklogInput) ([]schema.Witness, error)
	// ListNotifications returns log entries, newest first
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]schema.Notification, error)

	// Ping checks the store is reachable
	Ping(ctx context.Context) error
}
