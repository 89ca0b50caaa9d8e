package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/store/schema"
)

// PostgreSQL error codes the store reacts to
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"

	identifierConstraint = "uq_witnesses_identifier"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Every allocator holds the counter row lock for the length of its transaction,
// so MaxOpenConns also bounds how many accepts can queue on that lock.
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// classifyAcceptError maps driver errors raised inside the accept transaction to domain errors
func classifyAcceptError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == identifierConstraint {
			return domain.ErrDuplicateWitness
		}
		return fmt.Errorf("unexpected unique violation on %s: %w", pgErr.ConstraintName, err)
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return fmt.Errorf("%w: %s", domain.ErrAllocationConflict, pgErr.Code)
	}
	return err
}

// TryAccept reserves the next number and inserts the witness in one transaction.
// The UPDATE ... RETURNING on the counter row takes a row lock, so concurrent
// allocators queue behind each other and numbers follow commit order. Any failure
// rolls the counter back with the rest of the transaction.
func (s *pgStore) TryAccept(ctx context.Context, input AcceptInput) (*schema.Witness, error) {
	var witness schema.Witness

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next []uint64
		if err := tx.Raw(
			`UPDATE witness_sequence SET value = value + 1, updated_at = now() WHERE name = ? RETURNING value`,
			schema.WitnessSequenceName,
		).Scan(&next).Error; err != nil {
			return fmt.Errorf("failed to reserve sequence number: %w", err)
		}
		if len(next) == 0 {
			return fmt.Errorf("sequence row %q is missing", schema.WitnessSequenceName)
		}
		seq := next[0]

		witness = schema.Witness{
			Identifier:     input.Identifier,
			Contact:        input.Contact,
			ProofHash:      input.ProofHash,
			BlockRef:       input.BlockRef,
			SignedAt:       input.SignedAt,
			SequenceNumber: seq,
			Status:         domain.WitnessStatusActive,
		}
		witness.SetPreferences(input.Preferences)

		// The unique index on identifier is the duplicate authority, so this runs
		// before the capacity check: a duplicate on a full registry is still a duplicate
		if err := tx.Create(&witness).Error; err != nil {
			return fmt.Errorf("failed to insert witness: %w", err)
		}

		if input.Capacity > 0 && seq > uint64(input.Capacity) { //nolint:gosec,G115
			return domain.ErrCapacityReached
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrCapacityReached) {
			return nil, err
		}
		return nil, classifyAcceptError(err)
	}

	return &witness, nil
}

// GetWitness retrieves a witness by normalized identifier
func (s *pgStore) GetWitness(ctx context.Context, identifier string) (*schema.Witness, error) {
	var witness schema.Witness
	err := s.db.WithContext(ctx).Where("identifier = ?", identifier).First(&witness).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get witness: %w", err)
	}
	return &witness, nil
}

// ListActiveWitnesses returns active witnesses ordered by sequence number
func (s *pgStore) ListActiveWitnesses(ctx context.Context, limit, offset int) ([]schema.Witness, error) {
	query := s.db.WithContext(ctx).
		Where("status = ?", domain.WitnessStatusActive).
		Order("sequence_number ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var witnesses []schema.Witness
	err := query.Find(&witnesses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list witnesses: %w", err)
	}
	return witnesses, nil
}

// CountActiveWitnesses returns the active population
func (s *pgStore) CountActiveWitnesses(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.Witness{}).
		Where("status = ?", domain.WitnessStatusActive).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count witnesses: %w", err)
	}
	return count, nil
}

// CurrentSequence returns the last allocated sequence number
func (s *pgStore) CurrentSequence(ctx context.Context) (uint64, error) {
	var seq schema.WitnessSequence
	err := s.db.WithContext(ctx).Where("name = ?", schema.WitnessSequenceName).First(&seq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read sequence: %w", err)
	}
	return seq.Value, nil
}

// RevokeWitness marks a witness revoked; its sequence number is kept
func (s *pgStore) RevokeWitness(ctx context.Context, input RevokeInput) (*schema.Witness, error) {
	var witness schema.Witness

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("identifier = ?", input.Identifier).
			First(&witness).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrWitnessNotFound
			}
			return fmt.Errorf("failed to lock witness: %w", err)
		}

		if !witness.IsActive() {
			return domain.ErrWitnessAlreadyRevoked
		}

		reason := input.Reason
		witness.Status = domain.WitnessStatusRevoked
		witness.RevokedAt = &input.RevokedAt
		witness.RevocationReason = &reason
		witness.UpdatedAt = input.RevokedAt

		return tx.Model(&schema.Witness{}).
			Where("id = ?", witness.ID).
			Updates(map[string]any{
				"status":            witness.Status,
				"revoked_at":        witness.RevokedAt,
				"revocation_reason": witness.RevocationReason,
				"updated_at":        witness.UpdatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return &witness, nil
}

// ListRecipients returns active witnesses with a contact that opted into the kind
func (s *pgStore) ListRecipients(ctx context.Context, kind domain.NotificationKind) ([]domain.Recipient, error) {
	query := s.db.WithContext(ctx).
		Model(&schema.Witness{}).
		Select("identifier", "contact").
		Where("status = ?", domain.WitnessStatusActive).
		Where("contact IS NOT NULL AND contact <> ''")

	switch kind {
	case domain.NotificationKindWelcome:
		query = query.Where("pref_welcome")
	case domain.NotificationKindMilestone:
		query = query.Where("pref_milestones")
	case domain.NotificationKindEmergency:
		query = query.Where("pref_emergency")
	case domain.NotificationKindCountdown:
		query = query.Where("pref_countdown")
	}

	var rows []schema.Witness
	if err := query.Order("sequence_number ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	recipients := make([]domain.Recipient, 0, len(rows))
	for _, row := range rows {
		recipients = append(recipients, domain.Recipient{
			Identifier: row.Identifier,
			Contact:    *row.Contact,
		})
	}
	return recipients, nil
}

// RecordMilestones inserts each threshold with ON CONFLICT DO NOTHING and keeps only
// the rows this call actually inserted, so concurrent callers never both win a threshold
func (s *pgStore) RecordMilestones(ctx context.Context, input RecordMilestonesInput) ([]schema.Milestone, error) {
	var fired []schema.Milestone

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fired = fired[:0]
		for _, threshold := range input.Thresholds {
			m := schema.Milestone{
				Threshold:  threshold,
				Population: input.Population,
				FiredAt:    input.FiredAt,
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
			if result.Error != nil {
				return fmt.Errorf("failed to record milestone %d: %w", threshold, result.Error)
			}
			if result.RowsAffected == 1 {
				fired = append(fired, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fired, nil
}

// ListMilestones returns all fired milestones ordered by threshold
func (s *pgStore) ListMilestones(ctx context.Context) ([]schema.Milestone, error) {
	var milestones []schema.Milestone
	if err := s.db.WithContext(ctx).Order("threshold ASC").Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}

// GetMilestone returns a recorded milestone; nil when the threshold has not fired
func (s *pgStore) GetMilestone(ctx context.Context, threshold int) (*schema.Milestone, error) {
	var m schema.Milestone
	err := s.db.WithContext(ctx).Where("threshold = ?", threshold).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get milestone %d: %w", threshold, err)
	}
	return &m, nil
}

// ClaimNotification tries to own an idempotency key. A single upsert decides the
// race: it inserts a fresh pending claim, or takes over a failed or stale pending one.
func (s *pgStore) ClaimNotification(ctx context.Context, input ClaimInput) (domain.ClaimOutcome, error) {
	var claimed []string
	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO notification_claims (idempotency_key, status, attempts, claimed_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (idempotency_key) DO UPDATE
		SET status = EXCLUDED.status,
		    attempts = notification_claims.attempts + 1,
		    claimed_at = EXCLUDED.claimed_at,
		    updated_at = EXCLUDED.updated_at
		WHERE notification_claims.status = ?
		   OR (notification_claims.status = ? AND notification_claims.claimed_at < ?)
		RETURNING idempotency_key`,
		input.IdempotencyKey, domain.ClaimStatusPending, input.Now, input.Now,
		domain.ClaimStatusFailed,
		domain.ClaimStatusPending, input.StaleBefore,
	).Scan(&claimed).Error
	if err != nil {
		return "", fmt.Errorf("failed to claim notification: %w", err)
	}
	if len(claimed) == 1 {
		return domain.ClaimOutcomeClaimed, nil
	}

	var existing schema.NotificationClaim
	if err := s.db.WithContext(ctx).
		Where("idempotency_key = ?", input.IdempotencyKey).
		First(&existing).Error; err != nil {
		return "", fmt.Errorf("failed to read notification claim: %w", err)
	}

	if existing.Status == domain.ClaimStatusSent {
		return domain.ClaimOutcomeAlreadySent, nil
	}
	return domain.ClaimOutcomeInFlight, nil
}

// RecordNotification appends to the notification log and completes the claim, if any
func (s *pgStore) RecordNotification(ctx context.Context, input CreateNotificationInput) (*schema.Notification, error) {
	notification := schema.Notification{
		EventID:         input.EventID,
		Kind:            input.Kind,
		TargetWitnessID: input.TargetWitnessID,
		IdempotencyKey:  input.IdempotencyKey,
		Payload:         datatypes.JSON(input.Payload),
		DeliveryResult:  input.DeliveryResult,
		ErrorMessage:    input.ErrorMessage,
		RecipientCount:  input.RecipientCount,
		AttemptedAt:     input.AttemptedAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&notification).Error; err != nil {
			return fmt.Errorf("failed to append notification: %w", err)
		}

		if input.IdempotencyKey == nil {
			return nil
		}

		status := domain.ClaimStatusFailed
		if input.DeliveryResult == domain.DeliveryResultSent {
			status = domain.ClaimStatusSent
		}

		result := tx.Model(&schema.NotificationClaim{}).
			Where("idempotency_key = ?", *input.IdempotencyKey).
			Updates(map[string]any{
				"status":     status,
				"updated_at": input.AttemptedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete notification claim: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("notification claim %q not found", *input.IdempotencyKey)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &notification, nil
}

// ListWelcomeBacklog anti-joins the witnesses against their welcome claims
func (s *pgStore) ListWelcomeBacklog(ctx context.Context, input WelcomeBacklogInput) ([]schema.Witness, error) {
	query := s.db.WithContext(ctx).
		Model(&schema.Witness{}).
		Select("witnesses.*").
		Joins("LEFT JOIN notification_claims c ON c.idempotency_key = 'welcome:' || witnesses.identifier").
		Where("witnesses.status = ?", domain.WitnessStatusActive).
		Where("witnesses.contact IS NOT NULL AND witnesses.contact <> ''").
		Where("witnesses.pref_welcome").
		Where("witnesses.created_at < ?", input.AcceptedBefore).
		Where("(c.idempotency_key IS NULL OR c.status <> ?)", domain.ClaimStatusSent)
	if input.MaxAttempts > 0 {
		query = query.Where("(c.idempotency_key IS NULL OR c.attempts < ?)", input.MaxAttempts)
	}
	if input.Limit > 0 {
		query = query.Limit(input.Limit)
	}

	var witnesses []schema.Witness
	if err := query.Order("witnesses.sequence_number ASC").Find(&witnesses).Error; err != nil {
		return nil, fmt.Errorf("failed to list welcome backlog: %w", err)
	}
	return witnesses, nil
}

// ListNotifications returns log entries, newest first
func (s *pgStore) ListNotifications(ctx context.Context, filter NotificationFilter) ([]schema.Notification, error) {
	query := s.db.WithContext(ctx).Model(&schema.Notification{})
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.IdempotencyKey != nil {
		query = query.Where("idempotency_key = ?", *filter.IdempotencyKey)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var notifications []schema.Notification
	if err := query.Order("id DESC").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// Ping checks the database is reachable
func (s *pgStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
