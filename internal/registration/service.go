package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/metrics"
	"github.com/feral-file/covenant-witness/internal/milestone"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/readiness"
	"github.com/feral-file/covenant-witness/internal/store"
	"github.com/feral-file/covenant-witness/internal/store/schema"
	"github.com/feral-file/covenant-witness/internal/types"
)

const defaultRevocationReason = "revoked by administrator"

// Config holds registry settings
type Config struct {
	Target int
	// Capacity caps the number of accepted witnesses; 0 means unlimited
	Capacity int
	Deadline time.Time

	// MaxRetries bounds how often a conflicting accept transaction is retried
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Service is the registration entry point used by the API
//
//go:generate mockgen -source=service.go -destination=../mocks/registration.go -package=mocks -mock_names=Service=MockRegistrationService
type Service interface {
	// Register validates, allocates a sequence number and schedules notifications.
	// The witness is returned before any notification is delivered.
	Register(ctx context.Context, input RegisterInput) (*schema.Witness, error)
	// Get returns a witness by identifier
	Get(ctx context.Context, identifier string) (*schema.Witness, error)
	// List returns active witnesses ordered by sequence number
	List(ctx context.Context, limit, offset int) ([]schema.Witness, error)
	// Stats computes readiness from the active population at now
	Stats(ctx context.Context, now time.Time) (*readiness.Readiness, error)
	// Revoke marks a witness revoked; the sequence number is never reused
	Revoke(ctx context.Context, identifier, reason string) (*schema.Witness, error)
}

type service struct {
	config     Config
	store      store.Store
	detector   milestone.Detector
	dispatcher notification.Dispatcher
	clock      adapter.Clock
	metrics    *metrics.Metrics
}

// NewService creates a new registration service
func NewService(
	cfg Config,
	st store.Store,
	detector milestone.Detector,
	dispatcher notification.Dispatcher,
	clock adapter.Clock,
	m *metrics.Metrics,
) Service {
	return &service{
		config:     cfg,
		store:      st,
		detector:   detector,
		dispatcher: dispatcher,
		clock:      clock,
		metrics:    m,
	}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*schema.Witness, error) {
	defer s.metrics.ObserveRegister(time.Now())

	validated, err := Validate(input)
	if err != nil {
		s.metrics.IncrementRegistration(metrics.OutcomeInvalid)
		return nil, err
	}

	witness, err := s.accept(ctx, validated)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateWitness):
			s.metrics.IncrementRegistration(metrics.OutcomeDuplicate)
		case errors.Is(err, domain.ErrCapacityReached):
			s.metrics.IncrementRegistration(metrics.OutcomeCapacity)
		default:
			s.metrics.IncrementRegistration(metrics.OutcomeError)
		}
		return nil, err
	}
	s.metrics.IncrementRegistration(metrics.OutcomeAccepted)

	logger.InfoCtx(ctx, "Witness accepted",
		zap.String("identifier", witness.Identifier),
		zap.Uint64("sequence_number", witness.SequenceNumber))

	// The witness is committed; nothing below may fail the registration
	background := context.WithoutCancel(ctx)

	fired, err := s.detector.CheckAndFire(background, witness.SequenceNumber)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("milestone check failed: %w", err),
			zap.Uint64("population", witness.SequenceNumber))
	}
	s.metrics.AddMilestonesFired(len(fired))

	s.dispatcher.Enqueue(background, notification.WelcomeIntent{Identifier: witness.Identifier})
	for _, m := range fired {
		s.dispatcher.Enqueue(background, notification.MilestoneIntent{
			Threshold:  m.Threshold,
			Population: m.Population,
		})
	}

	return witness, nil
}

// accept runs TryAccept, retrying allocation conflicts with exponential backoff
func (s *service) accept(ctx context.Context, input *ValidatedInput) (*schema.Witness, error) {
	acceptInput := store.AcceptInput{
		Identifier:  input.Identifier,
		Contact:     input.Contact,
		ProofHash:   input.ProofHash,
		BlockRef:    input.BlockRef,
		SignedAt:    input.SignedAt,
		Preferences: input.Preferences,
		Capacity:    s.config.Capacity,
	}

	var (
		witness  *schema.Witness
		attempts int
	)
	operation := func() error {
		attempts++
		w, err := s.store.TryAccept(ctx, acceptInput)
		if err != nil {
			if errors.Is(err, domain.ErrAllocationConflict) {
				return err
			}
			return backoff.Permanent(err)
		}
		witness = w
		return nil
	}

	// Configure exponential backoff
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.InitialInterval
	b.MaxInterval = s.config.MaxInterval
	b.MaxElapsedTime = 0 // bounded by MaxRetries
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	maxRetries := max(s.config.MaxRetries, 0)
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx) //nolint:gosec,G115

	notifyOnError := func(err error, next time.Duration) {
		s.metrics.IncrementAllocationRetry()
		logger.WarnCtx(ctx, "Sequence allocation conflict, retrying",
			zap.Error(err),
			zap.Int("attempt", attempts),
			zap.Duration("next_retry_in", next))
	}

	err := backoff.RetryNotify(operation, policy, notifyOnError)
	if err == nil {
		return witness, nil
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateWitness),
		errors.Is(err, domain.ErrCapacityReached),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, &domain.AllocationError{Attempts: attempts, Err: err}
	}
}

func (s *service) Get(ctx context.Context, identifier string) (*schema.Witness, error) {
	normalized, err := normalizeIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	witness, err := s.store.GetWitness(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get witness: %w", err)
	}
	if witness == nil {
		return nil, domain.ErrWitnessNotFound
	}
	return witness, nil
}

func (s *service) List(ctx context.Context, limit, offset int) ([]schema.Witness, error) {
	witnesses, err := s.store.ListActiveWitnesses(ctx, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to list witnesses: %w", err)
	}
	return witnesses, nil
}

func (s *service) Stats(ctx context.Context, now time.Time) (*readiness.Readiness, error) {
	active, err := s.store.CountActiveWitnesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active witnesses: %w", err)
	}

	r := readiness.Calculate(active, int64(s.config.Target), s.config.Deadline, now)
	return &r, nil
}

func (s *service) Revoke(ctx context.Context, identifier, reason string) (*schema.Witness, error) {
	normalized, err := normalizeIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRevocationReason
	}

	witness, err := s.store.RevokeWitness(ctx, store.RevokeInput{
		Identifier: normalized,
		Reason:     reason,
		RevokedAt:  s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Witness revoked",
		zap.String("identifier", witness.Identifier),
		zap.Uint64("sequence_number", witness.SequenceNumber),
		zap.String("reason", reason))

	return witness, nil
}

func normalizeIdentifier(identifier string) (string, error) {
	normalized := types.NormalizeAddress(identifier)
	if !types.IsEthereumAddress(normalized) {
		return "", &domain.InvalidIdentifierError{Identifier: identifier}
	}
	return normalized, nil
}
