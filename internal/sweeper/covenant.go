package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/milestone"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/store"
)

const (
	DEFAULT_SWEEP_INTERVAL       = 15 * time.Minute
	DEFAULT_WELCOME_GRACE        = 10 * time.Minute
	DEFAULT_WELCOME_BATCH_SIZE   = 100
	DEFAULT_WELCOME_MAX_ATTEMPTS = 5
)

// CovenantSweeperConfig holds configuration for the covenant sweeper
type CovenantSweeperConfig struct {
	// Interval is the time to sleep between sweep cycles
	Interval time.Duration
	// Deadline stops the daily countdown once it has passed
	Deadline time.Time
	// WelcomeGrace is how old a witness must be before the sweeper retries its welcome
	WelcomeGrace time.Duration
	// WelcomeBatchSize caps the welcomes retried per cycle
	WelcomeBatchSize int
	// WelcomeMaxAttempts gives up on a welcome after this many claims
	WelcomeMaxAttempts int
}

// covenantSweeper periodically reconciles milestones, retries lost welcomes and sends the daily countdown.
// Every notification it dispatches carries an idempotency key, so overlapping
// sweepers and API processes deliver each one at most once.
type covenantSweeper struct {
	config     CovenantSweeperConfig
	store      store.Store
	detector   milestone.Detector
	dispatcher notification.Dispatcher
	clock      adapter.Clock
	running    atomic.Bool
	stopChan   chan struct{}
	stoppedCh  chan struct{}
}

// NewCovenantSweeper creates a new covenant sweeper
func NewCovenantSweeper(
	config CovenantSweeperConfig,
	st store.Store,
	detector milestone.Detector,
	dispatcher notification.Dispatcher,
	clock adapter.Clock,
) Sweeper {
	if config.Interval <= 0 {
		config.Interval = DEFAULT_SWEEP_INTERVAL
	}
	if config.WelcomeGrace <= 0 {
		config.WelcomeGrace = DEFAULT_WELCOME_GRACE
	}
	if config.WelcomeBatchSize <= 0 {
		config.WelcomeBatchSize = DEFAULT_WELCOME_BATCH_SIZE
	}
	if config.WelcomeMaxAttempts <= 0 {
		config.WelcomeMaxAttempts = DEFAULT_WELCOME_MAX_ATTEMPTS
	}
	return &covenantSweeper{
		config:     config,
		store:      st,
		detector:   detector,
		dispatcher: dispatcher,
		clock:      clock,
		stopChan:   make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *covenantSweeper) Name() string {
	return "covenant-sweeper"
}

// Start runs a sweep cycle every interval until the context is canceled or Stop is called
func (s *covenantSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting covenant sweeper",
		zap.Duration("interval", s.config.Interval),
		zap.Time("deadline", s.config.Deadline),
	)

	for {
		if err := s.runSweepCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorCtx(ctx, err)
		}

		if !s.sleep(ctx, s.config.Interval) {
			logger.InfoCtx(ctx, "Covenant sweeper stopping")
			return nil
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *covenantSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping covenant sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Covenant sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Covenant sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle runs a single sweep cycle. A failing step does not stop the later ones.
func (s *covenantSweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()
	logger.InfoCtx(ctx, "Starting sweep cycle")

	milestoneErr := s.reconcileMilestones(ctx)
	if errors.Is(milestoneErr, context.Canceled) {
		return milestoneErr
	}
	welcomeErr := s.redeliverWelcomes(ctx)
	if errors.Is(welcomeErr, context.Canceled) {
		return welcomeErr
	}
	countdownErr := s.sendCountdown(ctx)

	logger.InfoCtx(ctx, "Sweep cycle completed", zap.Duration("duration", s.clock.Since(startTime)))

	return errors.Join(milestoneErr, welcomeErr, countdownErr)
}

// reconcileMilestones records thresholds a crashed or lagging process missed, then
// re-dispatches every recorded milestone. Delivered ones come back as already_sent;
// failed or stale claims are retried.
func (s *covenantSweeper) reconcileMilestones(ctx context.Context) error {
	fired, err := s.detector.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile milestones: %w", err)
	}
	if len(fired) > 0 {
		logger.InfoCtx(ctx, "Reconciled missed milestones", zap.Int("count", len(fired)))
	}

	milestones, err := s.store.ListMilestones(ctx)
	if err != nil {
		return fmt.Errorf("failed to list milestones: %w", err)
	}

	var errs []error
	for _, m := range milestones {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := s.dispatcher.Dispatch(ctx, notification.MilestoneIntent{
			Threshold:  m.Threshold,
			Population: m.Population,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to dispatch milestone %d: %w", m.Threshold, err))
			continue
		}

		if result.Status == notification.StatusAlreadySent {
			continue
		}
		logger.InfoCtx(ctx, "Milestone notification dispatched",
			zap.Int("threshold", m.Threshold),
			zap.String("status", string(result.Status)),
			zap.Int("recipients", result.Recipients),
		)
	}

	return errors.Join(errs...)
}

// redeliverWelcomes re-dispatches welcomes that were dropped before a worker ran them,
// failed in the transport, or died with their process. The welcome key keeps the
// retry from doubling up with a delivery still in flight.
func (s *covenantSweeper) redeliverWelcomes(ctx context.Context) error {
	backlog, err := s.store.ListWelcomeBacklog(ctx, store.WelcomeBacklogInput{
		AcceptedBefore: s.clock.Now().Add(-s.config.WelcomeGrace),
		MaxAttempts:    s.config.WelcomeMaxAttempts,
		Limit:          s.config.WelcomeBatchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to list welcome backlog: %w", err)
	}

	var errs []error
	for _, w := range backlog {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := s.dispatcher.Dispatch(ctx, notification.WelcomeIntent{Identifier: w.Identifier})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to dispatch welcome for %s: %w", w.Identifier, err))
			continue
		}

		switch result.Status {
		case notification.StatusAlreadySent, notification.StatusInFlight:
			continue
		}
		logger.InfoCtx(ctx, "Welcome notification redelivered",
			zap.String("identifier", w.Identifier),
			zap.Uint64("sequence_number", w.SequenceNumber),
			zap.String("status", string(result.Status)),
		)
	}

	return errors.Join(errs...)
}

// sendCountdown dispatches today's countdown; the per-day key makes repeats a no-op
func (s *covenantSweeper) sendCountdown(ctx context.Context) error {
	now := s.clock.Now()
	if !s.config.Deadline.IsZero() && now.After(s.config.Deadline) {
		logger.DebugCtx(ctx, "Deadline passed, skipping countdown")
		return nil
	}

	result, err := s.dispatcher.Dispatch(ctx, notification.CountdownIntent{})
	if err != nil {
		return fmt.Errorf("failed to dispatch countdown: %w", err)
	}

	if result.Status != notification.StatusAlreadySent {
		logger.InfoCtx(ctx, "Countdown notification dispatched",
			zap.String("idempotency_key", result.IdempotencyKey),
			zap.String("status", string(result.Status)),
			zap.Int("recipients", result.Recipients),
		)
	}
	return nil
}

// sleep waits for the duration; it returns false when interrupted by the context or Stop
func (s *covenantSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}
