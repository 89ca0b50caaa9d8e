package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/metrics"
	"github.com/feral-file/covenant-witness/internal/readiness"
	"github.com/feral-file/covenant-witness/internal/store"
	"github.com/feral-file/covenant-witness/internal/types"
)

var (
	// ErrQueueFull is recorded when an intent arrives while the worker queue is saturated
	ErrQueueFull = errors.New("notification queue full")
	// ErrDispatcherClosed is recorded when an intent arrives after Close
	ErrDispatcherClosed = errors.New("notification dispatcher closed")
)

const (
	defaultWorkerPoolSize  = 8
	defaultWorkerQueueSize = 1024
	defaultClaimTTL        = 5 * time.Minute
)

// Config holds dispatcher settings
type Config struct {
	WorkerPoolSize  int
	WorkerQueueSize int
	// ClaimTTL is how long a pending claim blocks other workers before it may be taken over
	ClaimTTL time.Duration
	// BatchConcurrency bounds the per-recipient fan-out of a batch test
	BatchConcurrency int
	Target           int
	Deadline         time.Time
}

// Dispatcher delivers notification intents
//
//go:generate mockgen -source=dispatcher.go -destination=../mocks/dispatcher.go -package=mocks -mock_names=Dispatcher=MockDispatcher
type Dispatcher interface {
	// Enqueue submits the intent to the worker pool and never blocks.
	// It returns false when the intent was rejected; a rejection is logged and recorded as failed.
	Enqueue(ctx context.Context, intent Intent) bool
	// Dispatch delivers the intent synchronously. Transport failures are reported
	// through Result; the error is reserved for invalid intents and storage failures.
	Dispatch(ctx context.Context, intent Intent) (*Result, error)
	// Close stops accepting intents and waits for queued ones to finish
	Close()
}

type dispatcher struct {
	config  Config
	store   store.Store
	sender  Sender
	clock   adapter.Clock
	json    adapter.JSON
	metrics *metrics.Metrics

	pool      pond.Pool
	queueSize int64
	pending   atomic.Int64

	// mu orders Enqueue's submit against Close's shutdown
	mu       sync.RWMutex
	closed   atomic.Bool
	failures sync.WaitGroup
}

// NewDispatcher creates a notification dispatcher backed by a bounded worker pool
func NewDispatcher(
	ctx context.Context,
	cfg Config,
	st store.Store,
	sender Sender,
	clock adapter.Clock,
	jsonAdapter adapter.JSON,
	m *metrics.Metrics,
) Dispatcher {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.WorkerQueueSize <= 0 {
		cfg.WorkerQueueSize = defaultWorkerQueueSize
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = defaultClaimTTL
	}

	return &dispatcher{
		config:  cfg,
		store:   st,
		sender:  sender,
		clock:   clock,
		json:    jsonAdapter,
		metrics: m,
		pool: pond.NewPool(
			cfg.WorkerPoolSize,
			pond.WithQueueSize(cfg.WorkerQueueSize),
			pond.WithContext(ctx),
		),
		queueSize: int64(cfg.WorkerQueueSize),
	}
}

func (d *dispatcher) Enqueue(ctx context.Context, intent Intent) bool {
	if intent == nil {
		logger.ErrorCtx(ctx, fmt.Errorf("%w: nil intent", domain.ErrInvalidIntent))
		return false
	}
	if err := intent.Validate(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("kind", string(intent.Kind())))
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed.Load() {
		d.reject(ctx, intent, ErrDispatcherClosed)
		return false
	}

	// Pending counts queued and running tasks; holding it at the queue size
	// keeps pond's Submit from ever blocking the caller
	depth := d.pending.Add(1)
	if depth > d.queueSize {
		d.pending.Add(-1)
		d.reject(ctx, intent, ErrQueueFull)
		return false
	}
	d.metrics.SetQueueDepth(depth)

	// Workers outlive the triggering request
	taskCtx := context.WithoutCancel(ctx)
	d.pool.Submit(func() {
		defer func() {
			d.metrics.SetQueueDepth(d.pending.Add(-1))
		}()

		result, err := d.Dispatch(taskCtx, intent)
		if err != nil {
			logger.ErrorCtx(taskCtx, fmt.Errorf("failed to dispatch %s notification: %w", intent.Kind(), err))
			return
		}

		logger.InfoCtx(taskCtx, "Notification dispatched",
			zap.String("kind", string(result.Kind)),
			zap.String("status", string(result.Status)),
			zap.String("event_id", result.EventID),
			zap.Int("recipients", result.Recipients))
	})

	return true
}

// reject logs and records an intent that never reached a worker.
// The record is written in the background so the caller is not held up by the store.
func (d *dispatcher) reject(ctx context.Context, intent Intent, reason error) {
	kind := intent.Kind()
	logger.WarnCtx(ctx, "Notification intent rejected",
		zap.String("kind", string(kind)),
		zap.Error(reason))
	d.metrics.IncrementNotificationDropped(string(kind))

	payload, err := d.json.Marshal(intent)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to marshal rejected intent: %w", err))
		return
	}

	now := d.clock.Now()
	input := store.CreateNotificationInput{
		EventID:        newEventID(now),
		Kind:           kind,
		Payload:        payload,
		DeliveryResult: domain.DeliveryResultFailed,
		ErrorMessage:   types.StringPtr(reason.Error()),
		AttemptedAt:    now.UTC(),
	}
	if w, ok := intent.(WelcomeIntent); ok {
		input.TargetWitnessID = types.StringPtr(types.NormalizeAddress(w.Identifier))
	}

	recordCtx := context.WithoutCancel(ctx)
	d.failures.Add(1)
	go func() {
		defer d.failures.Done()
		if _, err := d.store.RecordNotification(recordCtx, input); err != nil {
			logger.ErrorCtx(recordCtx, fmt.Errorf("failed to record rejected notification: %w", err),
				zap.String("kind", string(kind)))
		}
	}()
}

func (d *dispatcher) Close() {
	d.mu.Lock()
	alreadyClosed := d.closed.Swap(true)
	d.mu.Unlock()
	if alreadyClosed {
		return
	}

	d.pool.StopAndWait()
	d.failures.Wait()
}

func (d *dispatcher) Dispatch(ctx context.Context, intent Intent) (*Result, error) {
	if intent == nil {
		return nil, fmt.Errorf("%w: nil intent", domain.ErrInvalidIntent)
	}
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	var (
		result *Result
		err    error
	)
	switch v := intent.(type) {
	case WelcomeIntent:
		result, err = d.dispatchWelcome(ctx, v)
	case MilestoneIntent:
		result, err = d.dispatchMilestone(ctx, v)
	case EmergencyIntent:
		result, err = d.dispatchEmergency(ctx, v)
	case CountdownIntent:
		result, err = d.dispatchCountdown(ctx, v)
	case BatchTestIntent:
		result, err = d.dispatchBatchTest(ctx, v)
	default:
		err = fmt.Errorf("%w: unsupported intent %T", domain.ErrInvalidIntent, intent)
	}

	if err != nil {
		d.metrics.IncrementNotification(string(intent.Kind()), "error")
		return nil, err
	}
	d.metrics.IncrementNotification(string(result.Kind), string(result.Status))
	return result, nil
}

type welcomePayload struct {
	Identifier     string    `json:"identifier"`
	SequenceNumber uint64    `json:"sequenceNumber"`
	AcceptedAt     time.Time `json:"acceptedAt"`
}

func (d *dispatcher) dispatchWelcome(ctx context.Context, intent WelcomeIntent) (*Result, error) {
	identifier := types.NormalizeAddress(intent.Identifier)
	result := &Result{
		Kind:           domain.NotificationKindWelcome,
		IdempotencyKey: idempotencyKey(intent, ""),
	}

	witness, err := d.store.GetWitness(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to get witness: %w", err)
	}
	if witness == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrWitnessNotFound, identifier)
	}

	switch {
	case !witness.IsActive():
		return skip(result, "witness revoked"), nil
	case types.StringNilOrEmpty(witness.Contact):
		return skip(result, "no contact"), nil
	case !witness.Preferences().Allows(domain.NotificationKindWelcome):
		return skip(result, "opted out"), nil
	}

	recipients := []domain.Recipient{{Identifier: identifier, Contact: *witness.Contact}}
	payload := welcomePayload{
		Identifier:     identifier,
		SequenceNumber: witness.SequenceNumber,
		AcceptedAt:     witness.CreatedAt.UTC(),
	}
	return d.deliver(ctx, result, &identifier, recipients, payload)
}

type milestonePayload struct {
	Threshold  int    `json:"threshold"`
	Population uint64 `json:"population"`
	Target     int    `json:"target"`
}

func (d *dispatcher) dispatchMilestone(ctx context.Context, intent MilestoneIntent) (*Result, error) {
	result := &Result{
		Kind:           domain.NotificationKindMilestone,
		IdempotencyKey: idempotencyKey(intent, ""),
	}

	// Only a recorded firing owns the milestone key
	fired, err := d.store.GetMilestone(ctx, intent.Threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	if fired == nil {
		return nil, fmt.Errorf("%w: milestone %d has not fired", domain.ErrInvalidIntent, intent.Threshold)
	}

	recipients, err := d.store.ListRecipients(ctx, domain.NotificationKindMilestone)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	payload := milestonePayload{
		Threshold:  fired.Threshold,
		Population: fired.Population,
		Target:     d.config.Target,
	}
	return d.deliver(ctx, result, nil, recipients, payload)
}

type emergencyPayload struct {
	Urgency  domain.Urgency `json:"urgency"`
	Message  string         `json:"message"`
	Deadline *time.Time     `json:"deadline,omitempty"`
}

func (d *dispatcher) dispatchEmergency(ctx context.Context, intent EmergencyIntent) (*Result, error) {
	result := &Result{Kind: domain.NotificationKindEmergency}

	recipients, err := d.store.ListRecipients(ctx, domain.NotificationKindEmergency)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	payload := emergencyPayload{
		Urgency:  intent.Urgency,
		Message:  intent.Message,
		Deadline: intent.Deadline,
	}
	return d.deliver(ctx, result, nil, recipients, payload)
}

type countdownPayload struct {
	Date          string              `json:"date"`
	DaysRemaining int                 `json:"daysRemaining"`
	Readiness     readiness.Readiness `json:"readiness"`
}

func (d *dispatcher) dispatchCountdown(ctx context.Context, intent CountdownIntent) (*Result, error) {
	now := d.clock.Now()
	// The calendar day is taken in the deadline's zone
	day := now.In(d.config.Deadline.Location()).Format(time.DateOnly)

	result := &Result{
		Kind:           domain.NotificationKindCountdown,
		IdempotencyKey: idempotencyKey(intent, day),
	}

	active, err := d.store.CountActiveWitnesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active witnesses: %w", err)
	}
	status := readiness.Calculate(active, int64(d.config.Target), d.config.Deadline, now)

	recipients, err := d.store.ListRecipients(ctx, domain.NotificationKindCountdown)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	payload := countdownPayload{
		Date:          day,
		DaysRemaining: status.DaysRemaining,
		Readiness:     status,
	}
	return d.deliver(ctx, result, nil, recipients, payload)
}

// deliver claims the result's idempotency key when it has one, hands one message to
// the transport and appends the attempt to the notification log
func (d *dispatcher) deliver(
	ctx context.Context,
	result *Result,
	target *string,
	recipients []domain.Recipient,
	payload interface{},
) (*Result, error) {
	data, err := d.json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := d.clock.Now()
	if result.IdempotencyKey != "" {
		outcome, err := d.store.ClaimNotification(ctx, store.ClaimInput{
			IdempotencyKey: result.IdempotencyKey,
			Now:            now,
			StaleBefore:    now.Add(-d.config.ClaimTTL),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to claim notification: %w", err)
		}

		switch outcome {
		case domain.ClaimOutcomeAlreadySent:
			result.Status = StatusAlreadySent
			return result, nil
		case domain.ClaimOutcomeInFlight:
			result.Status = StatusInFlight
			return result, nil
		}
	}

	msg := &domain.NotificationMessage{
		EventID:    newEventID(now),
		Kind:       result.Kind,
		Recipients: recipients,
		Payload:    data,
		Timestamp:  now.UTC(),
	}
	result.EventID = msg.EventID
	result.Recipients = len(recipients)

	// A broadcast nobody opted into completes without touching the transport
	var sendErr error
	if len(recipients) > 0 {
		sendErr = d.sender.Send(ctx, msg)
	}

	input := store.CreateNotificationInput{
		EventID:         msg.EventID,
		Kind:            result.Kind,
		TargetWitnessID: target,
		Payload:         data,
		DeliveryResult:  domain.DeliveryResultSent,
		RecipientCount:  len(recipients),
		AttemptedAt:     now.UTC(),
	}
	if result.IdempotencyKey != "" {
		input.IdempotencyKey = types.StringPtr(result.IdempotencyKey)
	}

	result.Status = StatusSent
	if sendErr != nil {
		deliveryErr := &domain.NotificationDeliveryError{Kind: result.Kind, Err: sendErr}
		result.Status = StatusFailed
		result.Err = deliveryErr
		result.Error = deliveryErr.Error()
		input.DeliveryResult = domain.DeliveryResultFailed
		input.ErrorMessage = types.StringPtr(deliveryErr.Error())

		logger.WarnCtx(ctx, "Notification delivery failed",
			zap.String("kind", string(result.Kind)),
			zap.String("event_id", msg.EventID),
			zap.String("transport", d.sender.Name()),
			zap.Error(sendErr))
	}

	// The attempt is recorded even when the caller has gone away
	if _, err := d.store.RecordNotification(context.WithoutCancel(ctx), input); err != nil {
		return nil, fmt.Errorf("failed to record %s notification %s: %w", result.Kind, msg.EventID, err)
	}

	return result, nil
}

type batchTestPayload struct {
	Simulate domain.NotificationKind `json:"simulate"`
	Test     bool                    `json:"test"`
}

type batchTestLog struct {
	Simulate domain.NotificationKind `json:"simulate"`
	Total    int                     `json:"total"`
	Sent     int                     `json:"sent"`
	Failed   int                     `json:"failed"`
}

// dispatchBatchTest fans out one message per recipient and writes a single log row
func (d *dispatcher) dispatchBatchTest(ctx context.Context, intent BatchTestIntent) (*Result, error) {
	now := d.clock.Now()
	data, err := d.json.Marshal(batchTestPayload{Simulate: intent.Simulate, Test: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var (
		sent, failed atomic.Int32
		firstErr     error
		errOnce      sync.Once
		g            errgroup.Group
	)
	if d.config.BatchConcurrency > 0 {
		g.SetLimit(d.config.BatchConcurrency)
	}

	for _, contact := range intent.Recipients {
		g.Go(func() error {
			msg := &domain.NotificationMessage{
				EventID:    newEventID(now),
				Kind:       domain.NotificationKindBatchTest,
				Recipients: []domain.Recipient{{Contact: contact}},
				Payload:    data,
				Timestamp:  now.UTC(),
			}
			if err := d.sender.Send(ctx, msg); err != nil {
				failed.Add(1)
				errOnce.Do(func() { firstErr = err })
				logger.WarnCtx(ctx, "Batch test delivery failed",
					zap.String("event_id", msg.EventID),
					zap.Error(err))
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{
		Kind:       domain.NotificationKindBatchTest,
		EventID:    newEventID(now),
		Recipients: len(intent.Recipients),
		Total:      len(intent.Recipients),
		Sent:       int(sent.Load()),
		Failed:     int(failed.Load()),
		Status:     StatusSent,
	}

	logData, err := d.json.Marshal(batchTestLog{
		Simulate: intent.Simulate,
		Total:    result.Total,
		Sent:     result.Sent,
		Failed:   result.Failed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	input := store.CreateNotificationInput{
		EventID:        result.EventID,
		Kind:           domain.NotificationKindBatchTest,
		Payload:        logData,
		DeliveryResult: domain.DeliveryResultSent,
		RecipientCount: result.Total,
		AttemptedAt:    now.UTC(),
	}
	if result.Failed > 0 {
		deliveryErr := &domain.NotificationDeliveryError{
			Kind: domain.NotificationKindBatchTest,
			Err:  fmt.Errorf("%d of %d deliveries failed: %w", result.Failed, result.Total, firstErr),
		}
		result.Status = StatusFailed
		result.Err = deliveryErr
		result.Error = deliveryErr.Error()
		input.DeliveryResult = domain.DeliveryResultFailed
		input.ErrorMessage = types.StringPtr(deliveryErr.Error())
	}

	if _, err := d.store.RecordNotification(context.WithoutCancel(ctx), input); err != nil {
		return nil, fmt.Errorf("failed to record batch test %s: %w", result.EventID, err)
	}

	return result, nil
}

func skip(result *Result, reason string) *Result {
	result.Status = StatusSkipped
	result.Reason = reason
	return result
}

func newEventID(t time.Time) string {
	return ulid.MustNewDefault(t).String()
}
