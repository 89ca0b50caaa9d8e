package registration_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/metrics"
	"github.com/feral-file/covenant-witness/internal/milestone"
	"github.com/feral-file/covenant-witness/internal/mocks"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/readiness"
	"github.com/feral-file/covenant-witness/internal/registration"
	"github.com/feral-file/covenant-witness/internal/store"
	"github.com/feral-file/covenant-witness/internal/store/schema"
)

var (
	edt      = time.FixedZone("EDT", -4*60*60)
	deadline = time.Date(2025, 10, 19, 0, 0, 0, 0, edt)
	signedAt = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
)

func testConfig() registration.Config {
	return registration.Config{
		Target:          100,
		Deadline:        deadline,
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func identifier(i int) string {
	return fmt.Sprintf("0x%040x", i+1)
}

func registerInput(i int) registration.RegisterInput {
	contact := fmt.Sprintf("witness%d@example.com", i)
	return registration.RegisterInput{
		Identifier: identifier(i),
		Contact:    &contact,
		ProofHash:  fmt.Sprintf("0xproof%d", i),
		SignedAt:   &signedAt,
	}
}

// testServiceMocks wires a service against the in-memory store and a mocked dispatcher
type testServiceMocks struct {
	ctrl       *gomock.Controller
	store      store.Store
	dispatcher *mocks.MockDispatcher
	metrics    *metrics.Metrics
	service    registration.Service
}

func setupTestService(t *testing.T, cfg registration.Config, thresholds []int) *testServiceMocks {
	err := logger.Initialize(logger.Config{Debug: true})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctrl := gomock.NewController(t)
	clock := adapter.NewClock()
	st := store.NewMemoryStore(clock)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	m := metrics.New(prometheus.NewRegistry())
	detector := milestone.NewDetector(st, clock, thresholds, cfg.Target)

	return &testServiceMocks{
		ctrl:       ctrl,
		store:      st,
		dispatcher: dispatcher,
		metrics:    m,
		service:    registration.NewService(cfg, st, detector, dispatcher, clock, m),
	}
}

func TestRegister(t *testing.T) {
	tm := setupTestService(t, testConfig(), []int{10})
	defer tm.ctrl.Finish()
	ctx := context.Background()

	tm.dispatcher.EXPECT().
		Enqueue(gomock.Any(), notification.WelcomeIntent{Identifier: identifier(0)}).
		Return(true)

	w, err := tm.service.Register(ctx, registerInput(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w.SequenceNumber)
	assert.Equal(t, identifier(0), w.Identifier)
	assert.Equal(t, domain.DefaultNotificationPreferences(), w.Preferences())
	assert.Equal(t, float64(1), testutil.ToFloat64(tm.metrics.Registrations.WithLabelValues(metrics.OutcomeAccepted)))
}

func TestRegister_NormalizesIdentifier(t *testing.T) {
	tm := setupTestService(t, testConfig(), nil)
	defer tm.ctrl.Finish()
	ctx := context.Background()

	tm.dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(true)

	input := registerInput(0)
	input.Identifier = "0xABCDEF0123456789ABCDEF0123456789ABCDEF01"
	w, err := tm.service.Register(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", w.Identifier)

	// The mixed-case spelling is the same witness
	input.Identifier = "0xabcdef0123456789abcdef0123456789ABCDEF01"
	_, err = tm.service.Register(ctx, input)
	assert.ErrorIs(t, err, domain.ErrDuplicateWitness)
}

func TestRegister_EnqueuesCrossedMilestones(t *testing.T) {
	tm := setupTestService(t, testConfig(), []int{2, 3})
	defer tm.ctrl.Finish()
	ctx := context.Background()

	tm.dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.AssignableToTypeOf(notification.WelcomeIntent{})).Return(true).Times(3)
	tm.dispatcher.EXPECT().Enqueue(gomock.Any(), notification.MilestoneIntent{Threshold: 2, Population: 2}).Return(true)
	tm.dispatcher.EXPECT().Enqueue(gomock.Any(), notification.MilestoneIntent{Threshold: 3, Population: 3}).Return(true)

	for i := range 3 {
		_, err := tm.service.Register(ctx, registerInput(i))
		require.NoError(t, err)
	}

	milestones, err := tm.store.ListMilestones(ctx)
	require.NoError(t, err)
	require.Len(t, milestones, 2)
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, tm *testServiceMocks)
		input   registration.RegisterInput
		check   func(t *testing.T, err error)
		outcome string
	}{
		{
			name: "duplicate",
			setup: func(t *testing.T, tm *testServiceMocks) {
				tm.dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(true)
				_, err := tm.service.Register(context.Background(), registerInput(0))
				require.NoError(t, err)
			},
			input: registerInput(0),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrDuplicateWitness)
			},
			outcome: metrics.OutcomeDuplicate,
		},
		{
			name: "missing proofHash and signedAt",
			input: registration.RegisterInput{
				Identifier: identifier(0),
			},
			check: func(t *testing.T, err error) {
				var missing *domain.MissingFieldError
				require.ErrorAs(t, err, &missing)
				assert.ElementsMatch(t, []string{"proofHash", "signedAt"}, missing.Fields)
			},
			outcome: metrics.OutcomeInvalid,
		},
		{
			name: "invalid identifier",
			input: registration.RegisterInput{
				Identifier: "0x1234",
				ProofHash:  "0xproof",
				SignedAt:   &signedAt,
			},
			check: func(t *testing.T, err error) {
				var invalid *domain.InvalidIdentifierError
				assert.ErrorAs(t, err, &invalid)
			},
			outcome: metrics.OutcomeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestService(t, testConfig(), nil)
			defer tm.ctrl.Finish()

			if tt.setup != nil {
				tt.setup(t, tm)
			}
			before, err := tm.store.CurrentSequence(context.Background())
			require.NoError(t, err)

			w, err := tm.service.Register(context.Background(), tt.input)
			assert.Nil(t, w)
			tt.check(t, err)

			// No number consumed, no notification scheduled
			after, err := tm.store.CurrentSequence(context.Background())
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, float64(1), testutil.ToFloat64(tm.metrics.Registrations.WithLabelValues(tt.outcome)))
		})
	}
}

func TestRegister_CapacityReached(t *testing.T) {
	cfg := testConfig()
	cfg.Capacity = 2
	tm := setupTestService(t, cfg, nil)
	defer tm.ctrl.Finish()
	ctx := context.Background()

	tm.dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(true).Times(2)

	for i := range 2 {
		_, err := tm.service.Register(ctx, registerInput(i))
		require.NoError(t, err)
	}

	_, err := tm.service.Register(ctx, registerInput(2))
	assert.ErrorIs(t, err, domain.ErrCapacityReached)

	seq, err := tm.store.CurrentSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
}

func TestRegister_ConcurrentRegistrationsAreGapless(t *testing.T) {
	tm := setupTestService(t, testConfig(), []int{10, 25, 50, 75})
	defer tm.ctrl.Finish()
	ctx := context.Background()

	var (
		mu         sync.Mutex
		milestones []int
	)
	tm.dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.AssignableToTypeOf(notification.WelcomeIntent{})).Return(true).Times(50)
	tm.dispatcher.EXPECT().
		Enqueue(gomock.Any(), gomock.AssignableToTypeOf(notification.MilestoneIntent{})).
		DoAndReturn(func(_ context.Context, intent notification.Intent) bool {
			mu.Lock()
			defer mu.Unlock()
			milestones = append(milestones, intent.(notification.MilestoneIntent).Threshold)
			return true
		}).
		Times(3)

	const n = 50
	var wg sync.WaitGroup
	sequences := make([]uint64, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := tm.service.Register(ctx, registerInput(i))
			if assert.NoError(t, err) {
				sequences[i] = w.SequenceNumber
			}
		}(i)
	}
	wg.Wait()

	sort.Slice(sequences, func(i, j int) bool { return sequences[i] < sequences[j] })
	for i, seq := range sequences {
		assert.Equal(t, uint64(i+1), seq) //nolint:gosec,G115
	}

	sort.Ints(milestones)
	assert.Equal(t, []int{10, 25, 50}, milestones)
}

func TestRegister_RetriesAllocationConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	mockStore := mocks.NewMockStore(ctrl)
	detector := mocks.NewMockDetector(ctrl)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	m := metrics.New(prometheus.NewRegistry())

	accepted := &schema.Witness{Identifier: identifier(0), SequenceNumber: 1, Status: domain.WitnessStatusActive}
	conflict := fmt.Errorf("%w: 40001", domain.ErrAllocationConflict)

	gomock.InOrder(
		mockStore.EXPECT().TryAccept(gomock.Any(), gomock.Any()).Return(nil, conflict),
		mockStore.EXPECT().TryAccept(gomock.Any(), gomock.Any()).Return(nil, conflict),
		mockStore.EXPECT().TryAccept(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, input store.AcceptInput) (*schema.Witness, error) {
				assert.Equal(t, identifier(0), input.Identifier)
				assert.Equal(t, 0, input.Capacity)
				return accepted, nil
			}),
	)
	detector.EXPECT().CheckAndFire(gomock.Any(), uint64(1)).Return(nil, nil)
	dispatcher.EXPECT().Enqueue(gomock.Any(), notification.WelcomeIntent{Identifier: identifier(0)}).Return(true)

	svc := registration.NewService(testConfig(), mockStore, detector, dispatcher, adapter.NewClock(), m)
	w, err := svc.Register(ctx, registerInput(0))
	require.NoError(t, err)
	assert.Equal(t, accepted, w)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AllocationRetries))
}

func TestRegister_AllocationRetriesExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	detector := mocks.NewMockDetector(ctrl)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	cfg := testConfig()
	cfg.MaxRetries = 2
	conflict := fmt.Errorf("%w: 40P01", domain.ErrAllocationConflict)
	mockStore.EXPECT().TryAccept(gomock.Any(), gomock.Any()).Return(nil, conflict).Times(3)

	svc := registration.NewService(cfg, mockStore, detector, dispatcher, adapter.NewClock(), nil)
	w, err := svc.Register(context.Background(), registerInput(0))
	assert.Nil(t, w)

	var allocErr *domain.AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, 3, allocErr.Attempts)
	assert.ErrorIs(t, err, domain.ErrAllocationConflict)
}

func TestRegister_StoreFailureIsAllocationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().TryAccept(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused")).Times(1)

	svc := registration.NewService(testConfig(), mockStore, mocks.NewMockDetector(ctrl), mocks.NewMockDispatcher(ctrl), adapter.NewClock(), nil)
	_, err := svc.Register(context.Background(), registerInput(0))

	var allocErr *domain.AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, 1, allocErr.Attempts)
}

func TestRegister_MilestoneFailureDoesNotFailRegistration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	detector := mocks.NewMockDetector(ctrl)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	accepted := &schema.Witness{Identifier: identifier(0), SequenceNumber: 10, Status: domain.WitnessStatusActive}
	mockStore.EXPECT().TryAccept(gomock.Any(), gomock.Any()).Return(accepted, nil)
	detector.EXPECT().CheckAndFire(gomock.Any(), uint64(10)).Return(nil, errors.New("milestones table locked"))
	dispatcher.EXPECT().Enqueue(gomock.Any(), notification.WelcomeIntent{Identifier: identifier(0)}).Return(false)

	svc := registration.NewService(testConfig(), mockStore, detector, dispatcher, adapter.NewClock(), nil)
	w, err := svc.Register(context.Background(), registerInput(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), w.SequenceNumber)
}

func TestGet(t *testing.T) {
	tm := setupTestService(t, testConfig(), nil)
	defer tm.ctrl.Finish()
	ctx := context.Background()

	tm.dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(true)
	_, err := tm.service.Register(ctx, registerInput(0))
	require.NoError(t, err)

	w, err := tm.service.Get(ctx, identifier(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w.SequenceNumber)

	_, err = tm.service.Get(ctx, identifier(1))
	assert.ErrorIs(t, err, domain.ErrWitnessNotFound)

	_, err = tm.service.Get(ctx, "nope")
	var invalid *domain.InvalidIdentifierError
	assert.ErrorAs(t, err, &invalid)
}

func TestListAndStats(t *testing.T) {
	tm := setupTestService(t, testConfig(), nil)
	defer tm.ctrl.Finish()
	ctx := context.Background()

	tm.dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(true).Times(3)
	for i := range 3 {
		_, err := tm.service.Register(ctx, registerInput(i))
		require.NoError(t, err)
	}

	_, err := tm.service.Revoke(ctx, identifier(1), "")
	require.NoError(t, err)

	witnesses, err := tm.service.List(ctx, 10, -5)
	require.NoError(t, err)
	require.Len(t, witnesses, 2)
	assert.Equal(t, uint64(1), witnesses[0].SequenceNumber)
	assert.Equal(t, uint64(3), witnesses[1].SequenceNumber)

	now := time.Date(2025, 10, 12, 0, 0, 0, 0, edt)
	stats, err := tm.service.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ActiveCount)
	assert.Equal(t, int64(100), stats.TargetCount)
	assert.Equal(t, 2, stats.PercentComplete)
	assert.Equal(t, 7, stats.DaysRemaining)
	assert.Equal(t, readiness.TierCritical, stats.Tier)
	assert.True(t, stats.Urgent)
}

func TestRevoke(t *testing.T) {
	tm := setupTestService(t, testConfig(), nil)
	defer tm.ctrl.Finish()
	ctx := context.Background()

	tm.dispatcher.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(true).Times(2)
	_, err := tm.service.Register(ctx, registerInput(0))
	require.NoError(t, err)

	revoked, err := tm.service.Revoke(ctx, identifier(0), "  ")
	require.NoError(t, err)
	assert.Equal(t, domain.WitnessStatusRevoked, revoked.Status)
	assert.Equal(t, "revoked by administrator", *revoked.RevocationReason)
	assert.Equal(t, uint64(1), revoked.SequenceNumber)

	_, err = tm.service.Revoke(ctx, identifier(0), "again")
	assert.ErrorIs(t, err, domain.ErrWitnessAlreadyRevoked)

	_, err = tm.service.Revoke(ctx, identifier(5), "missing")
	assert.ErrorIs(t, err, domain.ErrWitnessNotFound)

	// A revoked identifier stays consumed and its number is never reused
	_, err = tm.service.Register(ctx, registerInput(0))
	assert.ErrorIs(t, err, domain.ErrDuplicateWitness)

	w, err := tm.service.Register(ctx, registerInput(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), w.SequenceNumber)
}
