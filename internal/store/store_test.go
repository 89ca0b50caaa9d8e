package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/store/schema"
)

// StoreTestSuite provides the interface for running store tests against different implementations
type StoreTestSuite struct {
	// InitDB should be called before each test to initialize the database
	InitDB func(t *testing.T) Store
	// CleanupDB should be called after each test to clean up the database
	CleanupDB func(t *testing.T)
}

// =============================================================================
// Test Data Builders
// =============================================================================

// testIdentifier builds a valid normalized identifier from an index
func testIdentifier(i int) string {
	return fmt.Sprintf("0x%040x", i+1)
}

// buildAcceptInput creates a test accept input
func buildAcceptInput(identifier string) AcceptInput {
	contact := identifier[:10] + "@example.com"
	blockRef := uint64(21000000)
	return AcceptInput{
		Identifier:  identifier,
		Contact:     &contact,
		ProofHash:   "0xproof" + identifier[2:10],
		BlockRef:    &blockRef,
		SignedAt:    time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
		Preferences: domain.DefaultNotificationPreferences(),
	}
}

func strPtr(s string) *string {
	return &s
}

// RunStoreTests runs all store tests against the given implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	suite := &StoreTestSuite{
		InitDB:    initDB,
		CleanupDB: cleanupDB,
	}

	t.Run("TryAccept", suite.testTryAccept)
	t.Run("TryAccept_Duplicate", suite.testTryAcceptDuplicate)
	t.Run("TryAccept_ConcurrentDistinct", suite.testTryAcceptConcurrentDistinct)
	t.Run("TryAccept_ConcurrentSameIdentifier", suite.testTryAcceptConcurrentSame)
	t.Run("TryAccept_NoPartialAllocation", suite.testTryAcceptNoPartialAllocation)
	t.Run("TryAccept_Capacity", suite.testTryAcceptCapacity)
	t.Run("TryAccept_CancelledContext", suite.testTryAcceptCancelledContext)
	t.Run("RevokeWitness", suite.testRevokeWitness)
	t.Run("ListActiveWitnesses", suite.testListActiveWitnesses)
	t.Run("ListRecipients", suite.testListRecipients)
	t.Run("RecordMilestones", suite.testRecordMilestones)
	t.Run("RecordMilestones_Concurrent", suite.testRecordMilestonesConcurrent)
	t.Run("GetMilestone", suite.testGetMilestone)
	t.Run("ClaimNotification", suite.testClaimNotification)
	t.Run("ListWelcomeBacklog", suite.testListWelcomeBacklog)
	t.Run("RecordNotification", suite.testRecordNotification)
	t.Run("Ping", suite.testPing)
}

func (s *StoreTestSuite) testTryAccept(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	input := buildAcceptInput(testIdentifier(0))
	input.Preferences = domain.NotificationPreferences{Welcome: false, Milestones: true, Emergency: false, Countdown: true}

	w, err := store.TryAccept(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, uint64(1), w.SequenceNumber)
	assert.Equal(t, domain.WitnessStatusActive, w.Status)

	got, err := store.GetWitness(ctx, input.Identifier)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, input.Identifier, got.Identifier)
	assert.Equal(t, *input.Contact, *got.Contact)
	assert.Equal(t, input.ProofHash, got.ProofHash)
	assert.Equal(t, *input.BlockRef, *got.BlockRef)
	assert.True(t, input.SignedAt.Equal(got.SignedAt))
	assert.Equal(t, input.Preferences, got.Preferences())
	assert.Nil(t, got.RevokedAt)

	seq, err := store.CurrentSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	missing, err := store.GetWitness(ctx, testIdentifier(99))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func (s *StoreTestSuite) testTryAcceptDuplicate(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	input := buildAcceptInput(testIdentifier(0))
	_, err := store.TryAccept(ctx, input)
	require.NoError(t, err)

	_, err = store.TryAccept(ctx, input)
	assert.ErrorIs(t, err, domain.ErrDuplicateWitness)

	seq, err := store.CurrentSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq, "a rejected duplicate must not consume a number")

	w, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(1)))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), w.SequenceNumber)
}

func (s *StoreTestSuite) testTryAcceptConcurrentDistinct(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	results := make([]uint64, n)
	errs := make([]error, n)

	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(i)))
			errs[i] = err
			if err == nil {
				results[i] = w.SequenceNumber
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "accept %d", i)
	}

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, seq := range results {
		assert.Equal(t, uint64(i+1), seq) //nolint:gosec,G115
	}

	count, err := store.CountActiveWitnesses(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}

func (s *StoreTestSuite) testTryAcceptConcurrentSame(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	const m = 20
	identifier := testIdentifier(7)
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	duplicates := 0

	for range m {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.TryAccept(ctx, buildAcceptInput(identifier))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrDuplicateWitness):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, m-1, duplicates)

	w, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(8)))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), w.SequenceNumber, "failed duplicates must not skip numbers")
}

func (s *StoreTestSuite) testTryAcceptNoPartialAllocation(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	_, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(0)))
	require.NoError(t, err)

	// The number is reserved first, then the insert violates the proof_hash check
	broken := buildAcceptInput(testIdentifier(1))
	broken.ProofHash = ""
	_, err = store.TryAccept(ctx, broken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateWitness)

	seq, err := store.CurrentSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	w, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(1)))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), w.SequenceNumber, "the reserved number must be reusable")
}

func (s *StoreTestSuite) testTryAcceptCapacity(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	for i := range 2 {
		input := buildAcceptInput(testIdentifier(i))
		input.Capacity = 2
		_, err := store.TryAccept(ctx, input)
		require.NoError(t, err)
	}

	input := buildAcceptInput(testIdentifier(2))
	input.Capacity = 2
	_, err := store.TryAccept(ctx, input)
	assert.ErrorIs(t, err, domain.ErrCapacityReached)

	dup := buildAcceptInput(testIdentifier(0))
	dup.Capacity = 2
	_, err = store.TryAccept(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateWitness)

	seq, err := store.CurrentSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)

	w, err := store.GetWitness(ctx, testIdentifier(2))
	require.NoError(t, err)
	assert.Nil(t, w)
}

func (s *StoreTestSuite) testTryAcceptCancelledContext(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(0)))
	require.Error(t, err)

	seq, err := store.CurrentSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)
}

func (s *StoreTestSuite) testRevokeWitness(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	for i := range 3 {
		_, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(i)))
		require.NoError(t, err)
	}

	revokedAt := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	w, err := store.RevokeWitness(ctx, RevokeInput{
		Identifier: testIdentifier(1),
		Reason:     "fraudulent proof",
		RevokedAt:  revokedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.WitnessStatusRevoked, w.Status)
	assert.Equal(t, uint64(2), w.SequenceNumber)
	require.NotNil(t, w.RevokedAt)
	assert.True(t, revokedAt.Equal(*w.RevokedAt))
	assert.Equal(t, "fraudulent proof", *w.RevocationReason)

	count, err := store.CountActiveWitnesses(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = store.RevokeWitness(ctx, RevokeInput{Identifier: testIdentifier(1), RevokedAt: revokedAt})
	assert.ErrorIs(t, err, domain.ErrWitnessAlreadyRevoked)

	_, err = store.RevokeWitness(ctx, RevokeInput{Identifier: testIdentifier(50), RevokedAt: revokedAt})
	assert.ErrorIs(t, err, domain.ErrWitnessNotFound)

	// A revoked identifier stays consumed
	_, err = store.TryAccept(ctx, buildAcceptInput(testIdentifier(1)))
	assert.ErrorIs(t, err, domain.ErrDuplicateWitness)

	next, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(3)))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), next.SequenceNumber, "revocation never frees a number")
}

func (s *StoreTestSuite) testListActiveWitnesses(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	for i := range 5 {
		_, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(i)))
		require.NoError(t, err)
	}
	_, err := store.RevokeWitness(ctx, RevokeInput{Identifier: testIdentifier(0), RevokedAt: time.Now().UTC()})
	require.NoError(t, err)

	tests := []struct {
		name     string
		limit    int
		offset   int
		expected []uint64
	}{
		{name: "first page", limit: 2, offset: 0, expected: []uint64{2, 3}},
		{name: "second page", limit: 2, offset: 2, expected: []uint64{4, 5}},
		{name: "past the end", limit: 2, offset: 10, expected: nil},
		{name: "no limit", limit: 0, offset: 0, expected: []uint64{2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			witnesses, err := store.ListActiveWitnesses(ctx, tt.limit, tt.offset)
			require.NoError(t, err)
			var got []uint64
			for _, w := range witnesses {
				got = append(got, w.SequenceNumber)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func (s *StoreTestSuite) testListRecipients(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	// 0: all preferences, 1: no contact, 2: milestones off, 3: revoked
	_, err := store.TryAccept(ctx, buildAcceptInput(testIdentifier(0)))
	require.NoError(t, err)

	noContact := buildAcceptInput(testIdentifier(1))
	noContact.Contact = nil
	_, err = store.TryAccept(ctx, noContact)
	require.NoError(t, err)

	quiet := buildAcceptInput(testIdentifier(2))
	quiet.Preferences.Milestones = false
	_, err = store.TryAccept(ctx, quiet)
	require.NoError(t, err)

	_, err = store.TryAccept(ctx, buildAcceptInput(testIdentifier(3)))
	require.NoError(t, err)
	_, err = store.RevokeWitness(ctx, RevokeInput{Identifier: testIdentifier(3), RevokedAt: time.Now().UTC()})
	require.NoError(t, err)

	milestone, err := store.ListRecipients(ctx, domain.NotificationKindMilestone)
	require.NoError(t, err)
	require.Len(t, milestone, 1)
	assert.Equal(t, testIdentifier(0), milestone[0].Identifier)

	emergency, err := store.ListRecipients(ctx, domain.NotificationKindEmergency)
	require.NoError(t, err)
	require.Len(t, emergency, 2)
	assert.Equal(t, testIdentifier(0), emergency[0].Identifier)
	assert.Equal(t, testIdentifier(2), emergency[1].Identifier)
}

func (s *StoreTestSuite) testRecordMilestones(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()
	firedAt := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)

	fired, err := store.RecordMilestones(ctx, RecordMilestonesInput{
		Thresholds: []int{10, 25},
		Population: 27,
		FiredAt:    firedAt,
	})
	require.NoError(t, err)
	require.Len(t, fired, 2)
	assert.Equal(t, 10, fired[0].Threshold)
	assert.Equal(t, 25, fired[1].Threshold)
	assert.Equal(t, uint64(27), fired[0].Population)

	fired, err = store.RecordMilestones(ctx, RecordMilestonesInput{
		Thresholds: []int{10, 25, 50},
		Population: 50,
		FiredAt:    firedAt,
	})
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, 50, fired[0].Threshold)

	all, err := store.ListMilestones(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{10, 25, 50}, []int{all[0].Threshold, all[1].Threshold, all[2].Threshold})
	assert.Equal(t, uint64(27), all[0].Population, "the first firing is kept")
}

func (s *StoreTestSuite) testRecordMilestonesConcurrent(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	firings := map[int]int{}

	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fired, err := store.RecordMilestones(ctx, RecordMilestonesInput{
				Thresholds: []int{10, 25},
				Population: uint64(9 + i), //nolint:gosec,G115
				FiredAt:    time.Now().UTC(),
			})
			if err != nil {
				t.Errorf("record milestones: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, m := range fired {
				firings[m.Threshold]++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, map[int]int{10: 1, 25: 1}, firings)
}

func (s *StoreTestSuite) testGetMilestone(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()

	m, err := store.GetMilestone(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, m, "unfired threshold")

	_, err = store.RecordMilestones(ctx, RecordMilestonesInput{
		Thresholds: []int{10},
		Population: 12,
		FiredAt:    time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	m, err = store.GetMilestone(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 10, m.Threshold)
	assert.Equal(t, uint64(12), m.Population)
}

func (s *StoreTestSuite) testClaimNotification(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()
	now := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)
	ttl := 5 * time.Minute

	claim := func(key string, at time.Time) domain.ClaimOutcome {
		outcome, err := store.ClaimNotification(ctx, ClaimInput{IdempotencyKey: key, Now: at, StaleBefore: at.Add(-ttl)})
		require.NoError(t, err)
		return outcome
	}
	complete := func(key string, result domain.DeliveryResult, at time.Time) {
		_, err := store.RecordNotification(ctx, CreateNotificationInput{
			EventID:        fmt.Sprintf("evt-%s-%d", key, at.UnixNano()),
			Kind:           domain.NotificationKindWelcome,
			IdempotencyKey: strPtr(key),
			Payload:        json.RawMessage(`{}`),
			DeliveryResult: result,
			RecipientCount: 1,
			AttemptedAt:    at,
		})
		require.NoError(t, err)
	}

	// fresh key, then a concurrent duplicate sees it in flight
	assert.Equal(t, domain.ClaimOutcomeClaimed, claim("welcome:a", now))
	assert.Equal(t, domain.ClaimOutcomeInFlight, claim("welcome:a", now.Add(time.Second)))

	// sent is terminal
	complete("welcome:a", domain.DeliveryResultSent, now.Add(2*time.Second))
	assert.Equal(t, domain.ClaimOutcomeAlreadySent, claim("welcome:a", now.Add(time.Hour)))

	// failed can be retried
	assert.Equal(t, domain.ClaimOutcomeClaimed, claim("welcome:b", now))
	complete("welcome:b", domain.DeliveryResultFailed, now.Add(time.Second))
	assert.Equal(t, domain.ClaimOutcomeClaimed, claim("welcome:b", now.Add(2*time.Second)))

	// stale pending is taken over
	assert.Equal(t, domain.ClaimOutcomeClaimed, claim("welcome:c", now))
	assert.Equal(t, domain.ClaimOutcomeInFlight, claim("welcome:c", now.Add(ttl-time.Second)))
	assert.Equal(t, domain.ClaimOutcomeClaimed, claim("welcome:c", now.Add(ttl+time.Second)))

	// completing an unknown claim fails and appends nothing
	_, err := store.RecordNotification(ctx, CreateNotificationInput{
		EventID:        "evt-unknown",
		Kind:           domain.NotificationKindWelcome,
		IdempotencyKey: strPtr("welcome:unknown"),
		Payload:        json.RawMessage(`{}`),
		DeliveryResult: domain.DeliveryResultSent,
		AttemptedAt:    now,
	})
	require.Error(t, err)
	logged, err := store.ListNotifications(ctx, NotificationFilter{IdempotencyKey: strPtr("welcome:unknown")})
	require.NoError(t, err)
	assert.Empty(t, logged)
}

func (s *StoreTestSuite) testListWelcomeBacklog(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// 0: never claimed, 1: sent, 2: failed, 3: pending, 4: no contact,
	// 5: welcome off, 6: revoked, 7: failed out of attempts
	for i := range 8 {
		input := buildAcceptInput(testIdentifier(i))
		switch i {
		case 4:
			input.Contact = nil
		case 5:
			input.Preferences.Welcome = false
		}
		_, err := store.TryAccept(ctx, input)
		require.NoError(t, err)
	}
	_, err := store.RevokeWitness(ctx, RevokeInput{Identifier: testIdentifier(6), RevokedAt: now})
	require.NoError(t, err)

	claim := func(i int) {
		_, err := store.ClaimNotification(ctx, ClaimInput{
			IdempotencyKey: "welcome:" + testIdentifier(i),
			Now:            now,
			StaleBefore:    now.Add(-time.Hour),
		})
		require.NoError(t, err)
	}
	events := 0
	complete := func(i int, result domain.DeliveryResult) {
		events++
		_, err := store.RecordNotification(ctx, CreateNotificationInput{
			EventID:        fmt.Sprintf("evt-welcome-%d-%d", i, events),
			Kind:           domain.NotificationKindWelcome,
			IdempotencyKey: strPtr("welcome:" + testIdentifier(i)),
			Payload:        json.RawMessage(`{}`),
			DeliveryResult: result,
			RecipientCount: 1,
			AttemptedAt:    now,
		})
		require.NoError(t, err)
	}
	claim(1)
	complete(1, domain.DeliveryResultSent)
	claim(2)
	complete(2, domain.DeliveryResultFailed)
	claim(3)
	for range 3 {
		claim(7)
		complete(7, domain.DeliveryResultFailed)
	}

	identifiers := func(ws []schema.Witness) []string {
		var out []string
		for _, w := range ws {
			out = append(out, w.Identifier)
		}
		return out
	}

	backlog, err := store.ListWelcomeBacklog(ctx, WelcomeBacklogInput{AcceptedBefore: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{testIdentifier(0), testIdentifier(2), testIdentifier(3), testIdentifier(7)}, identifiers(backlog))

	backlog, err = store.ListWelcomeBacklog(ctx, WelcomeBacklogInput{AcceptedBefore: now.Add(time.Hour), MaxAttempts: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{testIdentifier(0), testIdentifier(2)}, identifiers(backlog))

	backlog, err = store.ListWelcomeBacklog(ctx, WelcomeBacklogInput{AcceptedBefore: now.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, backlog, "recent witnesses are left to the API")
}

func (s *StoreTestSuite) testRecordNotification(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)
	ctx := context.Background()
	now := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)

	errMsg := "relay unreachable"
	_, err := store.RecordNotification(ctx, CreateNotificationInput{
		EventID:        "01JAAAAAAAAAAAAAAAAAAAAAA1",
		Kind:           domain.NotificationKindEmergency,
		Payload:        json.RawMessage(`{"urgency":"high","message":"halt"}`),
		DeliveryResult: domain.DeliveryResultFailed,
		ErrorMessage:   &errMsg,
		RecipientCount: 3,
		AttemptedAt:    now,
	})
	require.NoError(t, err)

	_, err = store.RecordNotification(ctx, CreateNotificationInput{
		EventID:         "01JAAAAAAAAAAAAAAAAAAAAAA2",
		Kind:            domain.NotificationKindBatchTest,
		TargetWitnessID: strPtr(testIdentifier(0)),
		Payload:         json.RawMessage(`{"simulate":"welcome"}`),
		DeliveryResult:  domain.DeliveryResultSent,
		RecipientCount:  1,
		AttemptedAt:     now.Add(time.Second),
	})
	require.NoError(t, err)

	all, err := store.ListNotifications(ctx, NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.NotificationKindBatchTest, all[0].Kind, "newest first")

	kind := domain.NotificationKindEmergency
	emergencies, err := store.ListNotifications(ctx, NotificationFilter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, emergencies, 1)
	assert.Equal(t, domain.DeliveryResultFailed, emergencies[0].DeliveryResult)
	assert.Equal(t, errMsg, *emergencies[0].ErrorMessage)
	assert.Equal(t, 3, emergencies[0].RecipientCount)
	assert.JSONEq(t, `{"urgency":"high","message":"halt"}`, string(emergencies[0].Payload))

	limited, err := store.ListNotifications(ctx, NotificationFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// batch tests never touch witnesses or milestones
	count, err := store.CountActiveWitnesses(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	milestones, err := store.ListMilestones(ctx)
	require.NoError(t, err)
	assert.Empty(t, milestones)
}

func (s *StoreTestSuite) testPing(t *testing.T) {
	store := s.InitDB(t)
	defer s.CleanupDB(t)

	assert.NoError(t, store.Ping(context.Background()))
}
