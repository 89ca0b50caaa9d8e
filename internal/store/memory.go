package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gorm.io/datatypes"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/store/schema"
)

var identifierPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// memoryStore is the single-writer realization: one mutex serializes every
// mutation, so reserve, insert and commit happen as one step.
// It mirrors the constraints of db/init_pg_db.sql so both stores fail the same way.
type memoryStore struct {
	mu sync.Mutex

	clock         adapter.Clock
	sequence      uint64
	nextID        uint64
	witnesses     map[string]*schema.Witness
	order         []*schema.Witness
	milestones    map[int]schema.Milestone
	notifications []schema.Notification
	eventIDs      map[string]struct{}
	claims        map[string]*schema.NotificationClaim
}

// NewMemoryStore creates an in-process store, intended for development and tests
func NewMemoryStore(clock adapter.Clock) Store {
	return &memoryStore{
		clock:      clock,
		witnesses:  make(map[string]*schema.Witness),
		milestones: make(map[int]schema.Milestone),
		eventIDs:   make(map[string]struct{}),
		claims:     make(map[string]*schema.NotificationClaim),
	}
}

func validateWitnessRow(w *schema.Witness) error {
	if !identifierPattern.MatchString(w.Identifier) {
		return fmt.Errorf("check constraint violated: identifier %q", w.Identifier)
	}
	if w.ProofHash == "" {
		return errors.New("check constraint violated: proof_hash must not be empty")
	}
	return nil
}

// TryAccept reserves the next number and stores the witness under the store mutex.
// The counter is restored when anything after the reservation fails.
func (s *memoryStore) TryAccept(ctx context.Context, input AcceptInput) (*schema.Witness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reserved := s.sequence + 1
	s.sequence = reserved
	committed := false
	defer func() {
		if !committed {
			s.sequence = reserved - 1
		}
	}()

	if _, exists := s.witnesses[input.Identifier]; exists {
		return nil, domain.ErrDuplicateWitness
	}

	now := s.clock.Now()
	witness := &schema.Witness{
		ID:             s.nextID + 1,
		Identifier:     input.Identifier,
		Contact:        copyString(input.Contact),
		ProofHash:      input.ProofHash,
		BlockRef:       copyUint64(input.BlockRef),
		SignedAt:       input.SignedAt,
		SequenceNumber: reserved,
		Status:         domain.WitnessStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	witness.SetPreferences(input.Preferences)

	if err := validateWitnessRow(witness); err != nil {
		return nil, fmt.Errorf("failed to insert witness: %w", err)
	}

	if input.Capacity > 0 && reserved > uint64(input.Capacity) { //nolint:gosec,G115
		return nil, domain.ErrCapacityReached
	}

	// Context cancellation before commit leaves nothing behind
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.nextID++
	s.witnesses[witness.Identifier] = witness
	s.order = append(s.order, witness)
	committed = true

	out := *witness
	return &out, nil
}

// GetWitness retrieves a witness by normalized identifier
func (s *memoryStore) GetWitness(_ context.Context, identifier string) (*schema.Witness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.witnesses[identifier]
	if !ok {
		return nil, nil
	}
	out := *w
	return &out, nil
}

// ListActiveWitnesses returns active witnesses ordered by sequence number
func (s *memoryStore) ListActiveWitnesses(_ context.Context, limit, offset int) ([]schema.Witness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []schema.Witness
	skipped := 0
	for _, w := range s.order {
		if !w.IsActive() {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, *w)
	}
	return out, nil
}

// CountActiveWitnesses returns the active population
func (s *memoryStore) CountActiveWitnesses(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, w := range s.order {
		if w.IsActive() {
			count++
		}
	}
	return count, nil
}

// CurrentSequence returns the last allocated sequence number
func (s *memoryStore) CurrentSequence(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence, nil
}

// RevokeWitness marks a witness revoked; its sequence number is kept
func (s *memoryStore) RevokeWitness(_ context.Context, input RevokeInput) (*schema.Witness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.witnesses[input.Identifier]
	if !ok {
		return nil, domain.ErrWitnessNotFound
	}
	if !w.IsActive() {
		return nil, domain.ErrWitnessAlreadyRevoked
	}

	reason := input.Reason
	revokedAt := input.RevokedAt
	w.Status = domain.WitnessStatusRevoked
	w.RevokedAt = &revokedAt
	w.RevocationReason = &reason
	w.UpdatedAt = revokedAt

	out := *w
	return &out, nil
}

// ListRecipients returns active witnesses with a contact that opted into the kind
func (s *memoryStore) ListRecipients(_ context.Context, kind domain.NotificationKind) ([]domain.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipients := make([]domain.Recipient, 0)
	for _, w := range s.order {
		if !w.IsActive() || w.Contact == nil || strings.TrimSpace(*w.Contact) == "" {
			continue
		}
		if !w.Preferences().Allows(kind) {
			continue
		}
		recipients = append(recipients, domain.Recipient{
			Identifier: w.Identifier,
			Contact:    *w.Contact,
		})
	}
	return recipients, nil
}

// RecordMilestones inserts the thresholds that are not yet recorded and returns only those
func (s *memoryStore) RecordMilestones(_ context.Context, input RecordMilestonesInput) ([]schema.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fired []schema.Milestone
	for _, threshold := range input.Thresholds {
		if threshold <= 0 {
			return nil, fmt.Errorf("check constraint violated: threshold %d", threshold)
		}
		if _, exists := s.milestones[threshold]; exists {
			continue
		}
		m := schema.Milestone{
			Threshold:  threshold,
			Population: input.Population,
			FiredAt:    input.FiredAt,
		}
		s.milestones[threshold] = m
		fired = append(fired, m)
	}
	return fired, nil
}

// ListMilestones returns all fired milestones ordered by threshold
func (s *memoryStore) ListMilestones(_ context.Context) ([]schema.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schema.Milestone, 0, len(s.milestones))
	for _, m := range s.milestones {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out, nil
}

// GetMilestone returns a recorded milestone; nil when the threshold has not fired
func (s *memoryStore) GetMilestone(_ context.Context, threshold int) (*schema.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.milestones[threshold]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// ClaimNotification tries to own an idempotency key
func (s *memoryStore) ClaimNotification(_ context.Context, input ClaimInput) (domain.ClaimOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[input.IdempotencyKey]
	if !ok {
		s.claims[input.IdempotencyKey] = &schema.NotificationClaim{
			IdempotencyKey: input.IdempotencyKey,
			Status:         domain.ClaimStatusPending,
			Attempts:       1,
			ClaimedAt:      input.Now,
			UpdatedAt:      input.Now,
		}
		return domain.ClaimOutcomeClaimed, nil
	}

	switch {
	case claim.Status == domain.ClaimStatusSent:
		return domain.ClaimOutcomeAlreadySent, nil
	case claim.Status == domain.ClaimStatusFailed,
		claim.Status == domain.ClaimStatusPending && claim.ClaimedAt.Before(input.StaleBefore):
		claim.Status = domain.ClaimStatusPending
		claim.Attempts++
		claim.ClaimedAt = input.Now
		claim.UpdatedAt = input.Now
		return domain.ClaimOutcomeClaimed, nil
	default:
		return domain.ClaimOutcomeInFlight, nil
	}
}

// RecordNotification appends to the notification log and completes the claim, if any
func (s *memoryStore) RecordNotification(_ context.Context, input CreateNotificationInput) (*schema.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.eventIDs[input.EventID]; dup {
		return nil, fmt.Errorf("failed to append notification: duplicate event id %s", input.EventID)
	}

	var claim *schema.NotificationClaim
	if input.IdempotencyKey != nil {
		var ok bool
		claim, ok = s.claims[*input.IdempotencyKey]
		if !ok {
			return nil, fmt.Errorf("notification claim %q not found", *input.IdempotencyKey)
		}
	}

	notification := schema.Notification{
		ID:              uint64(len(s.notifications) + 1), //nolint:gosec,G115
		EventID:         input.EventID,
		Kind:            input.Kind,
		TargetWitnessID: copyString(input.TargetWitnessID),
		IdempotencyKey:  copyString(input.IdempotencyKey),
		Payload:         datatypes.JSON(append([]byte(nil), input.Payload...)),
		DeliveryResult:  input.DeliveryResult,
		ErrorMessage:    copyString(input.ErrorMessage),
		RecipientCount:  input.RecipientCount,
		AttemptedAt:     input.AttemptedAt,
	}
	s.notifications = append(s.notifications, notification)
	s.eventIDs[input.EventID] = struct{}{}

	if claim != nil {
		claim.Status = domain.ClaimStatusFailed
		if input.DeliveryResult == domain.DeliveryResultSent {
			claim.Status = domain.ClaimStatusSent
		}
		claim.UpdatedAt = input.AttemptedAt
	}

	return &notification, nil
}

// ListWelcomeBacklog returns witnesses whose welcome key has no sent claim
func (s *memoryStore) ListWelcomeBacklog(_ context.Context, input WelcomeBacklogInput) ([]schema.Witness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []schema.Witness
	for _, w := range s.order {
		if !w.IsActive() || !w.PrefWelcome || w.Contact == nil || strings.TrimSpace(*w.Contact) == "" {
			continue
		}
		if !w.CreatedAt.Before(input.AcceptedBefore) {
			continue
		}
		if claim, ok := s.claims["welcome:"+w.Identifier]; ok {
			if claim.Status == domain.ClaimStatusSent {
				continue
			}
			if input.MaxAttempts > 0 && claim.Attempts >= input.MaxAttempts {
				continue
			}
		}
		row := *w
		row.Contact = copyString(w.Contact)
		out = append(out, row)
		if input.Limit > 0 && len(out) >= input.Limit {
			break
		}
	}
	return out, nil
}

// ListNotifications returns log entries, newest first
func (s *memoryStore) ListNotifications(_ context.Context, filter NotificationFilter) ([]schema.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []schema.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if filter.Kind != nil && n.Kind != *filter.Kind {
			continue
		}
		if filter.IdempotencyKey != nil && (n.IdempotencyKey == nil || *n.IdempotencyKey != *filter.IdempotencyKey) {
			continue
		}
		out = append(out, n)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Ping always succeeds
func (s *memoryStore) Ping(_ context.Context) error {
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyUint64(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
