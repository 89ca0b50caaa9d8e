package milestone

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/store"
	"github.com/feral-file/covenant-witness/internal/store/schema"
)

// Detector decides which population thresholds have been crossed and records each one once
//
//go:generate mockgen -source=milestone.go -destination=../mocks/milestone.go -package=mocks -mock_names=Detector=MockDetector
type Detector interface {
	// Thresholds returns the ascending threshold list, always ending at the target
	Thresholds() []int
	// Crossed returns the thresholds inside (previous, current]
	Crossed(previous, current uint64) []int
	// CheckAndFire records every threshold between the reconciled floor and newCount
	// and returns only the milestones this call inserted
	CheckAndFire(ctx context.Context, newCount uint64) ([]schema.Milestone, error)
	// Reconcile runs CheckAndFire against the current sequence
	Reconcile(ctx context.Context) ([]schema.Milestone, error)
}

type detector struct {
	store      store.Store
	clock      adapter.Clock
	thresholds []int
	// floor is the highest count already reconciled against the store
	floor atomic.Uint64
}

// NewDetector creates a milestone detector
func NewDetector(st store.Store, clock adapter.Clock, configured []int, target int) Detector {
	return &detector{
		store:      st,
		clock:      clock,
		thresholds: BuildThresholds(configured, target),
	}
}

// BuildThresholds sorts and de-duplicates the configured thresholds, drops the ones
// above the target and appends the target itself
func BuildThresholds(configured []int, target int) []int {
	sorted := append([]int(nil), configured...)
	sort.Ints(sorted)

	out := make([]int, 0, len(sorted)+1)
	for _, t := range sorted {
		if t <= 0 || t > target {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == t {
			continue
		}
		out = append(out, t)
	}
	if target > 0 && (len(out) == 0 || out[len(out)-1] != target) {
		out = append(out, target)
	}
	return out
}

func (d *detector) Thresholds() []int {
	return append([]int(nil), d.thresholds...)
}

func (d *detector) Crossed(previous, current uint64) []int {
	var crossed []int
	for _, t := range d.thresholds {
		v := uint64(t) //nolint:gosec,G115
		if v > previous && v <= current {
			crossed = append(crossed, t)
		}
	}
	return crossed
}

func (d *detector) CheckAndFire(ctx context.Context, newCount uint64) ([]schema.Milestone, error) {
	floor := d.floor.Load()
	if newCount <= floor {
		return nil, nil
	}

	candidates := d.Crossed(floor, newCount)
	if len(candidates) == 0 {
		d.advance(newCount)
		return nil, nil
	}

	fired, err := d.store.RecordMilestones(ctx, store.RecordMilestonesInput{
		Thresholds: candidates,
		Population: newCount,
		FiredAt:    d.clock.Now().UTC(),
	})
	if err != nil {
		// The floor stays put so the next check retries the same thresholds
		return nil, fmt.Errorf("failed to record milestones: %w", err)
	}

	d.advance(newCount)

	for _, m := range fired {
		logger.InfoCtx(ctx, "Milestone reached",
			zap.Int("threshold", m.Threshold),
			zap.Uint64("population", m.Population))
	}

	return fired, nil
}

func (d *detector) Reconcile(ctx context.Context) ([]schema.Milestone, error) {
	current, err := d.store.CurrentSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current sequence: %w", err)
	}

	// Start from zero: the store drops thresholds already recorded by any process
	candidates := d.Crossed(0, current)
	if len(candidates) == 0 {
		return nil, nil
	}

	fired, err := d.store.RecordMilestones(ctx, store.RecordMilestonesInput{
		Thresholds: candidates,
		Population: current,
		FiredAt:    d.clock.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record milestones: %w", err)
	}

	d.advance(current)
	return fired, nil
}

// advance raises the floor monotonically
func (d *detector) advance(count uint64) {
	for {
		current := d.floor.Load()
		if count <= current {
			return
		}
		if d.floor.CompareAndSwap(current, count) {
			return
		}
	}
}
