// Package readiness derives the covenant status from population and the deadline.
package readiness

import (
	"math"
	"time"
)

// Tier is a coarse status label derived from the completion percentage
type Tier string

const (
	TierCritical Tier = "CRITICAL"
	TierWarning  Tier = "WARNING"
	TierProgress Tier = "PROGRESS"
	TierReady    Tier = "READY"
)

// UrgentWithinDays is the countdown horizon below which an unfinished covenant is urgent
const UrgentWithinDays = 7

// Readiness is the computed status
type Readiness struct {
	ActiveCount      int64 `json:"totalWitnesses"`
	TargetCount      int64 `json:"targetWitnesses"`
	PercentComplete  int   `json:"percentComplete"`
	DaysRemaining    int   `json:"daysRemaining"`
	RawDaysRemaining int   `json:"rawDaysRemaining"`
	Tier             Tier  `json:"tier"`
	Urgent           bool  `json:"urgent"`
}

// Calculate computes readiness. It is a pure function of its inputs.
func Calculate(active, target int64, deadline, now time.Time) Readiness {
	percent := 0
	if target > 0 {
		percent = int(math.Round(100 * float64(active) / float64(target)))
	}

	raw := DaysUntil(deadline, now)
	days := max(raw, 0)

	return Readiness{
		ActiveCount:      active,
		TargetCount:      target,
		PercentComplete:  percent,
		DaysRemaining:    days,
		RawDaysRemaining: raw,
		Tier:             TierFor(percent),
		Urgent:           raw <= UrgentWithinDays && active < target,
	}
}

// DaysUntil returns ceil((deadline - now) / 24h); negative once the deadline has passed
func DaysUntil(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// TierFor maps a rounded percentage onto a tier
func TierFor(percent int) Tier {
	switch {
	case percent < 50:
		return TierCritical
	case percent < 75:
		return TierWarning
	case percent < 90:
		return TierProgress
	default:
		return TierReady
	}
}
