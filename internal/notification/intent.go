package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/types"
)

// Intent is a request to deliver one notification. The set of variants is closed:
// WelcomeIntent, MilestoneIntent, EmergencyIntent, CountdownIntent and BatchTestIntent.
type Intent interface {
	Kind() domain.NotificationKind
	// Validate checks the variant's required fields
	Validate() error
	intent()
}

// WelcomeIntent greets a newly accepted witness
type WelcomeIntent struct {
	Identifier string `json:"identifier"`
}

// MilestoneIntent broadcasts a fired population threshold. The threshold must
// already be recorded; the broadcast carries the recorded population.
type MilestoneIntent struct {
	Threshold  int    `json:"threshold"`
	Population uint64 `json:"population"`
}

// EmergencyIntent broadcasts an urgent message regardless of any other state
type EmergencyIntent struct {
	Urgency  domain.Urgency `json:"urgency"`
	Message  string         `json:"message"`
	Deadline *time.Time     `json:"deadline,omitempty"`
}

// CountdownIntent broadcasts the days remaining until the deadline.
// Force bypasses the once-per-day key for on-demand runs.
type CountdownIntent struct {
	Force bool `json:"force"`
}

// BatchTestIntent sends a simulated notification to explicit contacts
type BatchTestIntent struct {
	Recipients []string                `json:"recipients"`
	Simulate   domain.NotificationKind `json:"simulate"`
}

func (WelcomeIntent) Kind() domain.NotificationKind   { return domain.NotificationKindWelcome }
func (MilestoneIntent) Kind() domain.NotificationKind { return domain.NotificationKindMilestone }
func (EmergencyIntent) Kind() domain.NotificationKind { return domain.NotificationKindEmergency }
func (CountdownIntent) Kind() domain.NotificationKind { return domain.NotificationKindCountdown }
func (BatchTestIntent) Kind() domain.NotificationKind { return domain.NotificationKindBatchTest }

func (WelcomeIntent) intent()   {}
func (MilestoneIntent) intent() {}
func (EmergencyIntent) intent() {}
func (CountdownIntent) intent() {}
func (BatchTestIntent) intent() {}

func (i WelcomeIntent) Validate() error {
	if !types.IsEthereumAddress(i.Identifier) {
		return fmt.Errorf("%w: welcome requires a witness identifier", domain.ErrInvalidIntent)
	}
	return nil
}

func (i MilestoneIntent) Validate() error {
	if i.Threshold <= 0 {
		return fmt.Errorf("%w: milestone threshold must be positive", domain.ErrInvalidIntent)
	}
	return nil
}

func (i EmergencyIntent) Validate() error {
	if !domain.IsValidUrgency(i.Urgency) {
		return fmt.Errorf("%w: unknown urgency %q", domain.ErrInvalidIntent, i.Urgency)
	}
	if strings.TrimSpace(i.Message) == "" {
		return fmt.Errorf("%w: emergency requires a message", domain.ErrInvalidIntent)
	}
	return nil
}

func (i CountdownIntent) Validate() error {
	return nil
}

func (i BatchTestIntent) Validate() error {
	if len(i.Recipients) == 0 {
		return fmt.Errorf("%w: batch_test requires at least one recipient", domain.ErrInvalidIntent)
	}
	for idx, r := range i.Recipients {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("%w: recipient %d is empty", domain.ErrInvalidIntent, idx)
		}
	}
	if !domain.IsValidNotificationKind(i.Simulate) || i.Simulate == domain.NotificationKindBatchTest {
		return fmt.Errorf("%w: cannot simulate kind %q", domain.ErrInvalidIntent, i.Simulate)
	}
	return nil
}

// idempotencyKey returns the claim key for the intent; empty means the intent is not deduplicated
func idempotencyKey(intent Intent, day string) string {
	switch v := intent.(type) {
	case WelcomeIntent:
		return "welcome:" + types.NormalizeAddress(v.Identifier)
	case MilestoneIntent:
		return fmt.Sprintf("milestone:%d", v.Threshold)
	case CountdownIntent:
		if v.Force {
			return ""
		}
		return "countdown:" + day
	default:
		return ""
	}
}
