package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/feral-file/covenant-witness/internal/api/shared/constants"
	apierrors "github.com/feral-file/covenant-witness/internal/api/shared/errors"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/registration"
)

// Timestamp accepts either an RFC3339 string or unix milliseconds
type Timestamp time.Time

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: expected RFC3339", s)
		}
		*t = Timestamp(parsed)
		return nil
	}

	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: expected unix milliseconds", data)
	}
	*t = Timestamp(time.UnixMilli(millis).UTC())
	return nil
}

// Time returns the underlying time, nil when t is nil
func (t *Timestamp) Time() *time.Time {
	if t == nil {
		return nil
	}
	v := time.Time(*t)
	return &v
}

// NotificationPreferencesRequest holds optional opt-in flags; an omitted flag opts in
type NotificationPreferencesRequest struct {
	Welcome    *bool `json:"welcome"`
	Milestones *bool `json:"milestones"`
	Emergency  *bool `json:"emergency"`
	Countdown  *bool `json:"countdown"`
}

// ToDomain converts the request flags to domain preferences
func (r *NotificationPreferencesRequest) ToDomain() *domain.NotificationPreferences {
	if r == nil {
		return nil
	}
	prefs := domain.DefaultNotificationPreferences()
	if r.Welcome != nil {
		prefs.Welcome = *r.Welcome
	}
	if r.Milestones != nil {
		prefs.Milestones = *r.Milestones
	}
	if r.Emergency != nil {
		prefs.Emergency = *r.Emergency
	}
	if r.Countdown != nil {
		prefs.Countdown = *r.Countdown
	}
	return &prefs
}

// RegisterWitnessRequest represents the request body of POST /witnesses
type RegisterWitnessRequest struct {
	Identifier              string                          `json:"identifier"`
	Contact                 *string                         `json:"contact"`
	ProofHash               string                          `json:"proofHash"`
	BlockRef                *uint64                         `json:"blockRef"`
	SignedAt                *Timestamp                      `json:"signedAt"`
	NotificationPreferences *NotificationPreferencesRequest `json:"notificationPreferences"`
}

// ToInput converts the request to the registration input; field validation happens in the service
func (r *RegisterWitnessRequest) ToInput() registration.RegisterInput {
	return registration.RegisterInput{
		Identifier:  r.Identifier,
		Contact:     r.Contact,
		ProofHash:   r.ProofHash,
		BlockRef:    r.BlockRef,
		SignedAt:    r.SignedAt.Time(),
		Preferences: r.NotificationPreferences.ToDomain(),
	}
}

// RevokeWitnessRequest represents the request body of POST /admin/witnesses/:identifier/revoke
type RevokeWitnessRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the request body
func (r *RevokeWitnessRequest) Validate() error {
	if len(r.Reason) > constants.MAX_REVOCATION_REASON_BYTES {
		return apierrors.NewInvalidRequestError(
			fmt.Sprintf("reason must be at most %d bytes", constants.MAX_REVOCATION_REASON_BYTES), "reason")
	}
	return nil
}

// Notification request types as they appear on the wire
const (
	NotificationTypeWelcome         = "welcome"
	NotificationTypeMilestone       = "milestone"
	NotificationTypeEmergency       = "emergency"
	NotificationTypeLaunchCountdown = "launch_countdown"
	NotificationTypeBatchTest       = "batch_test"
)

// SendNotificationRequest represents the request body of POST /notifications.
// Type selects which of the remaining fields are read.
type SendNotificationRequest struct {
	Type string `json:"type"`

	// welcome
	Identifier string `json:"identifier"`

	// milestone
	Threshold  int    `json:"threshold"`
	Population uint64 `json:"population"`

	// emergency
	Urgency  string     `json:"urgency"`
	Message  string     `json:"message"`
	Deadline *Timestamp `json:"deadline"`

	// launch_countdown
	Force bool `json:"force"`

	// batch_test
	Recipients []string `json:"recipients"`
	// Simulate is the kind being rehearsed; welcome when omitted
	Simulate string `json:"simulate"`
}

// ToIntent converts the request to a validated notification intent
func (r *SendNotificationRequest) ToIntent() (notification.Intent, error) {
	var intent notification.Intent

	switch r.Type {
	case NotificationTypeWelcome:
		if r.Identifier == "" {
			return nil, apierrors.NewInvalidRequestError("identifier is required", "identifier")
		}
		intent = notification.WelcomeIntent{Identifier: strings.ToLower(strings.TrimSpace(r.Identifier))}
	case NotificationTypeMilestone:
		intent = notification.MilestoneIntent{Threshold: r.Threshold, Population: r.Population}
	case NotificationTypeEmergency:
		intent = notification.EmergencyIntent{
			Urgency:  domain.Urgency(r.Urgency),
			Message:  r.Message,
			Deadline: r.Deadline.Time(),
		}
	case NotificationTypeLaunchCountdown:
		intent = notification.CountdownIntent{Force: r.Force}
	case NotificationTypeBatchTest:
		if len(r.Recipients) > constants.MAX_BATCH_TEST_RECIPIENTS {
			return nil, apierrors.NewInvalidRequestError(
				fmt.Sprintf("maximum %d recipients allowed", constants.MAX_BATCH_TEST_RECIPIENTS), "recipients")
		}
		simulate := domain.NotificationKind(r.Simulate)
		switch r.Simulate {
		case "":
			simulate = domain.NotificationKindWelcome
		case NotificationTypeLaunchCountdown:
			simulate = domain.NotificationKindCountdown
		}
		intent = notification.BatchTestIntent{Recipients: r.Recipients, Simulate: simulate}
	case "":
		return nil, apierrors.NewInvalidRequestError("type is required", "type")
	default:
		return nil, apierrors.NewInvalidRequestError(fmt.Sprintf("unknown notification type %q", r.Type), "type")
	}

	if err := intent.Validate(); err != nil {
		return nil, apierrors.NewInvalidRequestError(err.Error())
	}
	return intent, nil
}
