package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateWitness is returned when the identifier already holds a sequence number
	ErrDuplicateWitness = errors.New("witness already registered")

	// ErrCapacityReached is returned when the registry is full
	ErrCapacityReached = errors.New("witness capacity reached")

	// ErrAllocationConflict is returned by the store when the accept transaction lost a
	// serialization race or deadlocked; callers may retry
	ErrAllocationConflict = errors.New("sequence allocation conflict")

	// ErrWitnessNotFound is returned when a witness is not found
	ErrWitnessNotFound = errors.New("witness not found")

	// ErrWitnessAlreadyRevoked is returned when revoking a revoked witness
	ErrWitnessAlreadyRevoked = errors.New("witness already revoked")

	// ErrInvalidIntent is returned when a notification intent fails validation
	ErrInvalidIntent = errors.New("invalid notification intent")
)

// InvalidIdentifierError reports a malformed registrant identifier
type InvalidIdentifierError struct {
	Identifier string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: expected 0x followed by 40 hex characters", e.Identifier)
}

// MissingFieldError lists every absent required field
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// InvalidContactError reports a contact that is present but not a deliverable address
type InvalidContactError struct {
	Contact string
	Err     error
}

func (e *InvalidContactError) Error() string {
	return fmt.Sprintf("invalid contact %q: %v", e.Contact, e.Err)
}

func (e *InvalidContactError) Unwrap() error {
	return e.Err
}

// AllocationError is returned once allocation retries are exhausted
type AllocationError struct {
	Attempts int
	Err      error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("sequence allocation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// NotificationDeliveryError wraps a transport failure. It is recorded on the
// notification log and never propagated to the registration path.
type NotificationDeliveryError struct {
	Kind NotificationKind
	Err  error
}

func (e *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver %s notification: %v", e.Kind, e.Err)
}

func (e *NotificationDeliveryError) Unwrap() error {
	return e.Err
}
