package errors

import (
	"encoding/json"
	"strings"
)

// ErrorCode is the value of the "error" field of every error body
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeInvalidIdentifier ErrorCode = "InvalidIdentifierError"
	ErrCodeMissingField      ErrorCode = "MissingFieldError"
	ErrCodeInvalidContact    ErrorCode = "InvalidContactError"
	ErrCodeInvalidRequest    ErrorCode = "InvalidRequestError"
	ErrCodeDuplicateWitness  ErrorCode = "DuplicateWitnessError"
	ErrCodeCapacityReached   ErrorCode = "CapacityReachedError"
	ErrCodeWitnessNotFound   ErrorCode = "WitnessNotFoundError"
	ErrCodeAlreadyRevoked    ErrorCode = "WitnessAlreadyRevokedError"
	ErrCodeUnauthorized      ErrorCode = "UnauthorizedError"

	// Server errors (5xx)
	ErrCodeAllocation    ErrorCode = "AllocationError"
	ErrCodeInternalError ErrorCode = "InternalError"
	ErrCodeUnavailable   ErrorCode = "ServiceUnavailableError"
)

// APIError is the error body returned by every endpoint
type APIError struct {
	Code    ErrorCode `json:"error"`
	Message string    `json:"message,omitempty"`
	// Fields names the offending request fields, when known
	Fields []string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// New creates an APIError with an optional message
func New(code ErrorCode, message ...string) *APIError {
	return &APIError{
		Code:    code,
		Message: strings.Join(message, ", "),
	}
}

// WithFields attaches the offending request fields
func (e *APIError) WithFields(fields ...string) *APIError {
	e.Fields = append(e.Fields, fields...)
	return e
}

func NewInvalidRequestError(message string, fields ...string) *APIError {
	return New(ErrCodeInvalidRequest, message).WithFields(fields...)
}

func NewNotFoundError(message string) *APIError {
	return New(ErrCodeWitnessNotFound, message)
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	if len(details) > 0 {
		message = message + ": " + strings.Join(details, ", ")
	}
	return New(ErrCodeUnauthorized, message)
}

func NewInternalError(message string) *APIError {
	return New(ErrCodeInternalError, message)
}
