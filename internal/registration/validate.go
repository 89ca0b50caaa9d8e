package registration

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/types"
)

// Required field names as they appear on the wire
const (
	FieldIdentifier = "identifier"
	FieldProofHash  = "proofHash"
	FieldSignedAt   = "signedAt"
)

// RegisterInput is a registration request before validation
type RegisterInput struct {
	Identifier string
	Contact    *string
	ProofHash  string
	BlockRef   *uint64
	// SignedAt is nil when the caller omitted it
	SignedAt *time.Time
	// Preferences is nil when the caller omitted it, which opts into everything
	Preferences *domain.NotificationPreferences
}

// ValidatedInput is a normalized registration request
type ValidatedInput struct {
	Identifier  string
	Contact     *string
	ProofHash   string
	BlockRef    *uint64
	SignedAt    time.Time
	Preferences domain.NotificationPreferences
}

// Validate normalizes a registration request. It reports every missing required
// field at once, then a malformed identifier, then an undeliverable contact.
func Validate(input RegisterInput) (*ValidatedInput, error) {
	identifier := types.NormalizeAddress(input.Identifier)
	proofHash := strings.TrimSpace(input.ProofHash)

	var missing []string
	if identifier == "" {
		missing = append(missing, FieldIdentifier)
	}
	if proofHash == "" {
		missing = append(missing, FieldProofHash)
	}
	if input.SignedAt == nil || input.SignedAt.IsZero() {
		missing = append(missing, FieldSignedAt)
	}
	if len(missing) > 0 {
		return nil, &domain.MissingFieldError{Fields: missing}
	}

	if !types.IsEthereumAddress(identifier) {
		return nil, &domain.InvalidIdentifierError{Identifier: input.Identifier}
	}

	contact, err := normalizeContact(input.Contact)
	if err != nil {
		return nil, err
	}

	preferences := domain.DefaultNotificationPreferences()
	if input.Preferences != nil {
		preferences = *input.Preferences
	}

	return &ValidatedInput{
		Identifier:  identifier,
		Contact:     contact,
		ProofHash:   proofHash,
		BlockRef:    input.BlockRef,
		SignedAt:    input.SignedAt.UTC(),
		Preferences: preferences,
	}, nil
}

// normalizeContact accepts a bare email address; blank means no contact
func normalizeContact(contact *string) (*string, error) {
	if types.StringNilOrEmpty(contact) {
		return nil, nil
	}

	trimmed := strings.TrimSpace(*contact)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return nil, &domain.InvalidContactError{Contact: trimmed, Err: err}
	}
	if addr.Address != trimmed {
		return nil, &domain.InvalidContactError{Contact: trimmed, Err: errors.New("expected a bare email address")}
	}

	return &trimmed, nil
}
