package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/domain"
)

// Signer produces HMAC-SHA256 signed notification payloads for the relay
type Signer struct {
	secret []byte
	json   adapter.JSON
	jcs    adapter.JCS
}

// NewSigner creates a new signer
func NewSigner(secret string, jsonAdapter adapter.JSON, jcsAdapter adapter.JCS) *Signer {
	return &Signer{
		secret: []byte(secret),
		json:   jsonAdapter,
		jcs:    jcsAdapter,
	}
}

// Sign serializes the message to canonical JSON (RFC 8785) and signs
// "{timestamp}.{event_id}.{body}" so the relay can check freshness, deduplicate
// and verify integrity
func (s *Signer) Sign(msg *domain.NotificationMessage, now time.Time) (SignedPayload, error) {
	raw, err := s.json.Marshal(msg)
	if err != nil {
		return SignedPayload{}, fmt.Errorf("failed to marshal notification: %w", err)
	}

	body, err := s.jcs.Transform(raw)
	if err != nil {
		return SignedPayload{}, fmt.Errorf("failed to canonicalize notification: %w", err)
	}

	timestamp := now.Unix()
	return SignedPayload{
		Body:      body,
		Signature: ComputeSignature(s.secret, timestamp, msg.EventID, body),
		Timestamp: timestamp,
		EventID:   msg.EventID,
	}, nil
}

// ComputeSignature returns the signature header value for a body
func ComputeSignature(secret []byte, timestamp int64, eventID string, body []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(fmt.Sprintf("%d.%s.", timestamp, eventID)))
	h.Write(body)
	return SignaturePrefix + hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature header against the body, rejecting timestamps
// further than tolerance from now
func Verify(secret []byte, signature string, timestamp int64, eventID string, body []byte, now time.Time, tolerance time.Duration) error {
	age := now.Sub(time.Unix(timestamp, 0))
	if age < 0 {
		age = -age
	}
	if tolerance > 0 && age > tolerance {
		return fmt.Errorf("signature timestamp outside tolerance: %s", age)
	}

	expected := ComputeSignature(secret, timestamp, eventID, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

func formatTimestamp(ts int64) string {
	return strconv.FormatInt(ts, 10)
}
