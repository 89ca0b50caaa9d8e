package webhook

// Headers sent with every relay delivery
const (
	// HeaderSignature carries "sha256=<hex hmac>"
	HeaderSignature = "X-Covenant-Signature"
	// HeaderTimestamp carries the unix timestamp that was signed
	HeaderTimestamp = "X-Covenant-Timestamp"
	// HeaderEventID carries the notification event ID for deduplication
	HeaderEventID = "X-Covenant-Event-Id"
	// HeaderContentType is always application/json
	HeaderContentType = "Content-Type"
)

// SignaturePrefix names the algorithm in the signature header
const SignaturePrefix = "sha256="

// SignedPayload is a canonical body plus the values that go in the headers
type SignedPayload struct {
	Body      []byte
	Signature string
	Timestamp int64
	EventID   string
}

// Headers returns the HTTP headers for the signed payload
func (p SignedPayload) Headers() map[string]string {
	return map[string]string{
		HeaderContentType: "application/json",
		HeaderSignature:   p.Signature,
		HeaderTimestamp:   formatTimestamp(p.Timestamp),
		HeaderEventID:     p.EventID,
	}
}
