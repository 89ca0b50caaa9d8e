package types

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// StringPtr converts a string to a pointer to a string
func StringPtr(s string) *string {
	return &s
}

// StringNilOrEmpty checks if a pointer to a string is nil or empty
func StringNilOrEmpty(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// SafeString returns a safe string from a pointer to a string
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsEthereumAddress checks if a string is a 0x-prefixed, 40 hex digit address.
// The prefix is mandatory, unlike common.IsHexAddress.
func IsEthereumAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	return common.IsHexAddress(s)
}

// NormalizeAddress trims and lower-cases an address
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
