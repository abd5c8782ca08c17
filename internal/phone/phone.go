// Package phone normalizes Thai mobile numbers into a single canonical form.
package phone

import (
	"fmt"
	"strings"
)

// Canonical numbers are "66" followed by a 9-digit subscriber number,
// e.g. "66812345678". Accepted input forms: "0812345678", "66812345678",
// "+66812345678", with spaces, dashes, dots, or parentheses as separators.
const (
	countryCode      = "66"
	subscriberDigits = 9
	canonicalLen     = len(countryCode) + subscriberDigits
)

// ValidationError reports malformed phone input. Handlers map it to HTTP 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid phone number: %s", e.Reason)
}

// Normalize returns the canonical form of a Thai mobile number.
// Normalization is pure and idempotent: Normalize(Normalize(x)) == Normalize(x).
// Returns *ValidationError for empty, malformed, wrong-length, or
// non-mobile input.
func Normalize(raw string) (string, error) {
	s := stripSeparators(raw)
	if s == "" {
		return "", &ValidationError{Reason: "empty"}
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", &ValidationError{Reason: "contains non-digit characters"}
		}
	}

	var subscriber string
	switch {
	case strings.HasPrefix(s, countryCode) && len(s) == canonicalLen:
		subscriber = s[len(countryCode):]
	case strings.HasPrefix(s, "0") && len(s) == subscriberDigits+1:
		subscriber = s[1:]
	case len(s) < subscriberDigits+1:
		return "", &ValidationError{Reason: "too short"}
	case len(s) > canonicalLen:
		return "", &ValidationError{Reason: "too long"}
	default:
		return "", &ValidationError{Reason: "unrecognized prefix"}
	}

	// Thai mobile ranges are 06x, 08x, 09x; the subscriber part therefore
	// starts with 6, 8, or 9.
	switch subscriber[0] {
	case '6', '8', '9':
	default:
		return "", &ValidationError{Reason: "not a mobile number"}
	}
	return countryCode + subscriber, nil
}

func stripSeparators(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case ' ', '-', '.', '(', ')':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
