package domain

import "time"

// Challenge represents an OTP challenge for a phone number. Only the code
// hash is stored, never the plain code. At most one active challenge exists
// per phone; issuing a new one supersedes the prior.
type Challenge struct {
	ID                string
	Phone             string // canonical form
	CodeHash          string
	IssuedAt          time.Time
	ExpiresAt         time.Time
	AttemptsRemaining int
	Consumed          bool
}

// Active reports whether the challenge can still be verified: not consumed
// and not expired. Expiry is now >= ExpiresAt, never exact equality.
func (c *Challenge) Active(now time.Time) bool {
	return !c.Consumed && now.Before(c.ExpiresAt)
}
