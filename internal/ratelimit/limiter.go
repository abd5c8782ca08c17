// Package ratelimit provides sliding-window request limits keyed by client
// identity and route class.
package ratelimit

import "time"

// Class identifies a group of routes sharing one ceiling. Keys are counted
// independently per class.
type Class string

const (
	ClassOTPRequest Class = "otp-request"
	ClassOTPVerify  Class = "otp-verify"
	ClassRegister   Class = "register"
	ClassMutation   Class = "authenticated-mutation"
)

// Limit is the ceiling for one class: at most Max operations per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Decision is the outcome of a limit check. Over-limit is an expected
// outcome, not an error: RetryAfter tells the caller when the window resets.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter checks whether an operation identified by key is within the limit
// for its route class.
type Limiter interface {
	Check(key string, class Class) Decision
}
