package models

import (
	"time"
)

// CodeLength is the fixed width of a one-time verification code. Codes are
// stored as strings so leading zeros survive.
const CodeLength = 6

// VerificationCode is a single-use, time-boxed code bound to an admin email.
// At most one live code exists per email; issuing a new one replaces it.
type VerificationCode struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the code is past its expiry instant.
func (c *VerificationCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
