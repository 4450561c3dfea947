package models

import (
	"fmt"
	"time"
)

// Role tags the identity variant. The set is closed; a role never changes
// after creation.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Roles lists every variant in resolution priority order: student lookups are
// the most frequent, so ambiguous lookups check students first.
var Roles = []Role{RoleStudent, RoleFaculty, RoleAdmin}

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedRole, s)
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Identity is a credentialed principal in one of the three variants. All
// variants share the same shape; profile fields not applicable to a variant
// stay empty.
type Identity struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Department   string    `json:"department,omitempty"` // students and faculty
	Year         int       `json:"year,omitempty"`       // students
	Title        string    `json:"title,omitempty"`      // faculty
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	PasswordChangedAt *time.Time `json:"-"`
}

// Sanitized returns a copy with the credential hash stripped. Anything that
// leaves the login path (request context, HTTP responses) carries this copy.
func (i *Identity) Sanitized() *Identity {
	c := *i
	c.PasswordHash = ""
	c.PasswordChangedAt = nil
	return &c
}
