package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleAdmin manages accounts and reads the audit trail.
	RoleAdmin Role = "Admin"

	// RoleExaminer is a forensic examiner. Default for new accounts.
	RoleExaminer Role = "Examiner"

	// RoleAssistant supports examiners with evidence intake.
	RoleAssistant Role = "Assistant"
)

// ValidRoles is the closed set of account roles.
var ValidRoles = []Role{RoleAdmin, RoleExaminer, RoleAssistant}

// ParseRole converts a raw role string into a Role, ignoring case and
// surrounding whitespace. An empty string yields RoleExaminer.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleExaminer, nil
	}
	for _, r := range ValidRoles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Valid reports whether r is one of ValidRoles.
func (r Role) Valid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents an account. The password hash never leaves the process.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated actor behind a request.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

// NormaliseEmail trims and lower-cases an address before any store access.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
