package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func validateName(ve *ValidationError, name string) {
	if strings.TrimSpace(name) == "" {
		ve.add("name", "is required")
	}
}

func validateEmail(ve *ValidationError, email string) {
	if !emailPattern.MatchString(email) {
		ve.add("email", "must be a valid email address")
	}
}

func validatePassword(ve *ValidationError, password string) {
	switch {
	case utf8.RuneCountInString(password) < MinPasswordLength:
		ve.add("password", "must be at least 6 characters")
	case len(password) > MaxPasswordBytes:
		ve.add("password", "must be at most 72 bytes")
	}
}
