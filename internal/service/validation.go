package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72

	// Column widths of the users table.
	MaxFullNameLength = 100
	MaxEmailLength    = 100
	MaxPhoneLength    = 20
)

const (
	msgAllFieldsRequired = "All fields are required"
	msgInvalidEmail      = "Invalid email format"
	msgInvalidPhone      = "Invalid phone number format"
	msgInvalidRole       = "Invalid role"
	msgFullNameTooLong   = "Full name must be at most 100 characters long"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
)

// NormalizeEmail returns the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidEmail(email string) bool {
	return utf8.RuneCountInString(email) <= MaxEmailLength && emailPattern.MatchString(email)
}

func ValidPhone(phone string) bool {
	return utf8.RuneCountInString(phone) <= MaxPhoneLength && phonePattern.MatchString(phone)
}

func checkFullName(fullName string) error {
	if utf8.RuneCountInString(fullName) > MaxFullNameLength {
		return invalid(msgFullNameTooLong)
	}
	return nil
}

// checkPassword enforces the length rules; prefix is "Password" or "New password".
func checkPassword(password, prefix string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return invalid(prefix + " must be at least 8 characters long")
	}
	if len(password) > MaxPasswordBytes {
		return invalid(prefix + " must be at most 72 bytes long")
	}
	return nil
}

func anyBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
