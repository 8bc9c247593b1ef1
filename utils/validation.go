package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateChecklistName checks a checklist name supplied outside of request
// binding (clone names, CLI input).
func ValidateChecklistName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("checklist name cannot be empty")
	}

	if !utf8.ValidString(name) {
		return fmt.Errorf("checklist name contains invalid UTF-8 characters")
	}

	if strings.ContainsRune(name, '\x00') {
		return fmt.Errorf("checklist name contains invalid character: NUL")
	}

	return nil
}

// Email validation
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}
