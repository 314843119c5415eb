package utils

import (
	"regexp"
	"strings"
)

const MinPasswordLength = 6

// Same shape as the address pattern used by the mobile client.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9+._%\-]{1,256}@[a-zA-Z0-9][a-zA-Z0-9\-]{0,64}(\.[a-zA-Z0-9][a-zA-Z0-9\-]{0,25})+$`)

// IsValidEmail checks the address format only; it does not resolve the domain.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// NormalizeEmail converts an email to lowercase for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
