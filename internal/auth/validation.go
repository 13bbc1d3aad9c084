package auth

import "regexp"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if an email is plausibly valid.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email) && len(email) < 255
}

// ValidatePassword enforces the minimum password length. Complexity beyond
// length is left to the client.
func ValidatePassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72
}
