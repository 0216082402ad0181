// Package validation provides server-side input validation for user-facing
// requests. Errors are field-scoped so handlers can return them verbatim in
// the {errors: {field: [messages]}} envelope.
package validation

import (
	"regexp"
	"strings"
)

// minNameLength applies to both first and last name.
const minNameLength = 2

var (
	emailRegex       = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	upperRegex       = regexp.MustCompile(`[A-Z]`)
	lowerRegex       = regexp.MustCompile(`[a-z]`)
	digitRegex       = regexp.MustCompile(`\d`)
	specialCharRegex = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// RegistrationInput holds raw registration fields prior to validation.
type RegistrationInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// NormalizeEmail lowercases and trims an email address. Every email
// comparison in the system goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword checks password strength.
// Returns one message per violated rule, empty when the password is valid.
func ValidatePassword(password string) []string {
	var errs []string

	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	if !upperRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !lowerRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !digitRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one number")
	}
	if !specialCharRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one special character")
	}

	return errs
}

// ValidateRegistration validates all registration fields.
// Returns a map of field name to error messages; empty map means valid.
func ValidateRegistration(input RegistrationInput) map[string][]string {
	errs := make(map[string][]string)

	email := NormalizeEmail(input.Email)
	if email == "" {
		errs["email"] = []string{"Email is required"}
	} else if !emailRegex.MatchString(email) {
		errs["email"] = []string{"Invalid email address"}
	}

	if input.Password == "" {
		errs["password"] = []string{"Password is required"}
	} else if passwordErrs := ValidatePassword(input.Password); len(passwordErrs) > 0 {
		errs["password"] = passwordErrs
	}

	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		errs["first_name"] = []string{"First name is required"}
	} else if len(firstName) < minNameLength {
		errs["first_name"] = []string{"First name must be at least 2 characters long"}
	}

	lastName := strings.TrimSpace(input.LastName)
	if lastName == "" {
		errs["last_name"] = []string{"Last name is required"}
	} else if len(lastName) < minNameLength {
		errs["last_name"] = []string{"Last name must be at least 2 characters long"}
	}

	return errs
}
