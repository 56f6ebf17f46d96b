package types

import (
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
)

// ValidateEmail checks that s parses as a single email address.
func ValidateEmail(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("email is required")
	}
	if !strfmt.IsEmail(s) {
		return fmt.Errorf("invalid email %q", s)
	}
	return nil
}

// ValidateRequired rejects blank values for the named form field.
func ValidateRequired(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// ValidateRole accepts only the roles the API knows.
func ValidateRole(role string) error {
	switch role {
	case RoleUser, RoleAdmin:
		return nil
	default:
		return fmt.Errorf("invalid role %q: must be %q or %q", role, RoleUser, RoleAdmin)
	}
}

// ValidateCredentials checks a login/register form before submission.
func ValidateCredentials(c Credentials) error {
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}
	return ValidateRequired(c.Password, "password")
}

// ValidateSearchQuery enforces that a query has text or a file.
func ValidateSearchQuery(q SearchQuery) error {
	if !q.HasInput() {
		return fmt.Errorf("enter query text or choose a file")
	}
	if q.File != nil && q.File.Reader == nil {
		return fmt.Errorf("file %q has no content", q.File.Name)
	}
	return nil
}

// Validate is shorthand for ValidateSearchQuery(q).
func (q SearchQuery) Validate() error { return ValidateSearchQuery(q) }
