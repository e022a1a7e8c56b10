package identity

import (
	"slices"
	"strings"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// Credential is a permanent credential presented at login or upgrade.
// Google uses Code; password uses Email and Password.
type Credential struct {
	Method   domain.AuthMethodType
	Code     string
	Email    string
	Password string
	Name     string
}

// normalize trims the credential and lowercases the email.
func (c Credential) normalize() Credential {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Name = strings.TrimSpace(c.Name)
	return c
}

// Validate validates the credential against the enabled credential kinds.
func (c Credential) Validate(allowed []string) error {
	var errs []domain.FieldError

	switch {
	case c.Method == "":
		errs = append(errs, domain.FieldError{Field: "method", Message: "required"})
	case !c.Method.IsPermanent() || !slices.Contains(allowed, string(c.Method)):
		errs = append(errs, domain.FieldError{Field: "method", Message: "unsupported method"})
	case c.Method == domain.AuthMethodGoogle:
		if c.Code == "" {
			errs = append(errs, domain.FieldError{Field: "code", Message: "required"})
		} else if len(c.Code) > 4096 {
			errs = append(errs, domain.FieldError{Field: "code", Message: "too long"})
		}
	case c.Method == domain.AuthMethodPassword:
		if c.Email == "" {
			errs = append(errs, domain.FieldError{Field: "email", Message: "required"})
		} else if len(c.Email) > 254 || !strings.Contains(c.Email, "@") {
			errs = append(errs, domain.FieldError{Field: "email", Message: "invalid email"})
		}
		if len(c.Password) < 8 {
			errs = append(errs, domain.FieldError{Field: "password", Message: "must be at least 8 characters"})
		} else if len(c.Password) > 72 {
			errs = append(errs, domain.FieldError{Field: "password", Message: "must be at most 72 bytes"})
		}
	}

	if len(c.Name) > 255 {
		errs = append(errs, domain.FieldError{Field: "name", Message: "too long"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
