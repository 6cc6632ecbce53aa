package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lborres/silid/core"
)

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateInput runs struct tag validation and reports the first failure as
// one of the core validation errors.
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", core.ErrInvalidRequestBody, err)
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return core.ErrEmailRequired
		}
		return core.ErrInvalidEmail
	case "Password", "OldPassword", "NewPassword":
		return core.ErrPasswordRequired
	case "Name":
		if fe.Tag() == "required" {
			return core.ErrNameRequired
		}
	}
	return fmt.Errorf("%w: %s failed %q", core.ErrInvalidProfileField, fe.Field(), fe.Tag())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// profileFromInput converts the optional registration fields.
func profileFromInput(input core.RegisterInput) (core.Profile, error) {
	profile := core.Profile{
		Bio:          trimmed(input.Bio),
		Phone:        trimmed(input.Phone),
		Gender:       trimmed(input.Gender),
		Country:      trimmed(input.Country),
		ProfileImage: trimmed(input.ProfileImage),
	}

	if dob := trimmed(input.DateOfBirth); dob != nil {
		parsed, err := time.Parse(core.DateLayout, *dob)
		if err != nil {
			return core.Profile{}, fmt.Errorf("%w: dateOfBirth must be YYYY-MM-DD", core.ErrInvalidProfileField)
		}
		profile.DateOfBirth = &parsed
	}

	return profile, nil
}
