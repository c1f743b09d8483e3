package auth

import (
	"strings"

	"github.com/heartmarshall/civic-client/internal/domain"
)

const fillAllFields = "Please fill in all fields"

// LoginInput holds parameters for the login operation.
type LoginInput struct {
	Username string
	Password string
}

// Validate validates the login input.
func (i LoginInput) Validate() error {
	return validateCredentials(i.Username, i.Password)
}

// RegisterInput holds parameters for the registration operation.
type RegisterInput struct {
	Username string
	Password string
	// ConfirmPassword is checked only when set.
	ConfirmPassword string
}

// Validate validates the registration input.
func (i RegisterInput) Validate() error {
	if err := validateCredentials(i.Username, i.Password); err != nil {
		return err
	}
	if i.ConfirmPassword != "" && i.ConfirmPassword != i.Password {
		return domain.NewValidationError("confirm_password", "Passwords do not match")
	}
	return nil
}

func validateCredentials(username, password string) error {
	var errs []domain.FieldError

	if strings.TrimSpace(username) == "" {
		errs = append(errs, domain.FieldError{Field: "username", Message: fillAllFields})
	} else if len(username) > 150 {
		errs = append(errs, domain.FieldError{Field: "username", Message: "username is too long"})
	}

	if strings.TrimSpace(password) == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: fillAllFields})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
