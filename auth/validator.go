package auth

import (
	"fmt"
	"room-lab/errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest is a new account. Name becomes the display name carried by the
// identity token, so it is shown to every room the user joins live.
type RegisterRequest struct {
	Email    string `validate:"required,email,max=254"`
	Name     string `validate:"required,max=100"`
	Password string `validate:"required,min=12,max=72"`
}

// ValidateRegister enforces the account rules before anything is hashed or stored.
// Password problems are ErrInvalidPassword, any other field is ErrInvalidRequest.
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && fields[0].Field() == "Password" {
			return fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
		}
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if err := validateDisplayName(req.Name); err != nil {
		return err
	}
	if missing := missingPasswordClasses(req.Password); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", errors.ErrInvalidPassword, strings.Join(missing, ", "))
	}
	return nil
}

// A blank or control-laden name would reach live events as is.
func validateDisplayName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: display name is blank", errors.ErrInvalidRequest)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: display name contains control characters", errors.ErrInvalidRequest)
	}
	return nil
}

var passwordClasses = []struct {
	name string
	in   func(r rune) bool
}{
	{"uppercase letter", unicode.IsUpper},
	{"lowercase letter", unicode.IsLower},
	{"digit", unicode.IsNumber},
	{"special character", func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }},
}

func missingPasswordClasses(password string) []string {
	var missing []string
	for _, class := range passwordClasses {
		if strings.IndexFunc(password, class.in) < 0 {
			missing = append(missing, class.name)
		}
	}
	return missing
}
