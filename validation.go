package auth

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	hasLetterPattern  = regexp.MustCompile(`[A-Za-z]`)
	hasDigitPattern   = regexp.MustCompile(`\d`)
	minPasswordLength = 8
)

// NormalizeEmail trims and lower cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Credentials is the request body of register and login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalized returns a copy with the email normalized. The password is
// never altered.
func (c Credentials) Normalized() Credentials {
	c.Email = NormalizeEmail(c.Email)
	return c
}

// ValidateLogin checks presence and email shape. The password policy is
// not applied on login.
func (c Credentials) ValidateLogin() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
	if err != nil {
		return ErrMissingCredentials
	}

	if err := validation.Validate(c.Email, validation.Match(emailPattern)); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateRegistration applies the login checks and then the password
// policy, returning the first failure.
func (c Credentials) ValidateRegistration() error {
	if err := c.ValidateLogin(); err != nil {
		return err
	}

	err := validation.Validate(c.Password,
		validation.Length(minPasswordLength, 0),
		validation.Match(hasLetterPattern),
		validation.Match(hasDigitPattern),
	)
	if err != nil {
		return ErrWeakPassword
	}

	if len(c.Password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	return nil
}
