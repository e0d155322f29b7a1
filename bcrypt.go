package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit; longer inputs are rejected
// instead of silently truncated.
const maxPasswordBytes = 72

// HashPassword will generate a password hash with the given cost
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost(cost))
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// BcryptVerifier is the default PasswordVerifier
type BcryptVerifier struct {
	cost   int
	logger Logger
}

var _ PasswordVerifier = (*BcryptVerifier)(nil)

// NewBcryptVerifier returns a verifier hashing at cost. Zero means DefaultBcryptCost.
func NewBcryptVerifier(cost int, logger Logger) *BcryptVerifier {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &BcryptVerifier{cost: cost, logger: logger}
}

func (v *BcryptVerifier) Hash(password string) (string, error) {
	return HashPassword(password, v.cost)
}

// Verify reports whether password matches hash. Malformed hashes are
// logged and treated as a mismatch.
func (v *BcryptVerifier) Verify(password, hash string) bool {
	if password == "" || len(password) > maxPasswordBytes {
		return false
	}
	err := ComparePasswordAndHash(password, hash)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrInvalidCredentials) {
		v.logger.Error("password hash comparison failed", "error", err)
	}
	return false
}
