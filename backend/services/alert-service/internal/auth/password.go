package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier checks operator passwords against a stored bcrypt hash.
type PasswordVerifier interface {
	Verify(hash, password string) error
}

// BcryptVerifier implements PasswordVerifier and produces hashes for the operator config.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier returns verifier; cost 0 selects bcrypt.DefaultCost.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// HashPassword returns the value to put into ALERT_OPERATOR_PASSWORD_HASH.
func (v *BcryptVerifier) HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify returns ErrInvalidCredentials on mismatch. A malformed hash is a configuration
// error and is reported as such.
func (v *BcryptVerifier) Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("operator password hash: %w", err)
	}
}
