package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/roamio/roamio/pkg/errors"
)

// AdminRole is the role carried in tokens issued to host operators.
const AdminRole = "admin"

// Credentials verifies the configured host operator login. The password
// is stored as a bcrypt hash.
type Credentials struct {
	email        string
	passwordHash []byte
}

// NewCredentials creates a credential checker for the given email and
// bcrypt password hash.
func NewCredentials(email, passwordHash string) *Credentials {
	return &Credentials{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
	}
}

// Authenticate checks the given email and password against the
// configured credentials. The same error is returned for a wrong email
// and a wrong password so the response does not leak which one failed.
func (c *Credentials) Authenticate(email, password string) error {
	if strings.ToLower(strings.TrimSpace(email)) != c.email {
		return apperrors.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)); err != nil {
		return apperrors.Unauthorized("invalid email or password")
	}
	return nil
}

// HashPassword produces a bcrypt hash for the given plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
