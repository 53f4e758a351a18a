// Package auth provides authentication and authorization functionality.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"norelock.dev/mixtape/backend/internal/utils"
)

// bcrypt truncates input beyond 72 bytes, so longer passwords are rejected
// instead of silently weakened.
const maxPasswordBytes = 72

const hashCost = 12

// Password errors
var (
	ErrHashingPassword = errors.New("failed to hash password")
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)

// PasswordProvider implements password hashing and verification.
type PasswordProvider struct {
	logger *utils.Logger
}

// NewPasswordProvider creates a new password provider.
func NewPasswordProvider(logger *utils.Logger) *PasswordProvider {
	return &PasswordProvider{
		logger: logger.Named("password_provider"),
	}
}

// HashPassword hashes a password for secure storage.
func (p *PasswordProvider) HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		p.logger.Error("Failed to hash password", err)
		return "", ErrHashingPassword
	}
	return string(hashedBytes), nil
}

// VerifyPassword checks if a password matches a hash.
func (p *PasswordProvider) VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		p.logger.Debug("Password verification failed", "error", err)
		return false
	}
	return true
}
