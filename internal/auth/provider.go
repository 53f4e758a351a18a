// Package auth provides authentication and authorization functionality.
package auth

import (
	"norelock.dev/mixtape/backend/internal/models"
)

// Provider defines the interface for authentication operations.
type Provider interface {
	// HashPassword hashes a password for secure storage.
	HashPassword(password string) (string, error)

	// VerifyPassword checks if a password matches a hash.
	VerifyPassword(password, hash string) bool

	// GenerateToken creates a new JWT token for a user.
	GenerateToken(userID, username string, role models.Role) (string, error)

	// ValidateToken validates a JWT token and returns the claims.
	ValidateToken(token string) (*Claims, error)

	// RefreshToken refreshes a JWT token.
	RefreshToken(token string) (string, error)

	// GetUserIDFromToken extracts the user ID from a token.
	GetUserIDFromToken(token string) (string, error)

	// GetUserRoleFromToken extracts the user role from a token.
	GetUserRoleFromToken(token string) (models.Role, error)
}

// BaseClaims represents the base claims in a JWT token.
// These are used in the application.
type BaseClaims struct {
	// UserID is the ID of the user.
	UserID string `json:"userId"`

	// Username is the username of the user.
	Username string `json:"username"`

	// Role is the user's role.
	Role string `json:"role"`
}

// Claims represents the JWT claims.
type Claims struct {
	// BaseClaims embeds the base claims.
	BaseClaims

	// StandardClaims contains the standard JWT claims.
	StandardClaims any `json:"standardClaims"`
}
