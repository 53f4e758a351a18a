// Package auth provides authentication and authorization functionality.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"norelock.dev/mixtape/backend/internal/models"
	"norelock.dev/mixtape/backend/internal/utils"
)

// JWT errors
var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token has expired")
	ErrTokenGeneration = errors.New("failed to generate token")
	ErrInvalidClaims   = errors.New("invalid token claims")
)

// JWTConfig contains configuration for the JWT provider.
type JWTConfig struct {
	// Secret is the signing key for JWTs.
	Secret string `yaml:"secret" validate:"required"`

	// Issuer is the issuer of the JWT.
	Issuer string `yaml:"issuer" validate:"required"`

	// Audience is the audience of the JWT.
	Audience string `yaml:"audience" validate:"required"`

	// AccessTokenDuration is the duration for which access tokens are valid.
	AccessTokenDuration time.Duration `yaml:"accessTokenDuration" validate:"required"`

	// RefreshTokenDuration is the duration for which refresh tokens are valid.
	RefreshTokenDuration time.Duration `yaml:"refreshTokenDuration" validate:"required"`
}

// JWTClaims extends the standard JWT claims with custom fields.
type JWTClaims struct {
	// BaseClaims embeds the base claims.
	BaseClaims

	// StandardClaims contains the standard JWT claims.
	jwt.RegisteredClaims
}

// JWTProvider implements the Provider interface using JWT.
type JWTProvider struct {
	config    JWTConfig
	validator *jwt.Validator
	logger    *utils.Logger
}

// NewJWTProvider creates a new JWT provider.
func NewJWTProvider(config JWTConfig, logger *utils.Logger) *JWTProvider {
	return &JWTProvider{
		config:    config,
		validator: jwt.NewValidator(jwt.WithLeeway(time.Second)),
		logger:    logger.Named("jwt_provider"),
	}
}

// GenerateToken creates a new JWT token for a user.
func (p *JWTProvider) GenerateToken(userID, username string, role models.Role) (string, error) {
	now := time.Now()
	expiresAt := now.Add(p.config.AccessTokenDuration)

	claims := JWTClaims{
		BaseClaims: BaseClaims{
			UserID:   userID,
			Username: username,
			Role:     role.String(),
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.config.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{p.config.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        fmt.Sprintf("%d", now.UnixNano()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(p.config.Secret))
	if err != nil {
		p.logger.Error("Failed to sign JWT token", err, "userId", userID)
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (p *JWTProvider) ValidateToken(tokenString string) (*Claims, error) {
	parsed := JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// The signature checked out but the token is expired. Return the
			// claims so refresh can reuse them without re-authentication.
			return &Claims{
				BaseClaims:     parsed.BaseClaims,
				StandardClaims: parsed.RegisteredClaims,
			}, ErrExpiredToken
		}
		p.logger.Error("Failed to parse JWT token", err)
		return nil, ErrInvalidToken
	}

	if token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	// Validate the claims
	if err := p.validator.Validate(&parsed); err != nil {
		p.logger.Error("Failed to validate JWT token", err)
		return nil, ErrInvalidToken
	}

	// Reject tokens carrying a role the application does not know
	if _, err := models.ParseRole(parsed.Role); err != nil {
		p.logger.Error("JWT token carries unknown role", err, "role", parsed.Role)
		return nil, ErrInvalidClaims
	}

	return &Claims{
		BaseClaims:     parsed.BaseClaims,
		StandardClaims: parsed.RegisteredClaims,
	}, nil
}

// RefreshToken refreshes a JWT token.
func (p *JWTProvider) RefreshToken(tokenString string) (string, error) {
	claims, err := p.ValidateToken(tokenString)

	if err != nil && !errors.Is(err, ErrExpiredToken) {
		// Token is invalid for a reason other than expiry, reject it
		return "", err
	}

	if claims == nil {
		return "", ErrInvalidToken
	}

	role, roleErr := models.ParseRole(claims.Role)
	if roleErr != nil {
		return "", ErrInvalidClaims
	}

	// Generate a new token with the same claims but new expiration
	return p.GenerateToken(claims.UserID, claims.Username, role)
}

// GetUserIDFromToken extracts the user ID from a token.
func (p *JWTProvider) GetUserIDFromToken(tokenString string) (string, error) {
	claims, err := p.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// GetUserRoleFromToken extracts the user role from a token.
func (p *JWTProvider) GetUserRoleFromToken(tokenString string) (models.Role, error) {
	claims, err := p.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return models.ParseRole(claims.Role)
}
