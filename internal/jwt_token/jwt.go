// Package jwttoken issues and validates the signed identity tokens that
// carry {userID, role} into every authorized request.
package jwttoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"aegis/internal/platform/middleware"
	"aegis/internal/rbac"
	dErrors "aegis/pkg/domain-errors"
)

const issuer = "aegis"

// AccessTokenClaims are the JWT claims for access tokens. The role claim is
// re-validated against the known role set on every request.
type AccessTokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	tokenTTL   time.Duration
}

// NewService builds a token service with an HS256 signing key.
func NewService(signingKey string, tokenTTL time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
	}
}

// Generate issues a signed access token for the user.
func (s *Service) Generate(userID string, role rbac.Role) (string, error) {
	now := time.Now()
	claims := AccessTokenClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string, returning the claims the
// auth middleware cares about. Implements middleware.TokenValidator.
func (s *Service) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing subject")
	}

	return &middleware.TokenClaims{
		UserID: claims.Subject,
		Role:   claims.Role,
		JTI:    claims.ID,
	}, nil
}
