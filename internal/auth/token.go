package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService mints and validates HS256 tokens for the jobs API
type TokenService struct {
	secretKey []byte
}

// NewTokenService creates a token service for secret
func NewTokenService(secret string) *TokenService {
	return &TokenService{secretKey: []byte(secret)}
}

// Generate signs a jobs token for subject valid for ttl
func (s *TokenService) Generate(subject string, ttl time.Duration) (string, error) {
	if len(s.secretKey) == 0 {
		return "", errors.New("no signing secret configured")
	}
	now := time.Now()
	claims := JobsClaims{
		Scope: ScopeJobs,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate parses tokenString and checks signature, expiry and scope
func (s *TokenService) Validate(tokenString string) (*JobsClaims, error) {
	if len(s.secretKey) == 0 {
		return nil, errors.New("no signing secret configured")
	}

	claims := &JobsClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Scope != ScopeJobs {
		return nil, fmt.Errorf("token scope %q not allowed", claims.Scope)
	}
	if claims.Subject == "" {
		return nil, errors.New("missing sub claim")
	}
	return claims, nil
}
