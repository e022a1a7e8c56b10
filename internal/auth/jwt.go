package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is what an access token asserts about its bearer.
type Claims struct {
	IdentityID uuid.UUID
	Anonymous  bool
	ExpiresAt  time.Time
}

// JWTManager handles JWT access token generation and validation.
type JWTManager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewJWTManager creates a new JWT manager.
// secret must be at least 32 characters for HS256 security.
func NewJWTManager(secret string, issuer string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// accessClaims extends standard JWT claims with the anonymous flag.
type accessClaims struct {
	jwt.RegisteredClaims
	Anon bool `json:"anon"`
}

// GenerateAccessToken creates a signed HS256 JWT with the identity ID as
// subject and the anonymous flag as a custom claim.
func (m *JWTManager) GenerateAccessToken(identityID uuid.UUID, anonymous bool) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID.String(),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Anon: anonymous,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken parses and validates a JWT access token.
func (m *JWTManager) ValidateAccessToken(tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())

	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return Claims{}, fmt.Errorf("invalid token claims")
	}

	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Claims{}, fmt.Errorf("invalid subject UUID: %w", err)
	}

	return Claims{
		IdentityID: identityID,
		Anonymous:  claims.Anon,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
