// Package auth turns bearer credentials into principals. Tokens are issued by
// the platform's login service; this service only verifies them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princekumarofficial/course-admin-service/internal/types"
)

var ErrUnauthorized = errors.New("unauthorized")

type Resolver interface {
	Resolve(ctx context.Context, credential string) (types.Principal, error)
}

// Claims carried by platform tokens
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type JWTResolver struct {
	secret []byte
}

var _ Resolver = (*JWTResolver)(nil)

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Resolve validates an HS256 token and returns the subject and role
func (r *JWTResolver) Resolve(_ context.Context, credential string) (types.Principal, error) {
	if credential == "" {
		return types.Principal{}, fmt.Errorf("%w: token not provided", ErrUnauthorized)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return types.Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return types.Principal{}, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	return types.Principal{UserID: claims.Subject, Role: claims.Role}, nil
}

// NewToken signs a token for userID. Used by tests and the dev tooling.
func NewToken(secret, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
