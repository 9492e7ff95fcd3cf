package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/tdex-network/barter-daemon/internal/core/ports"
)

const (
	// Issuer is the issuer claim of every token.
	Issuer = "barterd"
	// DefaultTokenExpiry is the lifetime of a token if not otherwise
	// specified.
	DefaultTokenExpiry = 7 * 24 * time.Hour
)

var (
	// ErrInvalidToken is returned if a token is malformed, expired or not
	// signed with the expected secret.
	ErrInvalidToken = errors.New("invalid token")
)

type tokenManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager returns a ports.TokenManager issuing HS256 JWTs signed
// with the given secret.
func NewTokenManager(secret string, expiry time.Duration) (ports.TokenManager, error) {
	return newTokenManager(secret, expiry, time.Now)
}

func newTokenManager(
	secret string, expiry time.Duration, now func() time.Time,
) (*tokenManager, error) {
	if len(secret) <= 0 {
		return nil, fmt.Errorf("missing token secret")
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &tokenManager{[]byte(secret), expiry, now}, nil
}

func (m *tokenManager) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("missing user id")
	}

	now := m.now()
	claims := jwt.StandardClaims{
		Subject:   userID,
		Issuer:    Issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) Verify(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf(
					"unexpected signing method %v", token.Header["alg"],
				)
			}
			return m.secret, nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || claims.Issuer != Issuer {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
