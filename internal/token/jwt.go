package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/accounts-server/internal/model"
)

var (
	ErrMalformed        = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired")
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "HS256"

var methods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// SupportedAlgorithm reports whether alg can sign access tokens.
func SupportedAlgorithm(alg string) bool {
	_, ok := methods[alg]
	return ok
}

// Option customises a JWT manager.
type Option func(*JWT)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

// JWT implements TokenManager backed by symmetric HMAC. It keeps no
// server-side state: a token stays valid until it expires.
type JWT struct {
	secretKey []byte
	method    *jwt.SigningMethodHMAC
	now       func() time.Time
}

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a token manager. An empty secret falls back to
// model.InsecureDefaultSecret; configuration validation rejects that in production.
func NewJWT(secretKey, algorithm string, opts ...Option) (*JWT, error) {
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	method, ok := methods[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", algorithm)
	}
	if secretKey == "" {
		secretKey = model.InsecureDefaultSecret
	}

	j := &JWT{
		secretKey: []byte(secretKey),
		method:    method,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// Issue signs a token for subject that expires ttl from now.
func (j *JWT) Issue(subject string, ttl time.Duration) (model.AccessToken, error) {
	now := j.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(j.method, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return model.AccessToken{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return model.AccessToken{
		Token:     tokenString,
		Subject:   subject,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Validate checks the signature, then expiry, and returns the subject.
// A token is expired once now >= exp.
func (j *JWT) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return "", classify(err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
