package model

import "time"

// InsecureDefaultSecret is used when no signing secret is configured.
// It must never be used in production.
const InsecureDefaultSecret = "insecure-default-secret-change-me"

// AccessToken is an issued bearer token. It is never persisted.
type AccessToken struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager issues and validates access tokens.
type TokenManager interface {
	Issue(subject string, ttl time.Duration) (AccessToken, error)
	Validate(token string) (string, error)
}
