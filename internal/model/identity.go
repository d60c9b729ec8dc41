package model

import "context"

// FederatedClaims are the claims extracted from a verified federated assertion.
type FederatedClaims struct {
	FederatedID string
	Email       string
	DisplayName string
	Picture     string
}

// IdentityVerifier validates externally issued identity assertions.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawAssertion string) (FederatedClaims, error)
}
