package firebase

import (
	"context"
	"errors"

	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

var _ model.IdentityVerifier = (*Disabled)(nil)

// Disabled rejects every assertion. It stands in when federated sign-in is
// not configured so that local accounts keep working.
type Disabled struct {
	reason error
}

// NewDisabled creates a Disabled verifier reporting reason.
func NewDisabled(reason string) *Disabled {
	return &Disabled{reason: errors.New(reason)}
}

func (d *Disabled) Verify(context.Context, string) (model.FederatedClaims, error) {
	return model.FederatedClaims{}, apierrors.NewErrInvalidFederatedAssertion(d.reason)
}

// FromConfig returns a Verifier, or a Disabled one when cfg is empty or the
// SDK cannot be initialised. Failures are logged, never fatal.
func FromConfig(ctx context.Context, cfg Config, logger *logger.Logger) model.IdentityVerifier {
	if !cfg.Configured() {
		logger.Warn("Firebase is not configured, federated sign-in is disabled")
		return NewDisabled("federated sign-in is not configured")
	}

	v, err := NewVerifier(ctx, cfg, logger)
	if err != nil {
		logger.Error("Firebase initialization failed, federated sign-in is disabled", "error", err.Error())
		return NewDisabled("federated sign-in is unavailable")
	}

	return v
}
