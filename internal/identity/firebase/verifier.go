// Package firebase verifies Firebase Authentication ID tokens, the assertion
// produced by Google sign-in on the client, through the Firebase Admin SDK.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

const (
	defaultDisplayName = "User"
	defaultTimeout     = 5 * time.Second
)

// Config configures a Verifier. The project id may be left empty when the
// credentials file carries one.
type Config struct {
	CredentialsFile string
	ProjectID       string
	Timeout         time.Duration
}

// Configured reports whether enough is set to build a Verifier.
func (c Config) Configured() bool {
	return c.CredentialsFile != "" || c.ProjectID != ""
}

// idTokenVerifier is the part of *auth.Client used here.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

var _ model.IdentityVerifier = (*Verifier)(nil)

// Verifier delegates signature, issuer, audience and lifetime checks to the
// Admin SDK and maps the verified token onto FederatedClaims.
type Verifier struct {
	client  idTokenVerifier
	timeout time.Duration
	logger  *logger.Logger
}

// NewVerifier initialises a Firebase app and its auth client.
func NewVerifier(ctx context.Context, cfg Config, logger *logger.Logger) (*Verifier, error) {
	if !cfg.Configured() {
		return nil, errors.New("firebase project id or credentials file is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		// Verifying ID tokens only needs Google's public certificates.
		opts = append(opts, option.WithoutAuthentication())
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}

	return newVerifier(client, cfg.Timeout, logger), nil
}

func newVerifier(client idTokenVerifier, timeout time.Duration, logger *logger.Logger) *Verifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Verifier{client: client, timeout: timeout, logger: logger}
}

// Verify validates rawAssertion and extracts the federated identity.
func (v *Verifier) Verify(ctx context.Context, rawAssertion string) (model.FederatedClaims, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	token, err := v.client.VerifyIDToken(ctx, rawAssertion)
	if err != nil {
		if providerUnavailable(err) {
			v.logger.Error("Firebase verifier: provider unavailable", "error", err.Error())
			return model.FederatedClaims{}, apierrors.NewErrUnavailable(err)
		}
		v.logger.Debug("Firebase verifier: assertion rejected", "error", err.Error())
		return model.FederatedClaims{}, apierrors.NewErrInvalidFederatedAssertion(err)
	}

	if token.UID == "" {
		return model.FederatedClaims{}, apierrors.NewErrInvalidFederatedAssertion(errors.New("token has no subject"))
	}

	email := stringClaim(token, "email")
	if email == "" {
		return model.FederatedClaims{}, apierrors.NewErrInvalidFederatedAssertion(errors.New("token has no email"))
	}

	name := stringClaim(token, "name")
	if name == "" {
		name = defaultDisplayName
	}

	return model.FederatedClaims{
		FederatedID: token.UID,
		Email:       email,
		DisplayName: name,
		Picture:     stringClaim(token, "picture"),
	}, nil
}

func stringClaim(token *auth.Token, key string) string {
	s, _ := token.Claims[key].(string)
	return s
}

// providerUnavailable separates outages reaching Google from rejected tokens.
func providerUnavailable(err error) bool {
	if auth.IsCertificateFetchFailed(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
