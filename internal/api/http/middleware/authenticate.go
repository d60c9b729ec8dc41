package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dtroode/accounts-server/internal/api/http/response"
	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// Authenticate validates bearer tokens and injects the user into the request context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
	resp           *response.Writer
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		authenticator:  authenticator,
		contextManager: contextManager,
		logger:         logger,
		resp:           response.NewWriter(logger),
	}
}

// Handle rejects requests without a valid bearer token with 401.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			m.resp.Error(w, apierrors.NewErrMissingAuthorizationToken())
			return
		}

		user, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Debug("Authenticate middleware: token rejected",
				"path", r.URL.Path,
				"error", err.Error())
			m.resp.Error(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(m.contextManager.SetUserToContext(r.Context(), user)))
	})
}

// bearerToken extracts the credentials of a "Bearer" Authorization header.
// The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
