package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dtroode/accounts-server/internal/api/http/handler"
	"github.com/dtroode/accounts-server/internal/api/http/middleware"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

// Service is everything the HTTP surface needs from the accounts core.
type Service interface {
	handler.AccountsService
	middleware.Authenticator
}

// Options configures cross-cutting HTTP behaviour.
type Options struct {
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
}

// Router represents the HTTP router for account operations.
// It wires handlers to routes and applies middleware.
type Router struct {
	service        Service
	contextManager model.ContextManager
	logger         *logger.Logger
	opts           Options
}

// New creates new HTTP Router instance.
//
// Parameters:
//   - service: The accounts service
//   - contextManager: Carries the authenticated user between middleware and handlers
//   - logger: The logger for request logging
//   - opts: CORS and upload limits
//
// Returns a pointer to the newly created Router instance.
func New(
	service Service,
	contextManager model.ContextManager,
	logger *logger.Logger,
	opts Options,
) *Router {
	return &Router{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
		opts:           opts,
	}
}

// Register builds the handler tree.
//
// Returns the configured http.Handler.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.service, r.contextManager, r.logger)
	accounts := handler.NewAccounts(r.service, r.contextManager, r.logger, r.opts.MaxUploadBytes)

	mux := chi.NewRouter()

	if len(r.opts.CORSAllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   r.opts.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"WWW-Authenticate"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(logging.Handle)
	mux.Use(chimiddleware.Recoverer)

	mux.Get("/health", accounts.Health)

	mux.Post("/register", accounts.Register)
	mux.Post("/login", accounts.Login)
	mux.Post("/google-auth", accounts.FederatedLogin)
	mux.Post("/federated-auth", accounts.FederatedLogin)

	mux.Group(func(protected chi.Router) {
		protected.Use(authenticate.Handle)
		protected.Get("/me", accounts.Me)
		protected.Get("/me/profile-pic", accounts.GetProfilePic)
		protected.Put("/me/profile-pic", accounts.PutProfilePic)
	})

	return mux
}
