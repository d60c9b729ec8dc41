package router

import (
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/dtroode/accounts-server/internal/api/grpc/handler"
	"github.com/dtroode/accounts-server/internal/api/grpc/middleware"
	"github.com/dtroode/accounts-server/internal/logger"
)

// Router represents the gRPC router for probe endpoints.
// It manages gRPC service registration and middleware configuration.
type Router struct {
	checker handler.HealthChecker
	logger  *logger.Logger
}

// New creates new gRPC Router instance.
//
// Parameters:
//   - checker: Reports whether the accounts service can serve
//   - logger: The logger for request logging
//
// Returns a pointer to the newly created Router instance.
func New(checker handler.HealthChecker, logger *logger.Logger) *Router {
	return &Router{
		checker: checker,
		logger:  logger,
	}
}

// Register registers all gRPC services and middleware.
// Panics in handlers are recovered and reported as codes.Internal.
//
// Returns the configured gRPC server instance.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recoverer := recovery.WithRecoveryHandler(func(p any) error {
		r.logger.Error("gRPC handler panicked", "panic", p)
		return status.Error(codes.Internal, "internal server error")
	})

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoverer),
		),
		grpc.ChainStreamInterceptor(
			logging.HandleGRPCStream,
			recovery.StreamServerInterceptor(recoverer),
		),
	)

	healthpb.RegisterHealthServer(s, handler.NewHealth(r.checker, r.logger))
	reflection.Register(s)

	return s
}
