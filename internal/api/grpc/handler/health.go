package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dtroode/accounts-server/internal/logger"
)

// ServiceName is the health service name answered besides the empty name.
const ServiceName = "accounts"

// HealthChecker reports whether the service can serve requests.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Health answers grpc.health.v1 checks by pinging the user store on each call.
type Health struct {
	healthpb.UnimplementedHealthServer
	checker HealthChecker
	logger  *logger.Logger
}

// NewHealth creates a new Health handler.
func NewHealth(checker HealthChecker, logger *logger.Logger) *Health {
	return &Health{checker: checker, logger: logger}
}

// Check returns SERVING when the store answers and NOT_SERVING otherwise.
func (h *Health) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if name := req.GetService(); name != "" && name != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", name)
	}

	if err := h.checker.Health(ctx); err != nil {
		h.logger.Warn("Health handler: store check failed", "error", err.Error())
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}

	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
