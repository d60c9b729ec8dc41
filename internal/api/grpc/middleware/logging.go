package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/accounts-server/internal/logger"
)

// Logging records one line per probe RPC.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// HandleGRPC is the unary interceptor.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	l.record(info.FullMethod, start, err)
	return resp, err
}

// HandleGRPCStream is the stream interceptor, used by Health/Watch and reflection.
func (l *Logging) HandleGRPCStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	l.record(info.FullMethod, start, err)
	return err
}

// record logs successes at debug level, since orchestrators probe every few seconds.
func (l *Logging) record(method string, start time.Time, err error) {
	code := codeOf(err)
	log := l.logger.With(
		"method", method,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String(),
	)

	switch {
	case err == nil:
		log.Debug("gRPC request completed")
	case code == codes.Canceled:
		log.Info("gRPC request canceled by client")
	default:
		log.Error("gRPC request failed", "error", err.Error())
	}
}

func codeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Internal
}
