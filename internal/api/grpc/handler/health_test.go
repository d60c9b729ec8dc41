package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dtroode/accounts-server/internal/mocks"
	"github.com/dtroode/accounts-server/internal/testutil"
)

func TestHealth_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		service   string
		healthErr error
		want      healthpb.HealthCheckResponse_ServingStatus
	}{
		{name: "overall serving", want: healthpb.HealthCheckResponse_SERVING},
		{name: "named serving", service: ServiceName, want: healthpb.HealthCheckResponse_SERVING},
		{name: "store down", healthErr: errors.New("down"), want: healthpb.HealthCheckResponse_NOT_SERVING},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			checker := mocks.NewAccountsService(t)
			checker.On("Health", mock.Anything).Return(tt.healthErr)

			h := NewHealth(checker, testutil.MakeNoopLogger())
			resp, err := h.Check(context.Background(), &healthpb.HealthCheckRequest{Service: tt.service})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.GetStatus())
		})
	}
}

func TestHealth_Check_UnknownService(t *testing.T) {
	h := NewHealth(mocks.NewAccountsService(t), testutil.MakeNoopLogger())

	_, err := h.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "records"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}
