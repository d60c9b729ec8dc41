package response

import (
	"encoding/json"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/testutil"
)

func TestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
		wantAuth   bool
	}{
		{name: "conflict", err: apierrors.NewErrUserAlreadyExists(errors.New("email")), wantStatus: http.StatusBadRequest, wantDetail: "username or email already exists"},
		{name: "invalid credentials", err: apierrors.NewErrInvalidCredentials(nil), wantStatus: http.StatusUnauthorized, wantDetail: "incorrect username or password", wantAuth: true},
		{name: "unauthenticated", err: apierrors.NewErrUnauthenticated(nil), wantStatus: http.StatusUnauthorized, wantDetail: "could not validate credentials", wantAuth: true},
		{name: "unavailable", err: apierrors.NewErrUnavailable(nil), wantStatus: http.StatusServiceUnavailable, wantDetail: "service temporarily unavailable"},
		{name: "malformed", err: apierrors.NewErrMalformed("bad input", nil), wantStatus: http.StatusUnprocessableEntity, wantDetail: "bad input"},
		{name: "not found", err: apierrors.NewErrNotFound("user"), wantStatus: http.StatusNotFound, wantDetail: "user not found"},
		{name: "internal hides cause", err: apierrors.NewErrInternal(errors.New("db password is hunter2")), wantStatus: http.StatusInternalServerError, wantDetail: "internal server error"},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantDetail: "internal server error"},
		{name: "wrapped api error", err: fmt.Errorf("ctx: %w", apierrors.NewErrMalformed("bad", nil)), wantStatus: http.StatusUnprocessableEntity, wantDetail: "bad"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			NewWriter(testutil.MakeNoopLogger()).Error(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantAuth {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			} else {
				assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
			}

			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDetail, body.Detail)
		})
	}
}

func TestWriter_JSON_EncodeFailure(t *testing.T) {
	var buf bytes.Buffer
	rw := NewWriter(logger.NewWithFormat(int(slog.LevelInfo), "text", &buf))

	rec := httptest.NewRecorder()
	rw.JSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "failed to encode JSON response")
	assert.Contains(t, buf.String(), "status=200")
}
