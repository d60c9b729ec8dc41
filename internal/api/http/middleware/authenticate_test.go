package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/accounts-server/internal/api/http/context"
	"github.com/dtroode/accounts-server/internal/api/http/response"
	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/mocks"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/testutil"
)

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer abc", want: "abc", ok: true},
		{header: "  Bearer   abc  ", want: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer", ok: false},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()
			got, ok := bearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticate_Handle(t *testing.T) {
	ctxManager := httpctx.NewManager()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := ctxManager.GetUserFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(user.Username))
	})

	t.Run("valid token", func(t *testing.T) {
		auth := mocks.NewAuthenticator(t)
		auth.On("Authenticate", mock.Anything, "good").Return(model.User{Username: "alice"}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")

		NewAuthenticate(auth, ctxManager, testutil.MakeNoopLogger()).Handle(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		auth := mocks.NewAuthenticator(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)

		NewAuthenticate(auth, ctxManager, testutil.MakeNoopLogger()).Handle(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("rejected token", func(t *testing.T) {
		auth := mocks.NewAuthenticator(t)
		auth.On("Authenticate", mock.Anything, "bad").Return(model.User{}, apierrors.NewErrUnauthenticated(nil))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer bad")

		NewAuthenticate(auth, ctxManager, testutil.MakeNoopLogger()).Handle(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body response.ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "could not validate credentials", body.Detail)
	})

	t.Run("store down", func(t *testing.T) {
		auth := mocks.NewAuthenticator(t)
		auth.On("Authenticate", mock.Anything, "tok").Return(model.User{}, apierrors.NewErrUnavailable(nil))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer tok")

		NewAuthenticate(auth, ctxManager, testutil.MakeNoopLogger()).Handle(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
