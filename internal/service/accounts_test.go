package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/mocks"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/password"
	"github.com/dtroode/accounts-server/internal/repository/memory"
	"github.com/dtroode/accounts-server/internal/testutil"
	"github.com/dtroode/accounts-server/internal/token"
)

type fixture struct {
	accounts *Accounts
	users    *memory.UserRepository
	tokens   *token.JWT
	verifier *mocks.IdentityVerifier
	storage  *mocks.Storage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher, err := password.New(password.Params{Scheme: password.SchemeBcrypt, BcryptCost: 4})
	require.NoError(t, err)
	tokens, err := token.NewJWT("test-secret", token.DefaultAlgorithm)
	require.NoError(t, err)

	users := memory.NewUserRepository()
	verifier := mocks.NewIdentityVerifier(t)
	storage := mocks.NewStorage(t)

	a, err := NewAccounts(users, hasher, tokens, verifier, storage, testutil.MakeNoopLogger(), Options{})
	require.NoError(t, err)

	return &fixture{accounts: a, users: users, tokens: tokens, verifier: verifier, storage: storage}
}

func (f *fixture) register(t *testing.T, email, username, pass string) model.User {
	t.Helper()
	u, err := f.accounts.Register(context.Background(), model.RegisterParams{
		Email: email, Username: username, Password: pass, DisplayName: username,
	})
	require.NoError(t, err)
	return u
}

func TestAccounts_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.register(t, "alice@example.com", "alice", "s3cret")
	assert.Nil(t, u.PasswordHash)
	assert.Equal(t, model.ProviderLocal, u.Provider)

	stored, err := f.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, stored.HasPassword())
	assert.NotEqual(t, "s3cret", *stored.PasswordHash)

	tok, err := f.accounts.LoginLocal(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", tok.Subject)
	assert.Equal(t, DefaultTokenTTL, tok.ExpiresAt.Sub(tok.IssuedAt))

	subject, err := f.tokens.Validate(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestAccounts_Register_Conflict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params model.RegisterParams
	}{
		{name: "same email", params: model.RegisterParams{Email: "alice@example.com", Username: "bob", Password: "p"}},
		{name: "same username", params: model.RegisterParams{Email: "bob@example.com", Username: "alice", Password: "p"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.register(t, "alice@example.com", "alice", "p")

			_, err := f.accounts.Register(context.Background(), tt.params)
			require.ErrorIs(t, err, apierrors.ErrConflict)

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "username or email already exists", apiErr.Message)
		})
	}
}

func TestAccounts_Register_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params model.RegisterParams
	}{
		{name: "empty email", params: model.RegisterParams{Username: "a", Password: "p"}},
		{name: "email without at", params: model.RegisterParams{Email: "nope", Username: "a", Password: "p"}},
		{name: "empty username", params: model.RegisterParams{Email: "a@b.c", Password: "p"}},
		{name: "unsafe username", params: model.RegisterParams{Email: "a@b.c", Username: "<script>", Password: "p"}},
		{name: "empty password", params: model.RegisterParams{Email: "a@b.c", Username: "a"}},
		{name: "password too long", params: model.RegisterParams{Email: "a@b.c", Username: "a", Password: string(make([]byte, 73))}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			_, err := f.accounts.Register(context.Background(), tt.params)
			assert.ErrorIs(t, err, apierrors.ErrMalformed)
		})
	}
}

func TestAccounts_Register_DefaultsDisplayName(t *testing.T) {
	f := newFixture(t)
	u, err := f.accounts.Register(context.Background(), model.RegisterParams{Email: "a@b.c", Username: "alice", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.DisplayName)
}

func TestAccounts_Register_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.accounts.Register(ctx, model.RegisterParams{
				Email: "race@example.com", Username: "race", Password: "p",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apierrors.ErrConflict)
	}
	assert.Equal(t, 1, ok)
}

func TestAccounts_LoginLocal_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "alice@example.com", "alice", "right")

	fid := "uid-fed"
	_, err := f.users.Create(ctx, model.User{
		ID: f.accounts.newID(), Email: "fed@example.com", Username: "fed",
		FederatedID: &fid, Provider: model.ProviderFederated,
	})
	require.NoError(t, err)

	attempts := []struct{ username, password string }{
		{username: "alice", password: "wrong"},
		{username: "nobody", password: "right"},
		{username: "fed", password: "anything"},
	}

	var messages []string
	for _, a := range attempts {
		_, err := f.accounts.LoginLocal(ctx, a.username, a.password)
		require.ErrorIs(t, err, apierrors.ErrInvalidCredentials)

		var apiErr *apierrors.APIError
		require.True(t, errors.As(err, &apiErr))
		messages = append(messages, apiErr.Message)
	}
	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, messages[1], messages[2])
}

func TestAccounts_LoginFederated_NewUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	claims := model.FederatedClaims{FederatedID: "uid-1", Email: "carol@example.com", DisplayName: "Carol", Picture: "https://example.com/c.png"}
	f.verifier.On("Verify", mock.Anything, "assertion").Return(claims, nil).Twice()

	tok, err := f.accounts.LoginFederated(ctx, "assertion")
	require.NoError(t, err)
	assert.Equal(t, "carol", tok.Subject)

	u, err := f.users.GetByFederatedID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderFederated, u.Provider)
	assert.Equal(t, "Carol", u.DisplayName)
	assert.False(t, u.HasPassword())
	require.NotNil(t, u.ProfilePic)
	assert.Equal(t, claims.Picture, *u.ProfilePic)

	again, err := f.accounts.LoginFederated(ctx, "assertion")
	require.NoError(t, err)
	assert.Equal(t, "carol", again.Subject)

	_, err = f.users.GetByUsername(ctx, "carol1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAccounts_LoginFederated_LinksExistingLocal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "dave@example.com", "davey", "pw")
	before, err := f.users.GetByUsername(ctx, "davey")
	require.NoError(t, err)

	f.verifier.On("Verify", mock.Anything, "assertion").
		Return(model.FederatedClaims{FederatedID: "uid-d", Email: "dave@example.com", DisplayName: "Dave"}, nil)

	tok, err := f.accounts.LoginFederated(ctx, "assertion")
	require.NoError(t, err)
	assert.Equal(t, "davey", tok.Subject)

	after, err := f.users.GetByUsername(ctx, "davey")
	require.NoError(t, err)
	require.True(t, after.HasFederatedID())
	assert.Equal(t, "uid-d", *after.FederatedID)
	assert.Equal(t, *before.PasswordHash, *after.PasswordHash)
	assert.Equal(t, model.ProviderLocal, after.Provider)
	assert.Equal(t, before.ID, after.ID)

	_, err = f.accounts.LoginLocal(ctx, "davey", "pw")
	assert.NoError(t, err)
}

func TestAccounts_LoginFederated_UsernameCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "alice@other.com", "alice", "pw")
	f.register(t, "alice1@other.com", "alice1", "pw")

	f.verifier.On("Verify", mock.Anything, "assertion").
		Return(model.FederatedClaims{FederatedID: "uid-a", Email: "alice@x.com"}, nil)

	tok, err := f.accounts.LoginFederated(ctx, "assertion")
	require.NoError(t, err)
	assert.Equal(t, "alice2", tok.Subject)

	u, err := f.users.GetByUsername(ctx, "alice2")
	require.NoError(t, err)
	assert.Equal(t, "User", u.DisplayName)
}

func TestAccounts_LoginFederated_AlreadyLinkedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := "uid-old"
	_, err := f.users.Create(ctx, model.User{
		ID: f.accounts.newID(), Email: "erin@example.com", Username: "erin",
		FederatedID: &other, Provider: model.ProviderFederated,
	})
	require.NoError(t, err)

	f.verifier.On("Verify", mock.Anything, "assertion").
		Return(model.FederatedClaims{FederatedID: "uid-new", Email: "erin@example.com"}, nil)

	tok, err := f.accounts.LoginFederated(ctx, "assertion")
	require.NoError(t, err)
	assert.Equal(t, "erin", tok.Subject)

	u, err := f.users.GetByUsername(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, "uid-old", *u.FederatedID)
}

func TestAccounts_LoginFederated_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		claims   model.FederatedClaims
		err      error
		wantKind error
	}{
		{name: "verifier rejects", err: apierrors.NewErrInvalidFederatedAssertion(errors.New("bad sig")), wantKind: apierrors.ErrInvalidCredentials},
		{name: "provider down", err: apierrors.NewErrUnavailable(errors.New("down")), wantKind: apierrors.ErrUnavailable},
		{name: "plain error", err: errors.New("weird"), wantKind: apierrors.ErrInvalidCredentials},
		{name: "deadline", err: context.DeadlineExceeded, wantKind: apierrors.ErrUnavailable},
		{name: "no email", claims: model.FederatedClaims{FederatedID: "uid"}, wantKind: apierrors.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.verifier.On("Verify", mock.Anything, "assertion").Return(tt.claims, tt.err)

			_, err := f.accounts.LoginFederated(context.Background(), "assertion")
			assert.ErrorIs(t, err, tt.wantKind)
		})
	}
}

func TestAccounts_LoginFederated_EmptyAssertion(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.LoginFederated(context.Background(), "")
	assert.ErrorIs(t, err, apierrors.ErrInvalidCredentials)
}

func TestAccounts_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "alice@example.com", "alice", "pw")
	tok, err := f.accounts.LoginLocal(ctx, "alice", "pw")
	require.NoError(t, err)

	u, err := f.accounts.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Nil(t, u.PasswordHash)

	_, err = f.accounts.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apierrors.ErrUnauthenticated)

	_, err = f.accounts.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, apierrors.ErrUnauthenticated)

	ghost, err := f.tokens.Issue("ghost", time.Minute)
	require.NoError(t, err)
	_, err = f.accounts.Authenticate(ctx, ghost.Token)
	assert.ErrorIs(t, err, apierrors.ErrUnauthenticated)

	expired, err := f.tokens.Issue("alice", 0)
	require.NoError(t, err)
	_, err = f.accounts.Authenticate(ctx, expired.Token)
	assert.ErrorIs(t, err, apierrors.ErrUnauthenticated)
}

func TestAccounts_ProfilePicture(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.register(t, "alice@example.com", "alice", "pw")
	key := ProfilePicKey(u.ID)

	_, err := f.accounts.ProfilePicture(ctx, u)
	assert.ErrorIs(t, err, apierrors.ErrNotFound)

	_, err = f.accounts.SetProfilePicture(ctx, u, "text/plain", bytes.NewReader([]byte("x")), 1)
	assert.ErrorIs(t, err, apierrors.ErrMalformed)

	f.storage.On("Upload", mock.Anything, key, "image/png", mock.Anything, int64(3)).Return(nil).Once()
	updated, err := f.accounts.SetProfilePicture(ctx, u, "image/png", bytes.NewReader([]byte("png")), 3)
	require.NoError(t, err)
	require.NotNil(t, updated.ProfilePic)
	assert.Equal(t, key, *updated.ProfilePic)

	f.storage.On("Download", mock.Anything, key).
		Return(model.Object{Body: io.NopCloser(bytes.NewReader([]byte("png"))), ContentType: "image/png", Size: 3}, nil).Once()
	obj, err := f.accounts.ProfilePicture(ctx, updated)
	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, "image/png", obj.ContentType)

	f.storage.On("Download", mock.Anything, key).Return(model.Object{}, model.ErrNotFound).Once()
	_, err = f.accounts.ProfilePicture(ctx, updated)
	assert.ErrorIs(t, err, apierrors.ErrNotFound)

	f.storage.On("Upload", mock.Anything, key, "image/png", mock.Anything, int64(-1)).Return(errors.New("s3 down")).Once()
	_, err = f.accounts.SetProfilePicture(ctx, u, "image/png", bytes.NewReader(nil), -1)
	assert.ErrorIs(t, err, apierrors.ErrUnavailable)
}

func TestAccounts_ProfilePicture_StorageDisabled(t *testing.T) {
	hasher, err := password.New(password.Params{Scheme: password.SchemeBcrypt, BcryptCost: 4})
	require.NoError(t, err)
	tokens, err := token.NewJWT("s", "")
	require.NoError(t, err)

	a, err := NewAccounts(memory.NewUserRepository(), hasher, tokens, mocks.NewIdentityVerifier(t), nil, testutil.MakeNoopLogger(), Options{})
	require.NoError(t, err)

	_, err = a.SetProfilePicture(context.Background(), model.User{}, "image/png", bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, apierrors.ErrUnavailable)

	pic := "profile-pics/x"
	_, err = a.ProfilePicture(context.Background(), model.User{ProfilePic: &pic})
	assert.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestAccounts_Health(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.accounts.Health(context.Background()))
}
