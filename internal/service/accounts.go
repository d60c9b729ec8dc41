package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/password"
)

const (
	DefaultTokenTTL     = 30 * time.Minute
	DefaultStoreTimeout = 5 * time.Second

	defaultFederatedAttempts = 3
	defaultUsernameAttempts  = 100

	profilePicPrefix = "profile-pics/"

	// Hashed once at startup and verified against when the user is unknown.
	dummyPassword = "accounts-server-dummy-password"
)

var errStorageDisabled = errors.New("object storage is disabled")

// Options tunes an Accounts service. Zero values select defaults.
type Options struct {
	TokenTTL     time.Duration
	StoreTimeout time.Duration
	// FederatedAttempts bounds how often a federated signup restarts after
	// losing a race on email or federated id.
	FederatedAttempts int
	// UsernameAttempts bounds the numeric suffixes tried for a new username.
	UsernameAttempts int
}

func (o Options) withDefaults() Options {
	if o.TokenTTL <= 0 {
		o.TokenTTL = DefaultTokenTTL
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = DefaultStoreTimeout
	}
	if o.FederatedAttempts <= 0 {
		o.FederatedAttempts = defaultFederatedAttempts
	}
	if o.UsernameAttempts <= 0 {
		o.UsernameAttempts = defaultUsernameAttempts
	}
	return o
}

// Accounts registers users and resolves local and federated logins to
// access tokens.
type Accounts struct {
	users    model.UserStore
	hasher   model.PasswordHasher
	tokens   model.TokenManager
	verifier model.IdentityVerifier
	storage  model.Storage
	logger   *logger.Logger
	opts     Options

	dummyHash string
	newID     func() uuid.UUID
	now       func() time.Time
}

// NewAccounts creates the service. storage may be nil, in which case profile
// picture uploads report Unavailable.
func NewAccounts(
	users model.UserStore,
	hasher model.PasswordHasher,
	tokens model.TokenManager,
	verifier model.IdentityVerifier,
	storage model.Storage,
	logger *logger.Logger,
	opts Options,
) (*Accounts, error) {
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Accounts{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		verifier:  verifier,
		storage:   storage,
		logger:    logger,
		opts:      opts.withDefaults(),
		dummyHash: dummyHash,
		newID:     uuid.New,
		now:       time.Now,
	}, nil
}

// TokenTTL is the lifetime of issued access tokens.
func (a *Accounts) TokenTTL() time.Duration {
	return a.opts.TokenTTL
}

func (a *Accounts) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.opts.StoreTimeout)
}

// storeError converts a store failure into an API error. Conflicts and
// not-found results are handled by callers before reaching here.
func (a *Accounts) storeError(op string, err error) error {
	if errors.Is(err, model.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		a.logger.Warn("Accounts service: store unavailable", "op", op, "error", err.Error())
		return apierrors.NewErrUnavailable(fmt.Errorf("failed to %s: %w", op, err))
	}
	a.logger.Error("Accounts service: store failure", "op", op, "error", err.Error())
	return apierrors.NewErrInternal(fmt.Errorf("failed to %s: %w", op, err))
}

// Register creates a local account. Uniqueness is left to the store: a
// unique violation on insert is the conflict signal.
func (a *Accounts) Register(ctx context.Context, params model.RegisterParams) (model.User, error) {
	a.logger.Debug("Accounts service: registering user",
		"username", params.Username)

	params.Email = strings.TrimSpace(params.Email)
	if params.Email == "" || !strings.Contains(params.Email, "@") {
		return model.User{}, apierrors.NewErrMalformed("a valid email is required", nil)
	}
	if !ValidUsername(params.Username) {
		return model.User{}, apierrors.NewErrMalformed("username must be 1-64 letters, digits, '_', '.' or '-' and start with a letter or digit", nil)
	}
	if params.Password == "" {
		return model.User{}, apierrors.NewErrMalformed("password is required", nil)
	}
	if params.DisplayName == "" {
		params.DisplayName = params.Username
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return model.User{}, apierrors.NewErrMalformed("password is too long", err)
		}
		return model.User{}, apierrors.NewErrInternal(fmt.Errorf("failed to hash password: %w", err))
	}

	now := a.now().UTC()
	user := model.User{
		ID:           a.newID(),
		Email:        params.Email,
		Username:     params.Username,
		DisplayName:  params.DisplayName,
		PasswordHash: &hash,
		Provider:     model.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	saved, err := a.users.Create(sctx, user)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			field, _ := model.ConflictField(err)
			a.logger.Info("Accounts service: registration conflict",
				"username", params.Username,
				"field", field)
			return model.User{}, apierrors.NewErrUserAlreadyExists(err)
		}
		return model.User{}, a.storeError("create user", err)
	}

	a.logger.Info("Accounts service: user registered",
		"user_id", saved.ID.String(),
		"username", saved.Username)

	return saved.Public(), nil
}

// LoginLocal checks a username and password. Every failure returns the same
// InvalidCredentials error.
func (a *Accounts) LoginLocal(ctx context.Context, username, plaintext string) (model.AccessToken, error) {
	a.logger.Debug("Accounts service: local login", "username", username)

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	user, err := a.users.GetByUsername(sctx, username)
	switch {
	case errors.Is(err, model.ErrNotFound):
		a.hasher.Verify(plaintext, a.dummyHash)
		return model.AccessToken{}, apierrors.NewErrInvalidCredentials(fmt.Errorf("unknown user"))
	case err != nil:
		return model.AccessToken{}, a.storeError("get user by username", err)
	}

	if !user.HasPassword() {
		a.hasher.Verify(plaintext, a.dummyHash)
		return model.AccessToken{}, apierrors.NewErrInvalidCredentials(fmt.Errorf("user has no password"))
	}

	if !a.hasher.Verify(plaintext, *user.PasswordHash) {
		return model.AccessToken{}, apierrors.NewErrInvalidCredentials(fmt.Errorf("password mismatch"))
	}

	return a.issue(user)
}

// LoginFederated verifies an external assertion and resolves it to a local
// user, linking or creating one as needed.
func (a *Accounts) LoginFederated(ctx context.Context, rawAssertion string) (model.AccessToken, error) {
	if rawAssertion == "" {
		return model.AccessToken{}, apierrors.NewErrInvalidFederatedAssertion(fmt.Errorf("empty assertion"))
	}

	claims, err := a.verifier.Verify(ctx, rawAssertion)
	if err != nil {
		a.logger.Info("Accounts service: federated assertion rejected", "error", err.Error())
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) {
			return model.AccessToken{}, apiErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return model.AccessToken{}, apierrors.NewErrUnavailable(err)
		}
		return model.AccessToken{}, apierrors.NewErrInvalidFederatedAssertion(err)
	}
	if claims.FederatedID == "" || claims.Email == "" {
		return model.AccessToken{}, apierrors.NewErrInvalidFederatedAssertion(fmt.Errorf("assertion lacks subject or email"))
	}

	user, err := a.resolveFederated(ctx, claims)
	if err != nil {
		return model.AccessToken{}, err
	}

	return a.issue(user)
}

func (a *Accounts) resolveFederated(ctx context.Context, claims model.FederatedClaims) (model.User, error) {
	for attempt := 0; attempt < a.opts.FederatedAttempts; attempt++ {
		user, err := a.findFederated(ctx, claims)
		if errors.Is(err, model.ErrNotFound) {
			user, err = a.createFederated(ctx, claims)
		}
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, model.ErrConflict) {
			return model.User{}, err
		}

		// Someone created this identity concurrently. Look it up again.
		a.logger.Debug("Accounts service: federated signup raced, retrying",
			"federated_id", claims.FederatedID,
			"attempt", attempt+1)
	}

	return model.User{}, apierrors.NewErrUnavailable(fmt.Errorf("federated signup did not settle after %d attempts", a.opts.FederatedAttempts))
}

// findFederated looks the identity up by federated id, then by email, and
// links a matching local account. It returns model.ErrNotFound when neither
// lookup matches.
func (a *Accounts) findFederated(ctx context.Context, claims model.FederatedClaims) (model.User, error) {
	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	user, err := a.users.GetByFederatedID(sctx, claims.FederatedID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, a.storeError("get user by federated id", err)
	}

	user, err = a.users.GetByEmail(sctx, claims.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, a.storeError("get user by email", err)
	}

	if user.HasFederatedID() {
		return user, nil
	}

	linked, err := a.users.LinkFederatedID(sctx, user.ID, claims.FederatedID)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return model.User{}, err
		}
		return model.User{}, a.storeError("link federated id", err)
	}

	a.logger.Info("Accounts service: federated identity linked",
		"user_id", linked.ID.String(),
		"federated_id", claims.FederatedID)

	return linked, nil
}

// createFederated inserts a federated user, moving to the next numeric
// username suffix on each username conflict. Other conflicts are returned.
func (a *Accounts) createFederated(ctx context.Context, claims model.FederatedClaims) (model.User, error) {
	base := usernameBase(claims.Email)
	fid := claims.FederatedID

	displayName := claims.DisplayName
	if displayName == "" {
		displayName = "User"
	}

	var picture *string
	if claims.Picture != "" {
		p := claims.Picture
		picture = &p
	}

	for n := 0; n < a.opts.UsernameAttempts; n++ {
		now := a.now().UTC()
		user := model.User{
			ID:          a.newID(),
			Email:       claims.Email,
			Username:    usernameCandidate(base, n),
			DisplayName: displayName,
			FederatedID: &fid,
			Provider:    model.ProviderFederated,
			ProfilePic:  picture,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		sctx, cancel := a.storeCtx(ctx)
		saved, err := a.users.Create(sctx, user)
		cancel()

		if err == nil {
			a.logger.Info("Accounts service: federated user created",
				"user_id", saved.ID.String(),
				"username", saved.Username)
			return saved, nil
		}

		field, conflict := model.ConflictField(err)
		if !conflict {
			return model.User{}, a.storeError("create federated user", err)
		}
		if field != model.FieldUsername {
			return model.User{}, err
		}
	}

	return model.User{}, apierrors.NewErrUserAlreadyExists(fmt.Errorf("no free username for %q after %d attempts", base, a.opts.UsernameAttempts))
}

func (a *Accounts) issue(user model.User) (model.AccessToken, error) {
	token, err := a.tokens.Issue(user.Username, a.opts.TokenTTL)
	if err != nil {
		a.logger.Error("Accounts service: failed to issue token",
			"username", user.Username,
			"error", err.Error())
		return model.AccessToken{}, apierrors.NewErrInternal(fmt.Errorf("failed to issue token: %w", err))
	}

	a.logger.Debug("Accounts service: token issued",
		"username", user.Username,
		"expires_at", token.ExpiresAt)

	return token, nil
}

// Authenticate resolves a bearer token to the user it names.
func (a *Accounts) Authenticate(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, apierrors.NewErrMissingAuthorizationToken()
	}

	subject, err := a.tokens.Validate(token)
	if err != nil {
		return model.User{}, apierrors.NewErrUnauthenticated(err)
	}

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	user, err := a.users.GetByUsername(sctx, subject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierrors.NewErrUnauthenticated(fmt.Errorf("subject %q no longer exists", subject))
		}
		return model.User{}, a.storeError("get user by username", err)
	}

	return user.Public(), nil
}

// ProfilePicKey is the storage key of the uploaded picture of a user.
func ProfilePicKey(id uuid.UUID) string {
	return profilePicPrefix + id.String()
}

// IsStoredProfilePic reports whether pic refers to an uploaded object rather
// than an external URL.
func IsStoredProfilePic(pic string) bool {
	return strings.HasPrefix(pic, profilePicPrefix)
}

// SetProfilePicture uploads a picture and records it on the user. size may
// be -1 when unknown.
func (a *Accounts) SetProfilePicture(ctx context.Context, user model.User, contentType string, r io.Reader, size int64) (model.User, error) {
	if a.storage == nil {
		return model.User{}, apierrors.NewErrUnavailable(errStorageDisabled)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return model.User{}, apierrors.NewErrMalformed("profile picture must be an image", nil)
	}

	key := ProfilePicKey(user.ID)
	if err := a.storage.Upload(ctx, key, contentType, r, size); err != nil {
		a.logger.Error("Accounts service: failed to upload profile picture",
			"user_id", user.ID.String(),
			"error", err.Error())
		return model.User{}, apierrors.NewErrUnavailable(err)
	}

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	updated, err := a.users.SetProfilePic(sctx, user.ID, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierrors.NewErrNotFound("user")
		}
		return model.User{}, a.storeError("set profile pic", err)
	}

	a.logger.Info("Accounts service: profile picture updated", "user_id", user.ID.String())

	return updated.Public(), nil
}

// ProfilePicture opens the uploaded picture of user. The caller closes the
// returned body.
func (a *Accounts) ProfilePicture(ctx context.Context, user model.User) (model.Object, error) {
	if a.storage == nil || user.ProfilePic == nil || !IsStoredProfilePic(*user.ProfilePic) {
		return model.Object{}, apierrors.NewErrNotFound("profile picture")
	}

	obj, err := a.storage.Download(ctx, *user.ProfilePic)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Object{}, apierrors.NewErrNotFound("profile picture")
		}
		return model.Object{}, apierrors.NewErrUnavailable(err)
	}

	return obj, nil
}

// Health reports whether the user store answers within the store timeout.
func (a *Accounts) Health(ctx context.Context) error {
	sctx, cancel := a.storeCtx(ctx)
	defer cancel()

	if err := a.users.Ping(sctx); err != nil {
		return apierrors.NewErrUnavailable(err)
	}
	return nil
}
