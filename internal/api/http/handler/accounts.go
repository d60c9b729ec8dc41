package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dtroode/accounts-server/internal/api/http/response"
	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

const maxJSONBody = 1 << 20

// AccountsService defines the account operations exposed over HTTP.
type AccountsService interface {
	Register(ctx context.Context, params model.RegisterParams) (model.User, error)
	LoginLocal(ctx context.Context, username, password string) (model.AccessToken, error)
	LoginFederated(ctx context.Context, rawAssertion string) (model.AccessToken, error)
	SetProfilePicture(ctx context.Context, user model.User, contentType string, r io.Reader, size int64) (model.User, error)
	ProfilePicture(ctx context.Context, user model.User) (model.Object, error)
	Health(ctx context.Context) error
}

// Accounts handles HTTP endpoints for registration, login and the current user.
type Accounts struct {
	service        AccountsService
	contextManager model.ContextManager
	logger         *logger.Logger
	resp           *response.Writer
	maxUploadBytes int64
}

// NewAccounts creates a new Accounts handler.
func NewAccounts(service AccountsService, contextManager model.ContextManager, logger *logger.Logger, maxUploadBytes int64) *Accounts {
	return &Accounts{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
		resp:           response.NewWriter(logger),
		maxUploadBytes: maxUploadBytes,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type federatedLoginRequest struct {
	Token string `json:"token"`
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		return apierrors.NewErrMalformed("request body must be valid JSON", err)
	}
	return nil
}

// Register creates a local account and returns it with 201.
func (h *Accounts) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), model.RegisterParams{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.logger.Info("Accounts handler: registration failed",
			"username", req.Username,
			"error", err.Error())
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusCreated, newUserResponse(user))
}

// Login exchanges a username and password for an access token.
func (h *Accounts) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, err)
		return
	}

	token, err := h.service.LoginLocal(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Info("Accounts handler: login failed",
			"username", req.Username,
			"error", err.Error())
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, newTokenResponse(token))
}

// FederatedLogin exchanges a federated identity assertion for an access token.
func (h *Accounts) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	var req federatedLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.resp.Error(w, err)
		return
	}

	token, err := h.service.LoginFederated(r.Context(), req.Token)
	if err != nil {
		h.logger.Info("Accounts handler: federated login failed",
			"error", err.Error())
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, newTokenResponse(token))
}

// Me returns the authenticated user.
func (h *Accounts) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		h.resp.Error(w, apierrors.NewErrUnauthenticated(errors.New("no user in context")))
		return
	}

	h.resp.JSON(w, http.StatusOK, newUserResponse(user))
}

// Health reports 200 when the user store is reachable.
func (h *Accounts) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		h.logger.Warn("Accounts handler: health check failed", "error", err.Error())
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
