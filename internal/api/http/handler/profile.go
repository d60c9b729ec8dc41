package handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/service"
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// PutProfilePic stores the request body as the picture of the current user.
// The declared and the sniffed content type must both be a supported image.
func (h *Accounts) PutProfilePic(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		h.resp.Error(w, apierrors.NewErrUnauthenticated(errors.New("no user in context")))
		return
	}

	declared, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !allowedImageTypes[declared] {
		h.resp.Detail(w, http.StatusUnsupportedMediaType, "profile picture must be PNG, JPEG, GIF or WebP")
		return
	}

	if r.ContentLength > h.maxUploadBytes {
		h.resp.Detail(w, http.StatusRequestEntityTooLarge, "profile picture is too large")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.resp.Detail(w, http.StatusRequestEntityTooLarge, "profile picture is too large")
			return
		}
		h.resp.Error(w, apierrors.NewErrMalformed("failed to read request body", err))
		return
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if sniffed != declared {
		h.resp.Detail(w, http.StatusUnsupportedMediaType, "profile picture content does not match its content type")
		return
	}

	updated, err := h.service.SetProfilePicture(r.Context(), user, declared, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		h.logger.Error("Accounts handler: profile picture upload failed",
			"user_id", user.ID.String(),
			"error", err.Error())
		h.resp.Error(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, newUserResponse(updated))
}

// GetProfilePic streams the uploaded picture of the current user, or
// redirects to the picture supplied by the identity provider.
func (h *Accounts) GetProfilePic(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		h.resp.Error(w, apierrors.NewErrUnauthenticated(errors.New("no user in context")))
		return
	}

	if user.ProfilePic != nil && !service.IsStoredProfilePic(*user.ProfilePic) {
		http.Redirect(w, r, *user.ProfilePic, http.StatusFound)
		return
	}

	obj, err := h.service.ProfilePicture(r.Context(), user)
	if err != nil {
		h.resp.Error(w, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("Accounts handler: profile picture stream interrupted",
			"user_id", user.ID.String(),
			"error", err.Error())
	}
}
