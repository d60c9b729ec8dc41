// Package response writes JSON bodies and maps service errors to HTTP
// statuses.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/accounts-server/internal/apierrors"
	"github.com/dtroode/accounts-server/internal/logger"
)

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Writer writes responses and reports body write failures to its logger.
type Writer struct {
	logger *logger.Logger
}

// NewWriter creates a Writer.
func NewWriter(logger *logger.Logger) *Writer {
	return &Writer{logger: logger}
}

// JSON writes data with the given status code.
func (rw *Writer) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rw.logger.Error("failed to encode JSON response",
			"status", status,
			"error", err.Error())
	}
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind apierrors.Kind) int {
	switch kind {
	case apierrors.KindConflict:
		return http.StatusBadRequest
	case apierrors.KindInvalidCredentials, apierrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apierrors.KindUnavailable:
		return http.StatusServiceUnavailable
	case apierrors.KindMalformed:
		return http.StatusUnprocessableEntity
	case apierrors.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"detail": ...}. Only the client-facing message of an
// *apierrors.APIError is exposed; anything else becomes a generic 500.
func (rw *Writer) Error(w http.ResponseWriter, err error) {
	kind := apierrors.KindOf(err)
	status := StatusFor(kind)

	message := "internal server error"
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && kind != apierrors.KindInternal {
		message = apiErr.Message
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	rw.JSON(w, status, ErrorBody{Detail: message})
}

// Detail writes a plain error message with status.
func (rw *Writer) Detail(w http.ResponseWriter, status int, message string) {
	rw.JSON(w, status, ErrorBody{Detail: message})
}
