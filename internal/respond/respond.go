// Package respond writes the JSON envelope every endpoint answers with and
// translates errors into statuses.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vidhive/backend/internal/apperr"
	"github.com/vidhive/backend/internal/logging"
	"github.com/vidhive/backend/internal/storage"
)

const internalMessage = "something went wrong, please try again later"

// Envelope is the body of every response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK writes a successful envelope.
func OK(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	write(ctx, w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an unsuccessful envelope with the given status.
func Fail(ctx context.Context, w http.ResponseWriter, status int, message string) {
	write(ctx, w, status, Envelope{Success: false, Message: message})
}

// Error translates err into a status and envelope. Internal failures are
// logged with their cause and answered with a generic message.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := Translate(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(ctx).Error("request failed", slog.Int("status", status), slog.Any("error", err))
	}
	write(ctx, w, status, Envelope{Success: false, Message: message})
}

// Translate maps err onto a status code and client-safe message.
func Translate(err error) (int, string) {
	var uploadErr *storage.UploadError
	var deleteErr *storage.DeleteError
	switch {
	case errors.As(err, &uploadErr):
		return http.StatusInternalServerError, "failed to upload media"
	case errors.As(err, &deleteErr):
		return http.StatusInternalServerError, "failed to delete media"
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest, apperr.MessageOf(err)
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized, apperr.MessageOf(err)
	case apperr.KindForbidden:
		return http.StatusForbidden, apperr.MessageOf(err)
	case apperr.KindNotFound:
		return http.StatusNotFound, apperr.MessageOf(err)
	case apperr.KindConflict:
		return http.StatusConflict, apperr.MessageOf(err)
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

func write(ctx context.Context, w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	logger := logging.FromContext(ctx)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("encode response body", slog.Int("status", status), slog.Any("error", err))
		return
	}

	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		logger.Warn("request returned client error", slog.Int("status", status), slog.String("message", body.Message))
	}
}
