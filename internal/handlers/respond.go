package handlers

import (
	"errors"
	"net/http"

	"mentorhub/internal/auth"
	"mentorhub/internal/status"

	"github.com/pocketbase/pocketbase/core"
)

// statusCode maps service errors onto HTTP statuses.
func statusCode(err error) int {
	switch {
	case errors.Is(err, status.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, status.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, status.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, status.ErrSlotTaken):
		return http.StatusConflict
	case errors.Is(err, status.ErrAlreadyRegistered),
		errors.Is(err, status.ErrFull),
		errors.Is(err, status.ErrInvalidTransition),
		errors.Is(err, status.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondData(e *core.RequestEvent, code int, data any) error {
	return e.JSON(code, map[string]any{"data": data})
}

// respondError writes {"error": msg}. Backend details never reach the client.
func respondError(e *core.RequestEvent, err error) error {
	code := statusCode(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	return e.JSON(code, map[string]string{"error": msg})
}

func badRequest(e *core.RequestEvent, msg string) error {
	return e.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func participant(e *core.RequestEvent) auth.Participant {
	return auth.FromRecord(e.Auth)
}
