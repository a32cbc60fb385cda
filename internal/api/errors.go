package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sentitrack/sentitrack/internal/storage"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the error taxonomy to an HTTP status and a client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrAuthRequired):
		return http.StatusUnauthorized, models.ErrAuthRequired.Error()
	case errors.Is(err, models.ErrBrandNotFound):
		return http.StatusForbidden, "no brand linked to this account: complete account setup first"
	case errors.Is(err, models.ErrFetchFailure):
		return http.StatusInternalServerError, models.ErrFetchFailure.Error()
	case errors.Is(err, models.ErrResolutionFailure):
		return http.StatusBadGateway, "could not resolve alert, please retry"
	case errors.Is(err, models.ErrAlertNotFound), errors.Is(err, models.ErrProductNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrAlertResolved), errors.Is(err, models.ErrSuperseded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrCommentRequired), errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
