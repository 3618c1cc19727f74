package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/logging"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: data})
}

func created(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: msg, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// writeError maps service errors onto statuses. Unknown errors are logged
// and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrPreconditionFailed):
		fail(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		fail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrInvalid):
		fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrRenderFailure):
		logging.FromContext(r.Context()).WithError(err).Error("document generation failed")
		fail(w, http.StatusInternalServerError, apperr.ErrRenderFailure.Error())
	default:
		logging.FromContext(r.Context()).WithError(err).Error("request failed")
		fail(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: bad json", apperr.ErrInvalid)
	}
	return nil
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	return nil
}

func subject(r *http.Request) string { return rbac.SubjectFromContext(r.Context()) }
