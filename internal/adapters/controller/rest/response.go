package rest

import (
	"errors"
	"net/http"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/go-chi/render"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Response is the envelope of every API reply.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, Response{Status: statusSuccess, Data: data})
}

func respondMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, Response{Status: statusSuccess, Message: message})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, Response{Status: statusError, Message: message})
}

// fail maps a service error to its HTTP status. Unexpected errors are logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errorz.ErrValidation):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, errorz.ErrNotFound):
		respondError(w, r, http.StatusNotFound, err.Error())
	default:
		h.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		respondError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
