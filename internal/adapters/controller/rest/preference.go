package rest

import (
	"net/http"

	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	result, err := h.preferences.GetPreferences(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSettings
	if !h.decode(w, r, &req) {
		return
	}

	settings, err := h.preferences.UpdateSettings(r.Context(), chi.URLParam(r, "userId"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, settings)
}

func (h *Handler) UpdateChannel(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateChannel
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.preferences.UpdateChannel(r.Context(), chi.URLParam(r, "userId"), req); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "channel preference updated")
}

func (h *Handler) ToggleType(w http.ResponseWriter, r *http.Request) {
	var req dto.ToggleType
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.preferences.ToggleType(r.Context(), chi.URLParam(r, "userId"), req); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "notification type updated")
}

func (h *Handler) UpdateMany(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMany
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.preferences.UpdateMany(r.Context(), chi.URLParam(r, "userId"), req); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "preferences updated")
}

func (h *Handler) Mute(w http.ResponseWriter, r *http.Request) {
	var req dto.Mute
	if !h.decode(w, r, &req) {
		return
	}

	settings, err := h.preferences.Mute(r.Context(), chi.URLParam(r, "userId"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, settings)
}

func (h *Handler) Unmute(w http.ResponseWriter, r *http.Request) {
	if err := h.preferences.Unmute(r.Context(), chi.URLParam(r, "userId")); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "notifications unmuted")
}
