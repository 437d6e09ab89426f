package rest

import (
	"net/http"
	"strconv"

	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req dto.SendNotification
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.notifications.SendNotification(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, result)
}

func (h *Handler) GetUserNotifications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := intParam(query.Get("page"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "page must be a number")
		return
	}
	limit, err := intParam(query.Get("limit"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "limit must be a number")
		return
	}

	result, err := h.notifications.GetUserNotifications(r.Context(), chi.URLParam(r, "userId"), dto.NotificationFilter{
		Type:  entity.NotificationType(query.Get("type")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	result, err := h.notifications.GetUnreadCount(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkAsRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "notification marked as read")
}

func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.notifications.MarkAllAsRead(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]int64{"updated": updated})
}

// Feed upgrades to a websocket that streams the user's delivered notifications.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(w, r, http.StatusBadRequest, "userId is required")
		return
	}
	if err := h.feed.Serve(w, r, userID); err != nil {
		h.logger.Warnf("websocket upgrade failed (user_id=%s): %v", userID, err)
	}
}

// intParam parses an optional numeric query parameter; empty means zero.
func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
