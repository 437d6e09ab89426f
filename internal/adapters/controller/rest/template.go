package rest

import (
	"net/http"

	"github.com/fitness360/notification-svc/internal/domain/common/errorz"
	"github.com/fitness360/notification-svc/internal/domain/dto"
	"github.com/fitness360/notification-svc/internal/domain/entity"
	"github.com/fitness360/notification-svc/internal/domain/utils/validator"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) UpsertTemplate(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertTemplate
	if !h.decode(w, r, &req) {
		return
	}

	template, err := h.templates.UpsertTemplate(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, template)
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	language, ok := h.language(w, r)
	if !ok {
		return
	}

	templates, err := h.templates.ListTemplates(r.Context(), language)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if templates == nil {
		templates = []entity.NotificationTemplate{}
	}
	respond(w, r, http.StatusOK, templates)
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	notificationType, ok := h.templateType(w, r)
	if !ok {
		return
	}
	language, ok := h.language(w, r)
	if !ok {
		return
	}

	template, err := h.templates.GetTemplate(r.Context(), notificationType, language)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, template)
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	notificationType, ok := h.templateType(w, r)
	if !ok {
		return
	}
	language, ok := h.language(w, r)
	if !ok {
		return
	}

	if err := h.templates.DeleteTemplate(r.Context(), notificationType, language); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "template deleted")
}

func (h *Handler) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	notificationType, ok := h.templateType(w, r)
	if !ok {
		return
	}
	var req dto.RenderTemplate
	if !h.decode(w, r, &req) {
		return
	}
	if err := validator.Struct(req); err != nil {
		h.fail(w, r, err)
		return
	}

	rendered, err := h.templates.Render(r.Context(), notificationType, req.Variables, req.Language)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, rendered)
}

func (h *Handler) templateType(w http.ResponseWriter, r *http.Request) (entity.NotificationType, bool) {
	notificationType := entity.NotificationType(chi.URLParam(r, "type"))
	if !notificationType.Valid() {
		h.fail(w, r, errorz.NewValidationError("type", "unknown notification type"))
		return "", false
	}
	return notificationType, true
}

func (h *Handler) language(w http.ResponseWriter, r *http.Request) (string, bool) {
	language := r.URL.Query().Get("language")
	if language != "" && !validator.Language(language) {
		h.fail(w, r, errorz.NewValidationError("language", "must look like pt-BR"))
		return "", false
	}
	return language, true
}
