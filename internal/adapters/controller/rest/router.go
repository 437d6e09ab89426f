package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route of the notification API.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// The websocket route stays outside the timeout middleware, its connections are long-lived.
	r.Get("/notifications/ws", h.Feed)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/send", h.SendNotification)
			r.Get("/user/{userId}", h.GetUserNotifications)
			r.Get("/unread/{userId}", h.GetUnreadCount)
			r.Post("/{id}/read", h.MarkAsRead)
			r.Post("/read-all/{userId}", h.MarkAllAsRead)
		})

		r.Route("/notification-preferences/{userId}", func(r chi.Router) {
			r.Get("/", h.GetPreferences)
			r.Patch("/", h.UpdateSettings)
			r.Post("/mute", h.Mute)
			r.Post("/unmute", h.Unmute)
			r.Put("/channels", h.UpdateChannel)
			r.Put("/type", h.ToggleType)
			r.Post("/batch", h.UpdateMany)
		})

		r.Route("/notification-templates", func(r chi.Router) {
			r.Post("/", h.UpsertTemplate)
			r.Get("/", h.ListTemplates)
			r.Get("/{type}", h.GetTemplate)
			r.Delete("/{type}", h.DeleteTemplate)
			r.Post("/{type}/render", h.RenderTemplate)
		})
	})

	return r
}
