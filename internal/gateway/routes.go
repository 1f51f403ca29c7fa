package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Hooks are side effects of relayed calls that the web pages would
// otherwise perform themselves.
type Hooks struct {
	DashboardReset AfterFunc
	AvatarUpdated  AfterFunc
	DataDeleted    AfterFunc
}

// Routes registers the backend passthrough endpoints on r under their
// backend paths.
func Routes(r chi.Router, h *Handler, hooks Hooks) {
	r.Post("/api/mcqs/generate", h.Relay(http.MethodPost, "/api/mcqs/generate"))
	r.Post("/api/mcqs/answer", h.Relay(http.MethodPost, "/api/mcqs/answer"))
	r.Post("/api/mcqs/session/submit", h.Relay(http.MethodPost, "/api/mcqs/session/submit"))
	r.Post("/api/retest/generate", h.Relay(http.MethodPost, "/api/retest/generate"))
	r.Get("/api/dashboard", h.Relay(http.MethodGet, "/api/dashboard"))
	r.Post("/api/dashboard/reset", h.Relay(http.MethodPost, "/api/dashboard/reset", optional(hooks.DashboardReset)...))
	r.Put("/api/users/me/avatar", h.Relay(http.MethodPut, "/api/users/me/avatar", optional(hooks.AvatarUpdated)...))
	r.Delete("/api/users/me/data", h.Relay(http.MethodDelete, "/api/users/me/data", optional(hooks.DataDeleted)...))
}

func optional(fn AfterFunc) []AfterFunc {
	if fn == nil {
		return nil
	}
	return []AfterFunc{fn}
}
