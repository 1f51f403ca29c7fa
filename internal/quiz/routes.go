package quiz

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Page)
	r.Post("/{action}", h.Act)
	return r
}

func APIRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.State)
	r.Post("/{action}", h.ActJSON)
	return r
}
