package auth

import "github.com/go-chi/chi/v5"

func Routes(h *Handler, p *Provider) chi.Router {
	r := chi.NewRouter()

	r.Get("/signin/google", p.SignIn)
	r.Get("/callback/google", p.Callback)
	r.Post("/signout", h.Logout)
	r.Get("/signout", h.Logout)
	r.Get("/session", h.Session)
	return r
}
