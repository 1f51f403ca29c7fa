package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/avatar", h.AvatarPage)
	r.Post("/avatar", h.UploadAvatar)
	r.Get("/data", h.DataPage)
	r.Post("/data/delete", h.DeleteData)

	return r
}
