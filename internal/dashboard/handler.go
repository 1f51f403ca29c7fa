package dashboard

import (
	"errors"
	"net/http"

	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/backend"
	"github.com/saulo-duarte/engmcq-web/internal/config"
)

const (
	msgLoadFailed  = "Could not load dashboard data."
	msgResetFailed = "Could not reset dashboard data."
)

type Renderer interface {
	HTML(w http.ResponseWriter, r *http.Request, status int, page, title string, data any)
}

type Handler struct {
	service DashboardService
	render  Renderer
}

func NewHandler(service DashboardService, render Renderer) *Handler {
	return &Handler{service: service, render: render}
}

type pageData struct {
	Dashboard    *backend.Dashboard
	Bars         []Bar
	Error        string
	ConfirmReset bool
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	s, err := auth.SessionFromContext(r.Context())
	if err != nil {
		config.WithContext(r.Context()).Warn("User not authenticated")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	data := h.load(r, s.Identity())
	data.ConfirmReset = r.URL.Query().Get("confirm") == "reset"
	h.render.HTML(w, r, http.StatusOK, "dashboard", "Dashboard", data)
}

// Reset runs only on an explicit confirm=yes; anything else goes back to the
// confirmation modal.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := auth.SessionFromContext(r.Context())
	if err != nil {
		config.WithContext(r.Context()).Warn("User not authenticated")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("confirm") != "yes" {
		http.Redirect(w, r, "/dashboard?confirm=reset", http.StatusSeeOther)
		return
	}

	if err := h.service.Reset(r.Context(), s.Identity()); err != nil {
		data := h.load(r, s.Identity())
		data.Error = detailOr(err, msgResetFailed)
		h.render.HTML(w, r, backend.StatusCode(err), "dashboard", "Dashboard", data)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) load(r *http.Request, id backend.Identity) pageData {
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		return pageData{Error: detailOr(err, msgLoadFailed)}
	}
	return pageData{Dashboard: d, Bars: Bars(d.PointsHistory)}
}

func detailOr(err error, fallback string) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
