package profile

import (
	"errors"
	"io"
	"net/http"

	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/backend"
	"github.com/saulo-duarte/engmcq-web/internal/config"
)

// Multipart overhead allowed on top of the image itself.
const formOverhead = 64 << 10

type Renderer interface {
	HTML(w http.ResponseWriter, r *http.Request, status int, page, title string, data any)
}

// SessionWriter updates or removes the session cookie.
type SessionWriter interface {
	Reissue(w http.ResponseWriter, s *auth.Session) error
	Clear(w http.ResponseWriter)
}

type Handler struct {
	service  ProfileService
	sessions SessionWriter
	render   Renderer
}

func NewHandler(service ProfileService, sessions SessionWriter, render Renderer) *Handler {
	return &Handler{service: service, sessions: sessions, render: render}
}

type avatarData struct {
	Error   string
	Message string
}

type dataPage struct {
	Error string
}

func (h *Handler) AvatarPage(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "avatar", "Set avatar", avatarData{})
}

func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	s, err := auth.SessionFromContext(r.Context())
	if err != nil {
		log.Warn("User not authenticated")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := readUpload(w, r)
	if err != nil {
		h.render.HTML(w, r, http.StatusBadRequest, "avatar", "Set avatar", avatarData{Error: err.Error()})
		return
	}

	result, err := h.service.UpdateAvatar(r.Context(), s.Identity(), u)
	var avatarErr *AvatarError
	switch {
	case err == nil:
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrInvalidType):
		h.render.HTML(w, r, http.StatusBadRequest, "avatar", "Set avatar", avatarData{Error: err.Error()})
		return
	case errors.As(err, &avatarErr):
		h.render.HTML(w, r, http.StatusBadGateway, "avatar", "Set avatar", avatarData{Error: avatarErr.Message})
		return
	default:
		h.render.HTML(w, r, backend.StatusCode(err), "avatar", "Set avatar", avatarData{Error: detailOr(err, "Failed to upload avatar.")})
		return
	}

	s.AvatarURL = result.URL
	if err := h.sessions.Reissue(w, &s); err != nil {
		log.WithError(err).Error("Failed to reissue session cookie")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	r = r.WithContext(auth.WithSession(r.Context(), &s))
	h.render.HTML(w, r, http.StatusOK, "avatar", "Set avatar", avatarData{Message: result.Message})
}

func (h *Handler) DataPage(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "data", "Data control", dataPage{})
}

// DeleteData signs the user out once their data is gone.
func (h *Handler) DeleteData(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	s, err := auth.SessionFromContext(r.Context())
	if err != nil {
		log.Warn("User not authenticated")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("confirm") != "yes" {
		http.Redirect(w, r, "/profile/data", http.StatusSeeOther)
		return
	}

	if err := h.service.DeleteData(r.Context(), s.Identity()); err != nil {
		h.render.HTML(w, r, backend.StatusCode(err), "data", "Data control", dataPage{
			Error: "Failed to delete data: " + backend.Message(err),
		})
		return
	}

	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// readUpload reads the "file" field, stopping one byte past the size limit so
// oversized images are told apart from broken forms.
func readUpload(w http.ResponseWriter, r *http.Request) (Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxAvatarSize+formOverhead)
	if err := r.ParseMultipartForm(MaxAvatarSize + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return Upload{}, ErrFileTooLarge
		}
		return Upload{}, ErrNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return Upload{}, ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxAvatarSize+1))
	if err != nil {
		return Upload{}, ErrNoFile
	}
	return Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func detailOr(err error, fallback string) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
