package auth

import (
	"net/http"
	"strings"

	"github.com/saulo-duarte/engmcq-web/internal/config"
)

type Handler struct {
	sessions *Manager
}

func NewHandler(sessions *Manager) *Handler {
	return &Handler{sessions: sessions}
}

// Logout clears the session cookie. Browsers are sent back to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		config.JSON(w, http.StatusOK, map[string]string{
			"message": "logout successful",
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Session answers with the token-free view of the current session, or an
// empty object when signed out.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	s, err := SessionFromContext(r.Context())
	if err != nil {
		config.JSON(w, http.StatusOK, map[string]any{})
		return
	}
	config.JSON(w, http.StatusOK, s.View())
}
