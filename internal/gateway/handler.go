package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/backend"
	"github.com/saulo-duarte/engmcq-web/internal/config"
)

// maxBody bounds relayed request bodies; the avatar upload is the largest.
const maxBody = 4 << 20

type Forwarder interface {
	Forward(ctx context.Context, method, path string, id backend.Identity, body io.Reader, contentType string) (*http.Response, error)
}

// Handler relays script-client calls to the MCQ backend with the caller's
// identity attached. Success bodies pass through untouched; failures are
// reshaped into {"detail": ...}.
type Handler struct {
	backend Forwarder
}

func NewHandler(b Forwarder) *Handler {
	return &Handler{backend: b}
}

// AfterFunc runs once the backend accepted a relayed call, before the
// response is written, so it may still set headers and cookies on w.
type AfterFunc func(w http.ResponseWriter, r *http.Request, userID string)

func (h *Handler) Relay(method, path string, after ...AfterFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := config.WithContext(r.Context()).WithField("path", path)

		s, err := auth.SessionFromContext(r.Context())
		if err != nil {
			config.ErrorJSON(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var body io.Reader
		contentType := ""
		if method != http.MethodGet && method != http.MethodDelete && r.ContentLength != 0 {
			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					config.ErrorJSON(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				config.ErrorJSON(w, http.StatusBadRequest, "invalid request body")
				return
			}
			body = bytes.NewReader(data)
			contentType = r.Header.Get("Content-Type")
		}

		resp, err := h.backend.Forward(r.Context(), method, path, s.Identity(), body, contentType)
		if err != nil {
			log.WithError(err).Warn("Failed to reach backend")
			config.ErrorJSON(w, backend.StatusCode(err), backend.Message(err))
			return
		}
		defer resp.Body.Close()

		if err := backend.CheckResponse(resp); err != nil {
			var apiErr *backend.APIError
			errors.As(err, &apiErr)
			log.WithField("status", apiErr.Status).Debug("Backend answered with an error")
			config.ErrorJSON(w, apiErr.Status, apiErr.Detail)
			return
		}

		for _, fn := range after {
			fn(w, r, s.UserID)
		}

		ct := resp.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/json"
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			log.WithError(err).Warn("Failed to relay backend response")
		}
	}
}
