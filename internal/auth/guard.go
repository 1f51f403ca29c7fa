package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/config"
)

type Action int

const (
	Allow Action = iota
	Redirect
)

type Decision struct {
	Action   Action
	Location string
}

var (
	publicPrefixes = []string{"/api/auth", "/static/", "/healthz", "/metrics"}
	publicSuffixes = []string{".ico", ".png", ".jpg", ".svg"}
)

// Decide is the navigation policy. Anything outside the public allow-list
// needs a session; the root doubles as the login page.
func Decide(path string, authenticated bool) Decision {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return Decision{Action: Allow}
		}
	}
	for _, s := range publicSuffixes {
		if strings.HasSuffix(path, s) {
			return Decision{Action: Allow}
		}
	}

	if path == "/" {
		if authenticated {
			return Decision{Action: Redirect, Location: defaultLanding}
		}
		return Decision{Action: Allow}
	}

	if !authenticated {
		return Decision{Action: Redirect, Location: "/?callbackUrl=" + url.QueryEscape(path)}
	}
	return Decision{Action: Allow}
}

type Refresher interface {
	Refresh(ctx context.Context, s *Session) (*Session, error)
}

// Guard loads the session cookie, refreshing an expired ID token when it can,
// and enforces Decide. JSON routes get a 401 instead of a redirect.
func Guard(sessions *Manager, refresher Refresher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := config.WithContext(r.Context())

			s, err := sessions.Read(r)
			if err != nil && !errors.Is(err, ErrNoSession) {
				log.WithError(err).Debug("Discarding invalid session cookie")
				sessions.Clear(w)
			}

			if s != nil && s.Expired(time.Now()) {
				s = refreshSession(r, w, sessions, refresher, s)
			}

			d := Decide(r.URL.Path, s != nil)
			if d.Action == Redirect {
				if s == nil && strings.HasPrefix(r.URL.Path, "/api/") {
					config.ErrorJSON(w, http.StatusUnauthorized, "Not authenticated")
					return
				}
				http.Redirect(w, r, d.Location, http.StatusFound)
				return
			}

			ctx := r.Context()
			if s != nil {
				ctx = WithSession(ctx, s)
				ctx = config.WithUserID(ctx, s.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func refreshSession(r *http.Request, w http.ResponseWriter, sessions *Manager, refresher Refresher, s *Session) *Session {
	log := config.WithContext(r.Context()).WithField("user_id", s.UserID)
	if refresher == nil {
		sessions.Clear(w)
		return nil
	}

	refreshed, err := refresher.Refresh(r.Context(), s)
	if err != nil {
		log.WithError(err).Warn("Failed to refresh Google ID token, signing out")
		sessions.Clear(w)
		return nil
	}
	if err := sessions.Reissue(w, refreshed); err != nil {
		log.WithError(err).Error("Failed to reissue refreshed session")
		sessions.Clear(w)
		return nil
	}
	return refreshed
}
