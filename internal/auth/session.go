package auth

import (
	"context"
	"errors"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/backend"
)

var ErrNoSession = errors.New("no session in context")

type ctxKey string

const sessionKey ctxKey = "session"

// Session is the signed-in user as seen by handlers.
type Session struct {
	UserID      string
	DisplayName string
	Email       string
	AvatarURL   string
	BearerToken string

	RefreshToken string
	TokenExpiry  time.Time
	// Expires is when the session cookie itself lapses.
	Expires time.Time
}

func (s *Session) Identity() backend.Identity {
	return backend.Identity{UserID: s.UserID, BearerToken: s.BearerToken}
}

// Expired reports whether the provider ID token must be refreshed before use.
func (s *Session) Expired(now time.Time) bool {
	return !s.TokenExpiry.IsZero() && now.After(s.TokenExpiry.Add(-30*time.Second))
}

// View is the token-free JSON shape of a session.
type View struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Image string `json:"image,omitempty"`
	} `json:"user"`
	Expires string `json:"expires"`
}

func (s *Session) View() View {
	var v View
	v.User.ID = s.UserID
	v.User.Name = s.DisplayName
	v.User.Email = s.Email
	v.User.Image = s.AvatarURL
	v.Expires = s.Expires.UTC().Format(time.RFC3339)
	return v
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns a copy of the request's session.
func SessionFromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(sessionKey).(*Session)
	if !ok || s == nil {
		return Session{}, ErrNoSession
	}
	return *s, nil
}
