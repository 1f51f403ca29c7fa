package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saulo-duarte/engmcq-web/internal/config"
)

const SessionCookie = "engmcq_session"

var ErrInvalidSecret = errors.New("session secret must be at least 32 bytes")

type Claims struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Picture      string `json:"picture,omitempty"`
	IDToken      string `json:"idt"`
	RefreshToken string `json:"rt,omitempty"`
	TokenExpiry  int64  `json:"texp,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and reads the session cookie. Provider tokens are sealed
// before they go into the claims.
type Manager struct {
	secret  []byte
	cipher  *config.Cipher
	ttl     time.Duration
	secure  bool
	nowFunc func() time.Time
}

func NewManager(secret string, cipher *config.Cipher, ttl time.Duration, secure bool) (*Manager, error) {
	if len(secret) < 32 {
		return nil, ErrInvalidSecret
	}
	return &Manager{
		secret:  []byte(secret),
		cipher:  cipher,
		ttl:     ttl,
		secure:  secure,
		nowFunc: time.Now,
	}, nil
}

func (m *Manager) GenerateJWT(s *Session, duration time.Duration) (string, error) {
	idToken, err := m.cipher.Encrypt(s.BearerToken)
	if err != nil {
		return "", fmt.Errorf("seal id token: %w", err)
	}
	refresh, err := m.cipher.Encrypt(s.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("seal refresh token: %w", err)
	}

	now := m.nowFunc()
	claims := Claims{
		Name:         s.DisplayName,
		Email:        s.Email,
		Picture:      s.AvatarURL,
		IDToken:      idToken,
		RefreshToken: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	if !s.TokenExpiry.IsZero() {
		claims.TokenExpiry = s.TokenExpiry.Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.nowFunc))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}
	return claims, nil
}

// Session opens the sealed tokens carried by claims.
func (m *Manager) Session(claims *Claims) (*Session, error) {
	idToken, err := m.cipher.Decrypt(claims.IDToken)
	if err != nil {
		return nil, fmt.Errorf("open id token: %w", err)
	}
	refresh, err := m.cipher.Decrypt(claims.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("open refresh token: %w", err)
	}
	s := &Session{
		UserID:       claims.Subject,
		DisplayName:  claims.Name,
		Email:        claims.Email,
		AvatarURL:    claims.Picture,
		BearerToken:  idToken,
		RefreshToken: refresh,
	}
	if claims.TokenExpiry > 0 {
		s.TokenExpiry = time.Unix(claims.TokenExpiry, 0)
	}
	if claims.ExpiresAt != nil {
		s.Expires = claims.ExpiresAt.Time
	}
	return s, nil
}

// Read returns the session carried by the request cookie.
func (m *Manager) Read(r *http.Request) (*Session, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, ErrNoSession
	}
	claims, err := m.ValidateJWT(c.Value)
	if err != nil {
		return nil, err
	}
	return m.Session(claims)
}

// Issue writes a fresh session cookie for s.
func (m *Manager) Issue(w http.ResponseWriter, s *Session) error {
	return m.write(w, s, m.ttl)
}

// Reissue rewrites the cookie for s keeping its current expiry.
func (m *Manager) Reissue(w http.ResponseWriter, s *Session) error {
	if s.Expires.IsZero() {
		return m.write(w, s, m.ttl)
	}
	remaining := s.Expires.Sub(m.nowFunc())
	if remaining <= 0 {
		return jwt.ErrTokenExpired
	}
	return m.write(w, s, remaining)
}

func (m *Manager) write(w http.ResponseWriter, s *Session, d time.Duration) error {
	tokenStr, err := m.GenerateJWT(s, d)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(d.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.Expires = m.nowFunc().Add(d)
	return nil
}

// Clear removes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}
