package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/saulo-duarte/engmcq-web/internal/events"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookie    = "engmcq_oauth_state"
	callbackCookie = "engmcq_callback_url"
	defaultLanding = "/home"
)

var (
	ErrMissingIDToken     = errors.New("provider response has no id_token")
	ErrInvalidIDToken     = errors.New("id token claims are invalid")
	ErrRefreshUnavailable = errors.New("session has no refresh token")
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

const stateCookieLifetime = 10 * time.Minute

type googleClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// Provider runs the Google authorization code flow and keeps sessions fresh.
type Provider struct {
	oauth     *oauth2.Config
	sessions  *Manager
	publicURL string
	secure    bool
	events    events.Publisher
}

func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func NewProvider(oauth *oauth2.Config, sessions *Manager, publicURL string, secure bool, pub events.Publisher) *Provider {
	return &Provider{
		oauth:     oauth,
		sessions:  sessions,
		publicURL: strings.TrimRight(publicURL, "/"),
		secure:    secure,
		events:    pub,
	}
}

func (p *Provider) SignIn(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	state, err := randomState()
	if err != nil {
		log.WithError(err).Error("Failed to generate oauth state")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	p.setShortCookie(w, stateCookie, state)
	p.setShortCookie(w, callbackCookie, url.QueryEscape(SafeCallback(p.publicURL, r.URL.Query().Get("callbackUrl"))))

	http.Redirect(w, r, p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusFound)
}

func (p *Provider) Callback(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		log.WithField("error", providerErr).Warn("Google sign-in was not completed")
		http.Redirect(w, r, "/?error="+url.QueryEscape(providerErr), http.StatusFound)
		return
	}

	stateC, err := r.Cookie(stateCookie)
	if err != nil || stateC.Value == "" || stateC.Value != q.Get("state") {
		log.Warn("OAuth state mismatch")
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	tok, err := p.oauth.Exchange(r.Context(), code)
	if err != nil {
		log.WithError(err).Error("Failed to exchange authorization code")
		http.Error(w, "token exchange error", http.StatusBadGateway)
		return
	}

	s, err := p.sessionFromToken(tok)
	if err != nil {
		log.WithError(err).Error("Invalid token response from Google")
		http.Error(w, "bad token response", http.StatusBadGateway)
		return
	}

	if err := p.sessions.Issue(w, s); err != nil {
		log.WithError(err).Error("Failed to issue session cookie")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	target := defaultLanding
	if c, err := r.Cookie(callbackCookie); err == nil {
		if raw, err := url.QueryUnescape(c.Value); err == nil {
			target = SafeCallback(p.publicURL, raw)
		}
	}
	p.clearCookie(w, stateCookie)
	p.clearCookie(w, callbackCookie)

	ctx := config.WithUserID(r.Context(), s.UserID)
	config.WithContext(ctx).Info("User signed in")
	events.Emit(ctx, p.events, events.EventTypeSignedIn, s.UserID, map[string]any{"email": s.Email})

	http.Redirect(w, r, target, http.StatusFound)
}

// Refresh trades the session's refresh token for a new ID token.
func (p *Provider) Refresh(ctx context.Context, s *Session) (*Session, error) {
	if s.RefreshToken == "" {
		return nil, ErrRefreshUnavailable
	}
	expired := &oauth2.Token{
		RefreshToken: s.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}
	tok, err := p.oauth.TokenSource(ctx, expired).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh google token: %w", err)
	}

	refreshed, err := p.sessionFromToken(tok)
	if err != nil {
		return nil, err
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = s.RefreshToken
	}
	if refreshed.UserID != s.UserID {
		return nil, ErrInvalidIDToken
	}
	// The uploaded avatar wins over the provider picture.
	if s.AvatarURL != "" {
		refreshed.AvatarURL = s.AvatarURL
	}
	refreshed.Expires = s.Expires
	return refreshed, nil
}

// The ID token comes straight from Google's token endpoint over TLS, so its
// claims are read without checking the signature.
func (p *Provider) sessionFromToken(tok *oauth2.Token) (*Session, error) {
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, ErrMissingIDToken
	}

	claims := &googleClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if claims.Subject == "" || !slices.Contains(googleIssuers, claims.Issuer) || !slices.Contains(claims.Audience, p.oauth.ClientID) {
		return nil, ErrInvalidIDToken
	}

	s := &Session{
		UserID:       claims.Subject,
		DisplayName:  claims.Name,
		Email:        claims.Email,
		AvatarURL:    claims.Picture,
		BearerToken:  idToken,
		RefreshToken: tok.RefreshToken,
	}
	if claims.ExpiresAt != nil {
		s.TokenExpiry = claims.ExpiresAt.Time
	}
	return s, nil
}

func (p *Provider) setShortCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(stateCookieLifetime),
	})
}

func (p *Provider) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
}

// SafeCallback returns raw when it points into this site, or /home otherwise.
// Absolute URLs are accepted only for the public origin and reduced to their path.
func SafeCallback(publicURL, raw string) string {
	if raw == "" {
		return defaultLanding
	}
	u, err := url.Parse(raw)
	if err != nil {
		return defaultLanding
	}
	if u.Scheme != "" || u.Host != "" {
		base, err := url.Parse(publicURL)
		if err != nil || base.Host == "" || u.Scheme != base.Scheme || u.Host != base.Host {
			return defaultLanding
		}
		raw = u.RequestURI()
		u, _ = url.Parse(raw)
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return defaultLanding
	}
	if u.Path == "/" {
		return defaultLanding
	}
	return raw
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
