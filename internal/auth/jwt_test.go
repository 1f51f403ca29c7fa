package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/config"
)

const testSecret = "uma-chave-secreta-para-testes-segura-e-longa"
const testCryptoKey = "01234567890123456789012345678901"
const testUserID = "google-sub-123"

func newManager(t *testing.T, secret string) *auth.Manager {
	t.Helper()
	c, err := config.NewCipher(testCryptoKey)
	if err != nil {
		t.Fatalf("NewCipher falhou: %v", err)
	}
	m, err := auth.NewManager(secret, c, time.Hour, false)
	if err != nil {
		t.Fatalf("NewManager falhou: %v", err)
	}
	return m
}

func testSession() *auth.Session {
	return &auth.Session{
		UserID:       testUserID,
		DisplayName:  "Ana",
		Email:        "ana@example.com",
		AvatarURL:    "https://lh3.example/ana.png",
		BearerToken:  "id-token-abc",
		RefreshToken: "refresh-xyz",
		TokenExpiry:  time.Now().Add(time.Hour).Truncate(time.Second),
	}
}

func TestNewManager(t *testing.T) {
	t.Run("ShortSecret", func(t *testing.T) {
		c, _ := config.NewCipher(testCryptoKey)
		if _, err := auth.NewManager("curta", c, time.Hour, false); !errors.Is(err, auth.ErrInvalidSecret) {
			t.Errorf("NewManager deveria falhar com segredo curto, recebido: %v", err)
		}
	})

	t.Run("ValidSecret", func(t *testing.T) {
		newManager(t, testSecret)
	})
}

func TestGenerateAndValidateJWT(t *testing.T) {
	m := newManager(t, testSecret)

	t.Run("ValidToken", func(t *testing.T) {
		tokenStr, err := m.GenerateJWT(testSession(), time.Minute*5)
		if err != nil {
			t.Fatalf("GenerateJWT falhou: %v", err)
		}

		claims, err := m.ValidateJWT(tokenStr)
		if err != nil {
			t.Fatalf("ValidateJWT falhou inesperadamente: %v", err)
		}
		if claims.Subject != testUserID {
			t.Errorf("Subject incorreto. Esperado: %s, Recebido: %s", testUserID, claims.Subject)
		}
		if claims.IDToken == "id-token-abc" {
			t.Error("O id token deveria estar criptografado dentro do JWT")
		}

		s, err := m.Session(claims)
		if err != nil {
			t.Fatalf("Session falhou: %v", err)
		}
		want := testSession()
		if s.BearerToken != want.BearerToken || s.RefreshToken != want.RefreshToken {
			t.Errorf("Tokens não correspondem após abrir a sessão: %+v", s)
		}
		if !s.TokenExpiry.Equal(want.TokenExpiry) {
			t.Errorf("TokenExpiry incorreto. Esperado: %v, Recebido: %v", want.TokenExpiry, s.TokenExpiry)
		}
		if s.Email != want.Email || s.DisplayName != want.DisplayName || s.AvatarURL != want.AvatarURL {
			t.Errorf("Perfil incorreto: %+v", s)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		tokenStr, err := m.GenerateJWT(testSession(), -time.Second)
		if err != nil {
			t.Fatalf("GenerateJWT falhou: %v", err)
		}

		_, err = m.ValidateJWT(tokenStr)
		if !errors.Is(err, jwt.ErrTokenExpired) {
			t.Errorf("Erro incorreto retornado para token expirado. Esperado: %v, Recebido: %v", jwt.ErrTokenExpired, err)
		}
	})

	t.Run("InvalidSignature", func(t *testing.T) {
		tokenStr, err := m.GenerateJWT(testSession(), time.Minute)
		if err != nil {
			t.Fatalf("GenerateJWT falhou: %v", err)
		}

		other := newManager(t, "chave-secreta-falsa-diferente-e-longa-o-bastante")
		_, err = other.ValidateJWT(tokenStr)
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			t.Errorf("Erro incorreto para assinatura inválida: %v", err)
		}
	})
}

func TestCookieRoundTrip(t *testing.T) {
	m := newManager(t, testSecret)

	rec := httptest.NewRecorder()
	if err := m.Issue(rec, testSession()); err != nil {
		t.Fatalf("Issue falhou: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.SessionCookie {
		t.Fatalf("cookie de sessão não emitido: %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("cookie de sessão deveria ser HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(cookies[0])
	s, err := m.Read(req)
	if err != nil {
		t.Fatalf("Read falhou: %v", err)
	}
	if s.UserID != testUserID || s.BearerToken != "id-token-abc" {
		t.Errorf("sessão lida incorreta: %+v", s)
	}
	if s.Expires.IsZero() {
		t.Error("Expires deveria vir das claims do cookie")
	}

	t.Run("NoCookie", func(t *testing.T) {
		_, err := m.Read(httptest.NewRequest(http.MethodGet, "/home", nil))
		if !errors.Is(err, auth.ErrNoSession) {
			t.Errorf("esperado ErrNoSession, recebido %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.Clear(rec)
		c := rec.Result().Cookies()
		if len(c) != 1 || c[0].MaxAge >= 0 {
			t.Errorf("Clear deveria expirar o cookie: %+v", c)
		}
	})
}
