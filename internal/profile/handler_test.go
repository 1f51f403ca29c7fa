package profile_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/backend"
	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/saulo-duarte/engmcq-web/internal/profile"
	"github.com/saulo-duarte/engmcq-web/internal/web"
)

const (
	testSecret    = "uma-chave-secreta-para-testes-segura-e-longa"
	testCryptoKey = "01234567890123456789012345678901"
)

func newManager(t *testing.T) *auth.Manager {
	t.Helper()
	c, err := config.NewCipher(testCryptoKey)
	if err != nil {
		t.Fatalf("NewCipher falhou: %v", err)
	}
	m, err := auth.NewManager(testSecret, c, time.Hour, false)
	if err != nil {
		t.Fatalf("NewManager falhou: %v", err)
	}
	return m
}

func newRouter(t *testing.T, b profile.Backend, flows profile.FlowForgetter, m *auth.Manager) http.Handler {
	t.Helper()
	render, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("erro ao carregar templates: %v", err)
	}
	c := profile.NewProfileContainer(b, flows, nil, m, render)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s := &auth.Session{
				UserID:      "user-1",
				DisplayName: "Ana",
				BearerToken: "id-token",
				AvatarURL:   "https://cdn.example/old.png",
				Expires:     time.Now().Add(30 * time.Minute),
			}
			next.ServeHTTP(w, req.WithContext(auth.WithSession(req.Context(), s)))
		})
	})
	r.Mount("/profile", profile.Routes(c.Handler))
	return r
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart falhou: %v", err)
		}
		part.Write(data)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func sessionFrom(t *testing.T, m *auth.Manager, rec *httptest.ResponseRecorder) *auth.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	s, err := m.Read(req)
	if err != nil {
		t.Fatalf("cookie de sessão inválido: %v", err)
	}
	return s
}

func TestUploadAvatarHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		m := newManager(t)
		router := newRouter(t, &fakeBackend{avatarURL: "https://cdn.example/new.png", message: "Avatar saved"}, nil, m)

		body, ct := multipartBody(t, "me.png", "image/png", pngBytes)
		req := httptest.NewRequest(http.MethodPost, "/profile/avatar", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("esperado 200, recebido %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Avatar saved") {
			t.Error("mensagem de sucesso ausente")
		}
		s := sessionFrom(t, m, rec)
		if !strings.HasPrefix(s.AvatarURL, "https://cdn.example/new.png?v=") {
			t.Errorf("avatar não atualizado no cookie: %q", s.AvatarURL)
		}
		if s.BearerToken != "id-token" {
			t.Error("token do provedor deveria ser mantido")
		}
		if time.Until(s.Expires) > 31*time.Minute {
			t.Errorf("a validade da sessão não deveria ser estendida: %v", s.Expires)
		}
	})

	t.Run("NoFile", func(t *testing.T) {
		router := newRouter(t, &fakeBackend{}, nil, newManager(t))
		body, ct := multipartBody(t, "", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/profile/avatar", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Please select an image file.") {
			t.Errorf("esperado 400 com mensagem, recebido %d", rec.Code)
		}
	})

	t.Run("TooLarge", func(t *testing.T) {
		b := &fakeBackend{avatarURL: "https://cdn.example/new.png"}
		router := newRouter(t, b, nil, newManager(t))
		data := append(append([]byte{}, pngBytes...), make([]byte, profile.MaxAvatarSize)...)
		body, ct := multipartBody(t, "big.png", "image/png", data)
		req := httptest.NewRequest(http.MethodPost, "/profile/avatar", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "File is too large. Maximum size is 2MB.") {
			t.Errorf("esperado 400 com mensagem, recebido %d", rec.Code)
		}
		if b.uploadCount != 0 {
			t.Error("arquivo grande não deveria ser enviado")
		}
	})

	t.Run("BackendError", func(t *testing.T) {
		router := newRouter(t, &fakeBackend{uploadErr: &backend.APIError{Status: 413, Detail: "Image rejected"}}, nil, newManager(t))
		body, ct := multipartBody(t, "me.png", "image/png", pngBytes)
		req := httptest.NewRequest(http.MethodPost, "/profile/avatar", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge || !strings.Contains(rec.Body.String(), "Image rejected") {
			t.Errorf("esperado 413 com detalhe, recebido %d", rec.Code)
		}
	})
}

func TestDeleteDataHandler(t *testing.T) {
	post := func(router http.Handler, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/profile/data/delete", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("RequiresConfirmation", func(t *testing.T) {
		b := &fakeBackend{}
		rec := post(newRouter(t, b, nil, newManager(t)), url.Values{})
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/profile/data" {
			t.Errorf("esperado redirecionamento para confirmação, recebido %d", rec.Code)
		}
		if b.deleted != 0 {
			t.Error("dados não deveriam ser apagados sem confirmação")
		}
	})

	t.Run("SignsOut", func(t *testing.T) {
		b := &fakeBackend{}
		flows := &fakeFlows{}
		rec := post(newRouter(t, b, flows, newManager(t)), url.Values{"confirm": {"yes"}})

		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
			t.Errorf("esperado redirecionamento para /, recebido %d %q", rec.Code, rec.Header().Get("Location"))
		}
		var cleared bool
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.SessionCookie && c.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Error("cookie de sessão deveria ser removido")
		}
		if b.deleted != 1 || len(flows.forgotten) != 1 {
			t.Error("exclusão não executada por completo")
		}
	})

	t.Run("Failure", func(t *testing.T) {
		b := &fakeBackend{deleteErr: &backend.APIError{Status: 500, Detail: "database offline"}}
		rec := post(newRouter(t, b, nil, newManager(t)), url.Values{"confirm": {"yes"}})
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("esperado 500, recebido %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Failed to delete data: database offline") {
			t.Error("mensagem de falha ausente")
		}
		for _, c := range rec.Result().Cookies() {
			if c.Name == auth.SessionCookie {
				t.Error("sessão não deveria ser alterada em caso de falha")
			}
		}
	})
}
