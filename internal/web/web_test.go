package web_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/web"
)

func TestNewRenderer(t *testing.T) {
	render, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("erro ao carregar templates: %v", err)
	}
	pages := web.NewPages(render)

	t.Run("Login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		pages.Login(rec, httptest.NewRequest(http.MethodGet, "/?callbackUrl=%2Fdashboard&error=denied", nil))

		body := rec.Body.String()
		if rec.Code != http.StatusOK || !strings.Contains(body, "Sign-in failed: denied") {
			t.Errorf("página de login incorreta: %d", rec.Code)
		}
		if !strings.Contains(body, "callbackUrl=%2fdashboard") && !strings.Contains(body, "callbackUrl=%2Fdashboard") {
			t.Error("callbackUrl deveria ser preservado no link de login")
		}
	})

	t.Run("Home", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/home", nil)
		s := &auth.Session{UserID: "user-1", DisplayName: "ana"}
		req = req.WithContext(auth.WithSession(req.Context(), s))

		rec := httptest.NewRecorder()
		pages.Home(rec, req)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ana") {
			t.Errorf("página inicial deveria mostrar o usuário: %d", rec.Code)
		}
	})

	t.Run("UnknownPage", func(t *testing.T) {
		rec := httptest.NewRecorder()
		render.HTML(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "missing", "Missing", nil)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("esperado 500, recebido %d", rec.Code)
		}
	})
}
