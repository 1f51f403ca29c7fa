package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/saulo-duarte/engmcq-web/internal/dashboard"
	"github.com/saulo-duarte/engmcq-web/internal/gateway"
	"github.com/saulo-duarte/engmcq-web/internal/profile"
	"github.com/saulo-duarte/engmcq-web/internal/quiz"
	"github.com/saulo-duarte/engmcq-web/internal/web"
)

type RouterConfig struct {
	CORSOrigins      []string
	Sessions         *auth.Manager
	Provider         *auth.Provider
	AuthHandler      *auth.Handler
	Pages            *web.Pages
	QuizHandler      *quiz.Handler
	RetestHandler    *quiz.Handler
	DashboardHandler *dashboard.Handler
	ProfileHandler   *profile.Handler
	GatewayHandler   *gateway.Handler
	GatewayHooks     gateway.Hooks
}

func New(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.RequestLogger())
	r.Use(config.Metrics())
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.Guard(cfg.Sessions, cfg.Provider))

	r.Get("/healthz", web.Healthz)
	r.Handle("/metrics", config.MetricsHandler())
	r.Handle("/static/*", web.Static())
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/static/favicon.svg", http.StatusMovedPermanently)
	})

	r.Mount("/api/auth", auth.Routes(cfg.AuthHandler, cfg.Provider))

	r.Get("/", cfg.Pages.Login)
	r.Get("/home", cfg.Pages.Home)
	r.Mount("/play", quiz.Routes(cfg.QuizHandler))
	r.Mount("/retest", quiz.Routes(cfg.RetestHandler))
	r.Mount("/dashboard", dashboard.Routes(cfg.DashboardHandler))
	r.Mount("/profile", profile.Routes(cfg.ProfileHandler))

	r.Mount("/api/play", quiz.APIRoutes(cfg.QuizHandler))
	r.Mount("/api/retest", quiz.APIRoutes(cfg.RetestHandler))
	gateway.Routes(r, cfg.GatewayHandler, cfg.GatewayHooks)

	return r
}
