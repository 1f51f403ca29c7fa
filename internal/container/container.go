package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/backend"
	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/saulo-duarte/engmcq-web/internal/dashboard"
	"github.com/saulo-duarte/engmcq-web/internal/events"
	"github.com/saulo-duarte/engmcq-web/internal/flowstore"
	"github.com/saulo-duarte/engmcq-web/internal/gateway"
	"github.com/saulo-duarte/engmcq-web/internal/profile"
	"github.com/saulo-duarte/engmcq-web/internal/quiz"
	"github.com/saulo-duarte/engmcq-web/internal/router"
	util "github.com/saulo-duarte/engmcq-web/internal/utils"
	"github.com/saulo-duarte/engmcq-web/internal/web"
)

const (
	defaultSessionTTL     = 30 * 24 * time.Hour
	defaultBackendTimeout = 30 * time.Second
)

type Container struct {
	Config             config.Config
	Handler            http.Handler
	FlowStore          quiz.FlowRepository
	Events             *events.EventPublisher
	QuizContainer      *quiz.QuizContainer
	DashboardContainer *dashboard.DashboardContainer
	ProfileContainer   *profile.ProfileContainer

	closers []func() error
}

func New(ctx context.Context, cfg config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := util.SetDisplayLocation(cfg.Server.Timezone); err != nil {
		return nil, err
	}

	cipher, err := config.NewCipher(cfg.Auth.CryptoKey)
	if err != nil {
		return nil, fmt.Errorf("failed to init crypto: %w", err)
	}
	sessions, err := auth.NewManager(
		cfg.Auth.SessionSecret,
		cipher,
		config.TTLDuration(cfg.Auth.SessionTTL, defaultSessionTTL),
		cfg.Auth.SecureCookies,
	)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}

	publisher, err := events.NewEventPublisher(cfg.Events.RabbitURI, cfg.Events.Exchange)
	if err != nil {
		return nil, err
	}
	c.Events = publisher
	c.closers = append(c.closers, publisher.Close)

	store, closeStore, err := flowstore.Open(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open flow store: %w", err)
	}
	c.FlowStore = store
	c.closers = append(c.closers, closeStore)

	render, err := web.NewRenderer()
	if err != nil {
		c.Close()
		return nil, err
	}

	client := backend.NewClient(
		cfg.Backend.BaseURL,
		config.TTLDuration(cfg.Backend.Timeout, defaultBackendTimeout),
		*cfg.Backend.LegacyUserHeader,
	)

	oauth := auth.NewGoogleOAuthConfig(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURL)
	provider := auth.NewProvider(oauth, sessions, cfg.Server.PublicURL, cfg.Auth.SecureCookies, publisher)

	c.QuizContainer = quiz.NewQuizContainer(store, client, publisher, config.TTLDuration(cfg.Backend.Timeout, defaultBackendTimeout), render)
	c.DashboardContainer = dashboard.NewDashboardContainer(client, publisher, render)
	c.ProfileContainer = profile.NewProfileContainer(client, c.QuizContainer.Service, publisher, sessions, render)

	c.Handler = router.New(router.RouterConfig{
		CORSOrigins:      cfg.Server.CORSOrigins,
		Sessions:         sessions,
		Provider:         provider,
		AuthHandler:      auth.NewHandler(sessions),
		Pages:            web.NewPages(render),
		QuizHandler:      c.QuizContainer.QuizHandler,
		RetestHandler:    c.QuizContainer.RetestHandler,
		DashboardHandler: c.DashboardContainer.Handler,
		ProfileHandler:   c.ProfileContainer.Handler,
		GatewayHandler:   gateway.NewHandler(client),
		GatewayHooks:     c.gatewayHooks(sessions),
	})

	return c, nil
}

// gatewayHooks gives script clients the same side effects the pages have.
// Deleting the data ends the session, as the profile page does.
func (c *Container) gatewayHooks(sessions *auth.Manager) gateway.Hooks {
	emit := func(t events.EventType) gateway.AfterFunc {
		return func(_ http.ResponseWriter, r *http.Request, userID string) {
			events.Emit(r.Context(), c.Events, t, userID, map[string]any{"via": "api"})
		}
	}
	dataDeleted := emit(events.EventTypeDataDeleted)

	return gateway.Hooks{
		DashboardReset: emit(events.EventTypeDashboardReset),
		AvatarUpdated:  emit(events.EventTypeAvatarUpdated),
		DataDeleted: func(w http.ResponseWriter, r *http.Request, userID string) {
			if err := c.QuizContainer.Service.Forget(r.Context(), userID); err != nil {
				config.WithContext(r.Context()).WithError(err).Error("Failed to drop quiz flows after data deletion")
			}
			sessions.Clear(w)
			dataDeleted(w, r, userID)
		},
	}
}

// Close releases the store and broker connections in reverse order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
