package dashboard

import (
	"context"

	"github.com/saulo-duarte/engmcq-web/internal/backend"
	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/saulo-duarte/engmcq-web/internal/events"
)

type Backend interface {
	Dashboard(ctx context.Context, id backend.Identity) (*backend.Dashboard, error)
	ResetDashboard(ctx context.Context, id backend.Identity) error
}

type DashboardService interface {
	Get(ctx context.Context, id backend.Identity) (*backend.Dashboard, error)
	Reset(ctx context.Context, id backend.Identity) error
}

type dashboardService struct {
	backend Backend
	events  events.Publisher
}

func NewService(b Backend, pub events.Publisher) DashboardService {
	return &dashboardService{backend: b, events: pub}
}

func (s *dashboardService) Get(ctx context.Context, id backend.Identity) (*backend.Dashboard, error) {
	d, err := s.backend.Dashboard(ctx, id)
	if err != nil {
		config.WithContext(ctx).WithError(err).Warn("Failed to fetch dashboard")
		return nil, err
	}
	return d, nil
}

func (s *dashboardService) Reset(ctx context.Context, id backend.Identity) error {
	log := config.WithContext(ctx)

	if err := s.backend.ResetDashboard(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to reset dashboard")
		return err
	}

	log.Info("Dashboard reset")
	events.Emit(ctx, s.events, events.EventTypeDashboardReset, id.UserID, nil)
	return nil
}
