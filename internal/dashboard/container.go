package dashboard

import "github.com/saulo-duarte/engmcq-web/internal/events"

type DashboardContainer struct {
	Service DashboardService
	Handler *Handler
}

func NewDashboardContainer(b Backend, pub events.Publisher, render Renderer) *DashboardContainer {
	service := NewService(b, pub)
	handler := NewHandler(service, render)

	return &DashboardContainer{
		Service: service,
		Handler: handler,
	}
}
