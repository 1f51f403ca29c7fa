package profile

import "github.com/saulo-duarte/engmcq-web/internal/events"

type ProfileContainer struct {
	Service ProfileService
	Handler *Handler
}

func NewProfileContainer(b Backend, flows FlowForgetter, pub events.Publisher, sessions SessionWriter, render Renderer) *ProfileContainer {
	service := NewService(b, flows, pub)
	handler := NewHandler(service, sessions, render)

	return &ProfileContainer{
		Service: service,
		Handler: handler,
	}
}
