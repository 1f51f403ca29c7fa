package quiz

import (
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/events"
)

type QuizContainer struct {
	Service       QuizService
	QuizHandler   *Handler
	RetestHandler *Handler
}

func NewQuizContainer(repo FlowRepository, b Backend, pub events.Publisher, timeout time.Duration, render Renderer) *QuizContainer {
	service := NewService(repo, b, pub, timeout)

	return &QuizContainer{
		Service:       service,
		QuizHandler:   NewHandler(service, KindQuiz, "/play", render),
		RetestHandler: NewHandler(service, KindRetest, "/retest", render),
	}
}
