package quiz

import (
	"context"
	"errors"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/backend"
	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/saulo-duarte/engmcq-web/internal/events"
	"github.com/sirupsen/logrus"
)

// Backend is the part of the learning service the flows talk to.
type Backend interface {
	GenerateQuestions(ctx context.Context, id backend.Identity, topic string, n int) (*backend.GenerateResponse, error)
	GenerateRetest(ctx context.Context, id backend.Identity, n int) (*backend.GenerateResponse, error)
	SubmitAnswer(ctx context.Context, id backend.Identity, req backend.AnswerRequest) (*backend.AnswerResponse, error)
	SubmitSession(ctx context.Context, id backend.Identity, req backend.SessionSubmitRequest) (*backend.SessionSubmitResponse, error)
}

type QuizService interface {
	Load(ctx context.Context, id backend.Identity, kind Kind) (Flow, error)
	Apply(ctx context.Context, id backend.Identity, kind Kind, ev Event) (Flow, error)
	Forget(ctx context.Context, userID string) error
}

type quizService struct {
	repo     FlowRepository
	backend  Backend
	events   events.Publisher
	timeout  time.Duration
	locks    *keyedMutex
	inflight *inflight
}

func NewService(repo FlowRepository, b Backend, pub events.Publisher, timeout time.Duration) QuizService {
	return &quizService{
		repo:     repo,
		backend:  b,
		events:   pub,
		timeout:  timeout,
		locks:    newKeyedMutex(),
		inflight: newInflight(),
	}
}

func flowKey(userID string, kind Kind) string {
	return string(kind) + ":" + userID
}

func (s *quizService) Load(ctx context.Context, id backend.Identity, kind Kind) (Flow, error) {
	unlock := s.locks.Lock(flowKey(id.UserID, kind))
	defer unlock()
	return s.load(ctx, id.UserID, kind)
}

func (s *quizService) load(ctx context.Context, userID string, kind Kind) (Flow, error) {
	f, err := s.repo.Get(ctx, userID, kind)
	if errors.Is(err, ErrFlowNotFound) {
		return NewFlow(userID, kind), nil
	}
	if err != nil {
		return Flow{}, err
	}
	if !s.abandoned(*f) {
		return *f, nil
	}

	log := config.WithContext(ctx).WithFields(logrus.Fields{"kind": kind, "request_id": f.Pending.ID})
	next, err := Transition(*f, Abandon{RequestID: f.Pending.ID})
	if err != nil {
		return *f, nil
	}
	log.Warn("Clearing a request that never reported back")
	if err := s.save(ctx, &next); err != nil {
		log.WithError(err).Error("Failed to save recovered quiz flow")
	}
	return next, nil
}

// abandoned reports whether f waits on a request no instance can still be
// making: every call is bounded by the backend timeout.
func (s *quizService) abandoned(f Flow) bool {
	if f.Pending == nil || s.inflight.has(f.Pending.ID) {
		return false
	}
	return f.Pending.Since(time.Now().UTC(), f.UpdatedAt) > 2*s.timeout
}

// save retries once on a context detached from the request, so a cancelled
// client cannot leave a pending mark behind.
func (s *quizService) save(ctx context.Context, f *Flow) error {
	err := s.repo.Save(ctx, f)
	if err == nil {
		return nil
	}
	config.WithContext(ctx).WithError(err).Warn("Failed to save quiz flow, retrying")
	return s.repo.Save(context.WithoutCancel(ctx), f)
}

// Apply runs ev through the machine. When the transition starts a request the
// backend call is made outside the flow lock and its result is fed back as
// another event; a result that lost the race to ChangeTopic or Exit is dropped.
func (s *quizService) Apply(ctx context.Context, id backend.Identity, kind Kind, ev Event) (Flow, error) {
	log := config.WithContext(ctx).WithField("kind", kind)

	prev, next, started, err := s.step(ctx, id.UserID, kind, ev)
	if err != nil || started == nil {
		if err == nil && finished(prev, next) {
			s.completed(ctx, next)
		}
		return next, err
	}

	result := s.perform(ctx, id, next, *started)

	_, final, _, err := s.step(ctx, id.UserID, kind, result)
	if errors.Is(err, ErrStaleResult) {
		log.WithField("request_id", started.ID).Info("Discarding result of a superseded request")
		return s.Load(ctx, id, kind)
	}
	if err != nil {
		return final, err
	}

	if finished(next, final) {
		s.completed(ctx, final)
	}
	return final, nil
}

func finished(prev, next Flow) bool {
	return prev.ID == next.ID && prev.Stage != StageCompleted && next.Stage == StageCompleted
}

// step loads, transitions and saves under the flow lock. Besides the flow
// before and after, it reports the pending request the transition created.
func (s *quizService) step(ctx context.Context, userID string, kind Kind, ev Event) (Flow, Flow, *Pending, error) {
	unlock := s.locks.Lock(flowKey(userID, kind))
	defer unlock()

	cur, err := s.load(ctx, userID, kind)
	if err != nil {
		return Flow{}, Flow{}, nil, err
	}

	next, terr := Transition(cur, ev)
	var verr *ValidationError
	if terr != nil && !errors.As(terr, &verr) {
		return cur, cur, nil, terr
	}

	switch ev.(type) {
	case ChangeTopic, Exit:
		if cur.Pending != nil && s.inflight.cancel(cur.Pending.ID) {
			config.WithContext(ctx).WithField("request_id", cur.Pending.ID).Info("Cancelled in-flight request")
		}
	}

	if err := s.save(ctx, &next); err != nil {
		config.WithContext(ctx).WithError(err).Error("Failed to save quiz flow")
		return cur, cur, nil, err
	}

	if next.Pending != nil && (cur.Pending == nil || cur.Pending.ID != next.Pending.ID) {
		p := *next.Pending
		return cur, next, &p, terr
	}
	return cur, next, nil, terr
}

// perform makes the backend call for p and turns its outcome into an event.
func (s *quizService) perform(ctx context.Context, id backend.Identity, f Flow, p Pending) Event {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	s.inflight.add(p.ID, cancel)
	defer s.inflight.done(p.ID)

	log := config.WithContext(ctx).WithFields(logrus.Fields{"kind": f.Kind, "op": p.Op})

	switch p.Op {
	case OpGenerate:
		var (
			resp *backend.GenerateResponse
			err  error
		)
		if f.Kind == KindRetest {
			resp, err = s.backend.GenerateRetest(callCtx, id, f.Requested)
		} else {
			resp, err = s.backend.GenerateQuestions(callCtx, id, f.Topic, f.Requested)
		}
		if err != nil {
			log.WithError(err).Warn("Failed to generate questions")
			return RequestFailed{RequestID: p.ID, Message: errorDetail(err)}
		}
		return QuestionsLoaded{RequestID: p.ID, Questions: resp.Questions, TopicID: resp.TopicID}

	case OpAnswer:
		resp, err := s.backend.SubmitAnswer(callCtx, id, backend.AnswerRequest{
			QuestionID:       p.QuestionID,
			SelectedAnswerID: f.Selections[p.QuestionID],
			IsRetest:         f.Kind == KindRetest,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to save answer")
			return RequestFailed{RequestID: p.ID, Message: errorDetail(err)}
		}
		return AnswerRecorded{
			RequestID: p.ID,
			Feedback: Feedback{
				IsCorrect:         resp.IsCorrect,
				CorrectOptionID:   resp.CorrectAnswerID,
				CorrectOptionText: resp.CorrectAnswerText,
			},
			Total: resp.CurrentPoints,
		}

	case OpSubmitSession:
		resp, err := s.backend.SubmitSession(callCtx, id, backend.SessionSubmitRequest{
			AnswersMap: f.Selections,
			TopicID:    f.TopicID,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to submit quiz session")
			return RequestFailed{RequestID: p.ID, Message: errorDetail(err)}
		}
		return SessionSubmitted{RequestID: p.ID, Points: resp.SessionPointsEarned}
	}

	return RequestFailed{RequestID: p.ID, Message: "unknown request"}
}

func errorDetail(err error) string {
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "the learning service took too long to answer"
	}
	return backend.Message(err)
}

func (s *quizService) completed(ctx context.Context, f Flow) {
	data := map[string]any{
		"flow_id":   f.ID.String(),
		"questions": len(f.Questions),
		"correct":   f.Correct(),
	}
	t := events.EventTypeRetestComplete
	if f.Kind == KindQuiz {
		t = events.EventTypeQuizCompleted
		data["topic"] = f.Topic
		data["topic_id"] = f.TopicID
		if f.Points != nil {
			data["points"] = *f.Points
		}
	}
	config.FlowsCompleted.WithLabelValues(string(f.Kind)).Inc()
	config.WithContext(ctx).WithField("flow_id", f.ID).Infof("%s flow completed", f.Kind)
	events.Emit(ctx, s.events, t, f.UserID, data)
}

// Forget drops every flow of the user and cancels their outstanding calls.
func (s *quizService) Forget(ctx context.Context, userID string) error {
	var errs []error
	for _, kind := range []Kind{KindQuiz, KindRetest} {
		unlock := s.locks.Lock(flowKey(userID, kind))
		if f, err := s.repo.Get(ctx, userID, kind); err == nil && f.Pending != nil {
			s.inflight.cancel(f.Pending.ID)
		}
		if err := s.repo.Delete(ctx, userID, kind); err != nil && !errors.Is(err, ErrFlowNotFound) {
			errs = append(errs, err)
		}
		unlock()
	}
	return errors.Join(errs...)
}
