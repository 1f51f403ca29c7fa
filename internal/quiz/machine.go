package quiz

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/engmcq-web/internal/backend"
)

var (
	ErrBusy             = errors.New("a request is already in progress")
	ErrStaleResult      = errors.New("result does not match the pending request")
	ErrInvalidEvent     = errors.New("event not allowed in the current state")
	ErrInvalidSelection = errors.New("option does not belong to the current question")
)

const (
	msgSelectAnswer      = "Please select an answer."
	msgEnterTopic        = "Please enter a topic."
	msgFetchFailed       = "An unexpected error occurred while fetching questions."
	msgNoQuizQuestions   = "No questions found for this topic. Please try a different topic."
	msgNoRetestQuestions = "No wrong questions found to retest, or none available for the number requested."
	msgInterrupted       = "Your last request did not finish. Please try again."
)

// ValidationError is raised before any request is made. The flow returned
// alongside it carries the same message in Error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type Event interface {
	event()
}

type Start struct {
	Topic string
	Count int
}

type QuestionsLoaded struct {
	RequestID uuid.UUID
	Questions []backend.Question
	TopicID   string
}

type RequestFailed struct {
	RequestID uuid.UUID
	Message   string
}

type Select struct {
	QuestionID string
	OptionID   string
}

type SubmitAnswer struct{}

type AnswerRecorded struct {
	RequestID uuid.UUID
	Feedback  Feedback
	Total     *int
}

type Continue struct{}

type SessionSubmitted struct {
	RequestID uuid.UUID
	Points    int
}

type Previous struct{}

type ChangeTopic struct{}

type Exit struct{}

type Dismiss struct{}

// Abandon drops a pending mark whose request will never report back.
type Abandon struct {
	RequestID uuid.UUID
}

func (Start) event()            {}
func (QuestionsLoaded) event()  {}
func (RequestFailed) event()    {}
func (Select) event()           {}
func (SubmitAnswer) event()     {}
func (AnswerRecorded) event()   {}
func (Continue) event()         {}
func (SessionSubmitted) event() {}
func (Previous) event()         {}
func (ChangeTopic) event()      {}
func (Exit) event()             {}
func (Dismiss) event()          {}
func (Abandon) event()          {}

// Transition applies ev to f and returns the next state. f itself is never
// modified. On error the input flow is returned unchanged, except for
// *ValidationError whose flow carries the inline message.
func Transition(f Flow, ev Event) (Flow, error) {
	next := f.clone()
	next.UpdatedAt = time.Now().UTC()

	var err error
	switch e := ev.(type) {
	case Start:
		err = next.start(e)
	case QuestionsLoaded:
		err = next.questionsLoaded(e)
	case RequestFailed:
		err = next.requestFailed(e)
	case Select:
		err = next.selectOption(e)
	case SubmitAnswer:
		err = next.submitAnswer()
	case AnswerRecorded:
		err = next.answerRecorded(e)
	case Continue:
		err = next.proceed()
	case SessionSubmitted:
		err = next.sessionSubmitted(e)
	case Previous:
		err = next.previous()
	case ChangeTopic:
		if next.Stage != StagePlaying && next.Pending == nil {
			return f, ErrInvalidEvent
		}
		next = NewFlow(f.UserID, f.Kind)
	case Exit:
		if next.Stage != StageCompleted {
			return f, ErrInvalidEvent
		}
		next = NewFlow(f.UserID, f.Kind)
	case Dismiss:
		next.Error = ""
	case Abandon:
		if next.Pending == nil || next.Pending.ID != e.RequestID {
			return f, ErrStaleResult
		}
		next.Pending = nil
		next.Error = msgInterrupted
	default:
		return f, fmt.Errorf("%w: %T", ErrInvalidEvent, ev)
	}

	var verr *ValidationError
	if err != nil && !errors.As(err, &verr) {
		return f, err
	}
	return next, err
}

func (f *Flow) start(e Start) error {
	if f.Pending != nil {
		return ErrBusy
	}
	if f.Stage != StageTopicSelection {
		return ErrInvalidEvent
	}

	topic := strings.TrimSpace(e.Topic)
	if f.Kind == KindQuiz && topic == "" {
		return f.invalid(msgEnterTopic)
	}
	if limit := f.Kind.MaxQuestions(); e.Count < 1 || e.Count > limit {
		return f.invalid(fmt.Sprintf("Please enter a valid number of questions (1-%d).", limit))
	}

	f.Topic = topic
	f.Requested = e.Count
	f.Error = ""
	f.Notice = ""
	f.Pending = &Pending{ID: uuid.New(), Op: OpGenerate, StartedAt: f.UpdatedAt}
	return nil
}

func (f *Flow) questionsLoaded(e QuestionsLoaded) error {
	if err := f.resolve(e.RequestID, OpGenerate); err != nil {
		return err
	}

	if len(e.Questions) == 0 {
		f.Stage = StageTopicSelection
		if f.Kind == KindRetest {
			f.Error = msgNoRetestQuestions
		} else {
			f.Error = msgNoQuizQuestions
		}
		return nil
	}

	f.Stage = StagePlaying
	f.Phase = PhaseUnanswered
	f.Questions = e.Questions
	f.Index = 0
	f.Selections = map[string]string{}
	f.Results = map[string]bool{}
	f.Feedback = nil
	f.Points = nil
	f.Error = ""
	if f.Kind == KindQuiz {
		f.TopicID = e.TopicID
		if f.TopicID == "" {
			f.TopicID = FallbackTopicID(f.Topic)
		}
	}
	if got := len(e.Questions); got < f.Requested {
		if f.Kind == KindRetest {
			f.Notice = fmt.Sprintf("Note: You requested %d questions, but only %d were available to retest.", f.Requested, got)
		} else {
			f.Notice = fmt.Sprintf("Note: You requested %d questions, but only %d were available for the topic \"%s\".", f.Requested, got, f.Topic)
		}
	}
	return nil
}

func (f *Flow) requestFailed(e RequestFailed) error {
	if f.Pending == nil || f.Pending.ID != e.RequestID {
		return ErrStaleResult
	}
	op := f.Pending.Op
	f.Pending = nil

	switch op {
	case OpGenerate:
		f.Error = e.Message
		if f.Error == "" {
			f.Error = msgFetchFailed
		}
	case OpAnswer:
		if f.Kind == KindRetest {
			f.Error = fmt.Sprintf("Could not submit your answer: %s. Please try again.", e.Message)
		} else {
			f.Error = fmt.Sprintf("Could not save your answer: %s. Please try again.", e.Message)
		}
	case OpSubmitSession:
		f.Error = fmt.Sprintf("Failed to submit quiz: %s", e.Message)
	}
	return nil
}

func (f *Flow) selectOption(e Select) error {
	if f.Stage != StagePlaying {
		return ErrInvalidEvent
	}
	if f.Phase == PhaseFeedbackShown || f.Pending != nil {
		return nil
	}

	q, _ := f.Current()
	if q.ID != e.QuestionID || !hasOption(q, e.OptionID) {
		return ErrInvalidSelection
	}
	f.Selections[e.QuestionID] = e.OptionID
	if f.Error == msgSelectAnswer {
		f.Error = ""
	}
	return nil
}

func (f *Flow) submitAnswer() error {
	if f.Pending != nil {
		return ErrBusy
	}
	if f.Stage != StagePlaying || f.Phase != PhaseUnanswered {
		return ErrInvalidEvent
	}

	q, _ := f.Current()
	if f.Selections[q.ID] == "" {
		return f.invalid(msgSelectAnswer)
	}
	f.Error = ""
	f.Pending = &Pending{ID: uuid.New(), Op: OpAnswer, QuestionID: q.ID, StartedAt: f.UpdatedAt}
	return nil
}

func (f *Flow) answerRecorded(e AnswerRecorded) error {
	if err := f.resolve(e.RequestID, OpAnswer); err != nil {
		return err
	}

	fb := e.Feedback
	q, _ := f.Current()
	fb.QuestionID = q.ID
	fb.SelectedOptionID = f.Selections[q.ID]

	f.Phase = PhaseFeedbackShown
	f.Feedback = &fb
	f.Results[q.ID] = fb.IsCorrect
	if e.Total != nil {
		total := *e.Total
		f.Total = &total
	}
	return nil
}

func (f *Flow) proceed() error {
	if f.Pending != nil {
		return ErrBusy
	}
	if f.Stage != StagePlaying || f.Phase != PhaseFeedbackShown {
		return ErrInvalidEvent
	}

	f.Error = ""
	if !f.IsLast() {
		f.Index++
		f.Phase = PhaseUnanswered
		f.Feedback = nil
		return nil
	}

	if f.Kind == KindRetest {
		f.Stage = StageCompleted
		f.Feedback = nil
		return nil
	}
	f.Pending = &Pending{ID: uuid.New(), Op: OpSubmitSession, StartedAt: f.UpdatedAt}
	return nil
}

func (f *Flow) sessionSubmitted(e SessionSubmitted) error {
	if err := f.resolve(e.RequestID, OpSubmitSession); err != nil {
		return err
	}
	points := e.Points
	f.Points = &points
	f.Stage = StageCompleted
	f.Feedback = nil
	return nil
}

func (f *Flow) previous() error {
	if f.Pending != nil {
		return ErrBusy
	}
	if f.Stage != StagePlaying || f.Phase != PhaseUnanswered || f.Index == 0 {
		return ErrInvalidEvent
	}
	f.Index--
	f.Feedback = nil
	f.Error = ""
	return nil
}

// resolve clears the pending mark when id answers it. An answer result also
// has to belong to the question still on screen.
func (f *Flow) resolve(id uuid.UUID, op Op) error {
	if f.Pending == nil || f.Pending.ID != id || f.Pending.Op != op {
		return ErrStaleResult
	}
	if op == OpAnswer {
		if q, ok := f.Current(); !ok || q.ID != f.Pending.QuestionID {
			return ErrStaleResult
		}
	}
	f.Pending = nil
	return nil
}

func (f *Flow) invalid(msg string) error {
	f.Error = msg
	return &ValidationError{Message: msg}
}

func (f Flow) clone() Flow {
	out := f
	out.Selections = maps.Clone(f.Selections)
	if out.Selections == nil {
		out.Selections = map[string]string{}
	}
	out.Results = maps.Clone(f.Results)
	if out.Results == nil {
		out.Results = map[string]bool{}
	}
	if f.Feedback != nil {
		fb := *f.Feedback
		out.Feedback = &fb
	}
	if f.Pending != nil {
		p := *f.Pending
		out.Pending = &p
	}
	return out
}

func hasOption(q backend.Question, optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

var whitespace = regexp.MustCompile(`\s+`)

// FallbackTopicID derives a topic id when the backend did not return one.
func FallbackTopicID(topic string) string {
	return "topic_" + whitespace.ReplaceAllString(strings.ToLower(topic), "_")
}
