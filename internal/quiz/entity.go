package quiz

import (
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/engmcq-web/internal/backend"
)

type Kind string

const (
	KindQuiz   Kind = "quiz"
	KindRetest Kind = "retest"
)

type Stage string

const (
	StageTopicSelection Stage = "topic_selection"
	StagePlaying        Stage = "playing"
	StageCompleted      Stage = "completed"
)

type Phase string

const (
	PhaseUnanswered    Phase = "unanswered"
	PhaseFeedbackShown Phase = "feedback_shown"
)

type Op string

const (
	OpGenerate      Op = "generate"
	OpAnswer        Op = "answer"
	OpSubmitSession Op = "submit_session"
)

const (
	MaxQuizQuestions   = 20
	MaxRetestQuestions = 50
	DefaultQuestions   = 5
)

// Feedback is the backend's verdict on the answer to one question.
type Feedback struct {
	QuestionID        string `json:"question_id"`
	SelectedOptionID  string `json:"selected_option_id"`
	IsCorrect         bool   `json:"is_correct"`
	CorrectOptionID   string `json:"correct_option_id"`
	CorrectOptionText string `json:"correct_option_text,omitempty"`
}

// Pending marks the one request a flow is waiting on.
type Pending struct {
	ID         uuid.UUID `json:"id"`
	Op         Op        `json:"op"`
	QuestionID string    `json:"question_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// Since is how long the request has been outstanding. Marks written before
// StartedAt existed fall back to the flow's last update.
func (p Pending) Since(now, updated time.Time) time.Duration {
	start := p.StartedAt
	if start.IsZero() {
		start = updated
	}
	return now.Sub(start)
}

// Flow is the server-side state of one quiz or retest run. There is one flow
// per user and kind.
type Flow struct {
	ID         uuid.UUID          `json:"id"`
	UserID     string             `json:"user_id"`
	Kind       Kind               `json:"kind"`
	Stage      Stage              `json:"stage"`
	Phase      Phase              `json:"phase"`
	Topic      string             `json:"topic,omitempty"`
	TopicID    string             `json:"topic_id,omitempty"`
	Requested  int                `json:"requested,omitempty"`
	Questions  []backend.Question `json:"questions,omitempty"`
	Index      int                `json:"index"`
	Selections map[string]string  `json:"selections"`
	Results    map[string]bool    `json:"results,omitempty"`
	Feedback   *Feedback          `json:"feedback,omitempty"`
	Notice     string             `json:"notice,omitempty"`
	Error      string             `json:"error,omitempty"`
	Points     *int               `json:"points,omitempty"`
	Total      *int               `json:"total_points,omitempty"`
	Pending    *Pending           `json:"pending,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func NewFlow(userID string, kind Kind) Flow {
	return Flow{
		ID:         uuid.New(),
		UserID:     userID,
		Kind:       kind,
		Stage:      StageTopicSelection,
		Phase:      PhaseUnanswered,
		Selections: map[string]string{},
		UpdatedAt:  time.Now().UTC(),
	}
}

// Current returns the displayed question, if any.
func (f Flow) Current() (backend.Question, bool) {
	if f.Stage != StagePlaying || f.Index < 0 || f.Index >= len(f.Questions) {
		return backend.Question{}, false
	}
	return f.Questions[f.Index], true
}

func (f Flow) IsLast() bool {
	return f.Index == len(f.Questions)-1
}

func (f Flow) Correct() int {
	n := 0
	for _, ok := range f.Results {
		if ok {
			n++
		}
	}
	return n
}

func (k Kind) MaxQuestions() int {
	if k == KindRetest {
		return MaxRetestQuestions
	}
	return MaxQuizQuestions
}

func (k Kind) Valid() bool {
	return k == KindQuiz || k == KindRetest
}
