package quiz

import (
	"fmt"

	"github.com/saulo-duarte/engmcq-web/internal/backend"
)

type OptionView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Selected  bool   `json:"selected"`
	Correct   bool   `json:"correct"`
	WrongPick bool   `json:"wrong_pick"`
}

// View is what a page or script client needs to draw a flow.
type View struct {
	Kind         Kind         `json:"kind"`
	Stage        Stage        `json:"stage"`
	Phase        Phase        `json:"phase"`
	Topic        string       `json:"topic,omitempty"`
	Requested    int          `json:"requested,omitempty"`
	MaxQuestions int          `json:"max_questions"`
	Notice       string       `json:"notice,omitempty"`
	Error        string       `json:"error,omitempty"`
	Busy         bool         `json:"busy"`
	BusyLabel    string       `json:"busy_label,omitempty"`
	Number       int          `json:"number,omitempty"`
	Count        int          `json:"count,omitempty"`
	QuestionID   string       `json:"question_id,omitempty"`
	QuestionText string       `json:"question_text,omitempty"`
	Options      []OptionView `json:"options,omitempty"`
	Feedback     *Feedback    `json:"feedback,omitempty"`
	Verdict      string       `json:"verdict,omitempty"`
	CanPrevious  bool         `json:"can_previous"`
	CanSubmit    bool         `json:"can_submit"`
	ActionLabel  string       `json:"action_label,omitempty"`
	Points       *int         `json:"points,omitempty"`
	TotalPoints  *int         `json:"total_points,omitempty"`
	Correct      int          `json:"correct"`
}

func NewView(f Flow) View {
	v := View{
		Kind:         f.Kind,
		Stage:        f.Stage,
		Phase:        f.Phase,
		Topic:        f.Topic,
		Requested:    f.Requested,
		MaxQuestions: f.Kind.MaxQuestions(),
		Notice:       f.Notice,
		Error:        f.Error,
		Busy:         f.Pending != nil,
		Points:       f.Points,
		TotalPoints:  f.Total,
		Correct:      f.Correct(),
		Count:        len(f.Questions),
	}
	if v.Requested == 0 {
		v.Requested = DefaultQuestions
	}
	if f.Pending != nil {
		v.BusyLabel = busyLabel(f.Pending.Op)
	}

	q, ok := f.Current()
	if !ok {
		return v
	}

	selected := f.Selections[q.ID]
	v.Number = f.Index + 1
	v.QuestionID = q.ID
	v.QuestionText = q.Text
	v.Options = optionViews(q, selected, f.Feedback)
	v.CanPrevious = f.Index > 0 && f.Phase == PhaseUnanswered && f.Pending == nil

	if f.Feedback != nil {
		v.Feedback = f.Feedback
		v.Verdict = verdict(*f.Feedback)
		v.CanSubmit = f.Pending == nil
		v.ActionLabel = "Continue"
		return v
	}

	v.CanSubmit = selected != "" && f.Pending == nil
	switch {
	case !f.IsLast():
		v.ActionLabel = "Next"
	case f.Kind == KindQuiz:
		v.ActionLabel = "Submit Quiz"
	default:
		v.ActionLabel = "Submit Answer"
	}
	return v
}

func optionViews(q backend.Question, selected string, fb *Feedback) []OptionView {
	out := make([]OptionView, 0, len(q.Options))
	for _, o := range q.Options {
		ov := OptionView{ID: o.ID, Text: o.Text, Selected: o.ID == selected}
		if fb != nil && fb.QuestionID == q.ID {
			ov.Correct = o.ID == fb.CorrectOptionID
			ov.WrongPick = o.ID == fb.SelectedOptionID && !fb.IsCorrect
		}
		out = append(out, ov)
	}
	return out
}

func verdict(fb Feedback) string {
	if fb.IsCorrect {
		return "Correct!"
	}
	text := fb.CorrectOptionText
	if text == "" {
		text = "N/A"
	}
	return fmt.Sprintf("Incorrect. The correct answer was %s: %s", fb.CorrectOptionID, text)
}

func busyLabel(op Op) string {
	switch op {
	case OpGenerate:
		return "Generating..."
	case OpAnswer:
		return "Saving..."
	default:
		return "Submitting..."
	}
}
