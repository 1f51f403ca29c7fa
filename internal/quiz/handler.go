package quiz

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/engmcq-web/internal/auth"
	"github.com/saulo-duarte/engmcq-web/internal/config"
)

// Renderer draws an HTML page inside the site layout.
type Renderer interface {
	HTML(w http.ResponseWriter, r *http.Request, status int, page, title string, data any)
}

type Handler struct {
	service QuizService
	kind    Kind
	base    string
	render  Renderer
}

func NewHandler(s QuizService, kind Kind, base string, render Renderer) *Handler {
	return &Handler{service: s, kind: kind, base: base, render: render}
}

type pageData struct {
	Base string
	View View
}

type actionPayload struct {
	Topic      string `json:"topic_string"`
	Count      int    `json:"num_questions"`
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
}

func (h *Handler) title() string {
	if h.kind == KindRetest {
		return "Retest"
	}
	return "Play"
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	s, err := auth.SessionFromContext(r.Context())
	if err != nil {
		log.Warn("Opening a flow page without a session")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	f, err := h.service.Load(r.Context(), s.Identity(), h.kind)
	if err != nil {
		log.WithError(err).Error("Failed to load quiz flow")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "flow", h.title(), pageData{Base: h.base, View: NewView(f)})
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	s, err := auth.SessionFromContext(r.Context())
	if err != nil {
		config.ErrorJSON(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	f, err := h.service.Load(r.Context(), s.Identity(), h.kind)
	if err != nil {
		log.WithError(err).Error("Failed to load quiz flow")
		config.ErrorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	config.JSON(w, http.StatusOK, NewView(f))
}

// Act handles a form post from the page and redirects back to it.
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())
	action := chi.URLParam(r, "action")

	s, err := auth.SessionFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/?callbackUrl="+h.base, http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	count, _ := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("count")))
	ev, ok := eventFor(action, actionPayload{
		Topic:      r.PostForm.Get("topic"),
		Count:      count,
		QuestionID: r.PostForm.Get("question_id"),
		OptionID:   r.PostForm.Get("option_id"),
	})
	if !ok {
		http.NotFound(w, r)
		return
	}

	_, err = h.service.Apply(r.Context(), s.Identity(), h.kind, ev)
	var verr *ValidationError
	switch {
	case err == nil, errors.As(err, &verr):
	case errors.Is(err, ErrBusy), errors.Is(err, ErrInvalidEvent), errors.Is(err, ErrInvalidSelection), errors.Is(err, ErrStaleResult):
		log.WithError(err).WithField("action", action).Debug("Ignoring action not allowed in the current state")
	default:
		log.WithError(err).WithField("action", action).Error("Failed to apply quiz action")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if action == "exit" {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.base, http.StatusSeeOther)
}

// ActJSON is the script-client twin of Act.
func (h *Handler) ActJSON(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())
	action := chi.URLParam(r, "action")

	s, err := auth.SessionFromContext(r.Context())
	if err != nil {
		config.ErrorJSON(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var payload actionPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.WithError(err).Warn("Invalid quiz action body")
			config.ErrorJSON(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	ev, ok := eventFor(action, payload)
	if !ok {
		config.ErrorJSON(w, http.StatusNotFound, "unknown action")
		return
	}

	f, err := h.service.Apply(r.Context(), s.Identity(), h.kind, ev)
	var verr *ValidationError
	switch {
	case err == nil:
		config.JSON(w, http.StatusOK, NewView(f))
	case errors.As(err, &verr):
		config.JSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": verr.Message, "state": NewView(f)})
	case errors.Is(err, ErrBusy):
		config.ErrorJSON(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidEvent), errors.Is(err, ErrStaleResult):
		config.ErrorJSON(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidSelection):
		config.ErrorJSON(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).WithField("action", action).Error("Failed to apply quiz action")
		config.ErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}

func eventFor(action string, p actionPayload) (Event, bool) {
	switch action {
	case "start":
		return Start{Topic: p.Topic, Count: p.Count}, true
	case "select":
		return Select{QuestionID: p.QuestionID, OptionID: p.OptionID}, true
	case "answer":
		return SubmitAnswer{}, true
	case "continue":
		return Continue{}, true
	case "previous":
		return Previous{}, true
	case "change-topic":
		return ChangeTopic{}, true
	case "exit":
		return Exit{}, true
	case "dismiss":
		return Dismiss{}, true
	}
	return nil, false
}
