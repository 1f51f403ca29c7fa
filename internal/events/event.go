package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeSignedIn       EventType = "user.signed_in"
	EventTypeQuizCompleted  EventType = "quiz.completed"
	EventTypeRetestComplete EventType = "retest.completed"
	EventTypeDashboardReset EventType = "dashboard.reset"
	EventTypeDataDeleted    EventType = "user.data_deleted"
	EventTypeAvatarUpdated  EventType = "user.avatar_updated"
)

type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	UserID     string         `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func NewEvent(t EventType, userID string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}
