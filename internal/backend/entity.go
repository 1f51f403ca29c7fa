package backend

// Identity is the caller on whose behalf a backend request is made.
type Identity struct {
	UserID      string
	BearerToken string
}

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"question_text"`
	Options []Option `json:"options"`
}

type GenerateRequest struct {
	TopicString  string `json:"topic_string"`
	NumQuestions int    `json:"num_questions"`
}

type GenerateResponse struct {
	Questions []Question `json:"questions"`
	TopicID   string     `json:"topic_id"`
}

type RetestRequest struct {
	NumQuestions int `json:"num_questions"`
}

type AnswerRequest struct {
	QuestionID       string `json:"question_id"`
	SelectedAnswerID string `json:"selected_answer_id"`
	IsRetest         bool   `json:"is_retest,omitempty"`
}

type AnswerResponse struct {
	IsCorrect         bool   `json:"is_correct"`
	CorrectAnswerID   string `json:"correct_answer_id"`
	CorrectAnswerText string `json:"correct_answer_text,omitempty"`
	CurrentPoints     *int   `json:"current_points,omitempty"`
}

type SessionSubmitRequest struct {
	AnswersMap map[string]string `json:"answers_map"`
	TopicID    string            `json:"topic_id"`
}

type SessionSubmitResponse struct {
	Message             string `json:"message,omitempty"`
	SessionPointsEarned int    `json:"session_points_earned"`
}

type PointsEntry struct {
	Timestamp string `json:"timestamp"`
	Points    int    `json:"points"`
	TopicID   string `json:"topic_id,omitempty"`
}

type WrongQuestion struct {
	QuestionID           string `json:"question_id"`
	QuestionText         string `json:"question_text"`
	TimestampMarkedWrong string `json:"timestamp_marked_wrong"`
}

// Dashboard is the aggregate progress snapshot of one user.
type Dashboard struct {
	UserID                string          `json:"user_id"`
	TotalPoints           int             `json:"total_points"`
	PreviousSessionPoints int             `json:"previous_session_points"`
	PointsHistory         []PointsEntry   `json:"points_history"`
	LastWrongQuestions    []WrongQuestion `json:"last_5_wrong_questions"`
}

type AvatarResponse struct {
	AvatarURL string `json:"avatarUrl"`
	Message   string `json:"message"`
}
