package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrUnavailable = errors.New("backend unavailable")

// APIError is a non-success answer from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// Message returns the human readable part of err, suitable for inline display.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	if errors.Is(err, ErrUnavailable) {
		return "the learning service is unavailable"
	}
	return err.Error()
}

// StatusCode maps err to the status a gateway route should answer with.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

// parseDetail extracts FastAPI's "detail" (a string, or a list of validation
// errors) from an error body.
func parseDetail(status int, body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Detail) > 0 {
			var s string
			if err := json.Unmarshal(envelope.Detail, &s); err == nil && s != "" {
				return s
			}
			var list []struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(envelope.Detail, &list); err == nil && len(list) > 0 {
				msgs := make([]string, 0, len(list))
				for _, item := range list {
					msgs = append(msgs, item.Msg)
				}
				return strings.Join(msgs, "; ")
			}
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return fmt.Sprintf("Error: %d", status)
}
