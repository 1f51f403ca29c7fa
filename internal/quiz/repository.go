package quiz

import (
	"context"
	"errors"
)

var ErrFlowNotFound = errors.New("flow not found")

// FlowRepository persists flows between requests, keyed by user and kind.
type FlowRepository interface {
	Get(ctx context.Context, userID string, kind Kind) (*Flow, error)
	Save(ctx context.Context, f *Flow) error
	Delete(ctx context.Context, userID string, kind Kind) error
}
