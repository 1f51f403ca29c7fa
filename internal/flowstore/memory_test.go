package flowstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/quiz"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	f := quiz.NewFlow("user-1", quiz.KindQuiz)
	f.Selections["q1"] = "a"
	if err := store.Save(ctx, &f); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "user-1", quiz.KindQuiz)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != f.ID || got.Selections["q1"] != "a" {
		t.Fatalf("unexpected flow %+v", got)
	}

	got.Selections["q1"] = "b"
	again, _ := store.Get(ctx, "user-1", quiz.KindQuiz)
	if again.Selections["q1"] != "a" {
		t.Fatalf("stored flow was mutated through a returned copy")
	}

	if _, err := store.Get(ctx, "user-1", quiz.KindRetest); !errors.Is(err, quiz.ErrFlowNotFound) {
		t.Fatalf("expected ErrFlowNotFound for other kind, got %v", err)
	}

	if err := store.Delete(ctx, "user-1", quiz.KindQuiz); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "user-1", quiz.KindQuiz); !errors.Is(err, quiz.ErrFlowNotFound) {
		t.Fatalf("expected ErrFlowNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	f := quiz.NewFlow("user-1", quiz.KindRetest)
	if err := store.Save(ctx, &f); err != nil {
		t.Fatalf("save: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "user-1", quiz.KindRetest); !errors.Is(err, quiz.ErrFlowNotFound) {
		t.Fatalf("expected expired flow to be gone, got %v", err)
	}
	if n := store.Sweep(); n != 1 {
		t.Fatalf("expected sweep to drop 1 entry, dropped %d", n)
	}
}
