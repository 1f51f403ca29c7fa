package flowstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/quiz"
)

// Runs against a real database when TEST_DATABASE_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := Connect(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	store := NewPostgresStore(db, time.Minute)
	userID := "test-" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		store.Delete(ctx, userID, quiz.KindQuiz)
	})

	f := quiz.NewFlow(userID, quiz.KindQuiz)
	if err := store.Save(ctx, &f); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Topic = "idioms"
	if err := store.Save(ctx, &f); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.Get(ctx, userID, quiz.KindQuiz)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Topic != "idioms" {
		t.Fatalf("upsert did not replace state: %+v", got)
	}

	if err := store.Delete(ctx, userID, quiz.KindQuiz); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, userID, quiz.KindQuiz); !errors.Is(err, quiz.ErrFlowNotFound) {
		t.Fatalf("expected ErrFlowNotFound, got %v", err)
	}
}
