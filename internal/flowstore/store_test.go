package flowstore

import (
	"context"
	"testing"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/saulo-duarte/engmcq-web/internal/quiz"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		var cfg config.Config
		cfg.Store.Driver = config.StoreMemory
		repo, closeFn, err := Open(ctx, cfg)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer closeFn()
		if _, ok := repo.(*MemoryStore); !ok {
			t.Fatalf("expected *MemoryStore, got %T", repo)
		}
	})

	t.Run("Redis", func(t *testing.T) {
		_, mr := newRedisStore(t, time.Minute)
		var cfg config.Config
		cfg.Store.Driver = config.StoreRedis
		cfg.Redis.Addr = mr.Addr()
		repo, closeFn, err := Open(ctx, cfg)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		defer closeFn()
		if _, ok := repo.(*RedisStore); !ok {
			t.Fatalf("expected *RedisStore, got %T", repo)
		}
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		var cfg config.Config
		cfg.Store.Driver = "etcd"
		if _, _, err := Open(ctx, cfg); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	for _, user := range []string{"user-1", "user-2"} {
		f := quiz.NewFlow(user, quiz.KindQuiz)
		if err := store.Save(ctx, &f); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	now = now.Add(2 * time.Minute)

	n, err := Sweep(ctx, store)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 swept flows, got %d (%v)", n, err)
	}

	redisStore, _ := newRedisStore(t, time.Minute)
	if n, err := Sweep(ctx, redisStore); err != nil || n != 0 {
		t.Fatalf("redis sweep should be a no-op, got %d (%v)", n, err)
	}
}

func TestRunJanitorStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunJanitor(ctx, NewMemoryStore(time.Minute), time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
