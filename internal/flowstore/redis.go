package flowstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saulo-duarte/engmcq-web/internal/quiz"
)

// RedisStore shares flows between instances. Every save refreshes the TTL so
// abandoned flows disappear on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID string, kind quiz.Kind) (*quiz.Flow, error) {
	data, err := s.client.Get(ctx, key(userID, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, quiz.ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get flow: %w", err)
	}

	var f quiz.Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode flow: %w", err)
	}
	return &f, nil
}

func (s *RedisStore) Save(ctx context.Context, f *quiz.Flow) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(f.UserID, f.Kind), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save flow: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string, kind quiz.Kind) error {
	return s.client.Del(ctx, key(userID, kind)).Err()
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
