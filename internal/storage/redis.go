package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingSignInPrefix = "save2win:signin:"

// Ensure RedisStorage implements Storage
var _ Storage = (*RedisStorage)(nil)

// RedisOptions configures RedisStorage
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStorage keeps pending sign-ins in Redis, letting key TTLs do the
// expiry. Consumption uses GETDEL so it is atomic across replicas.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage connects and pings the server
func NewRedisStorage(ctx context.Context, opts RedisOptions) (*RedisStorage, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStorage{client: client}, nil
}

func pendingSignInKey(id string) string {
	return pendingSignInPrefix + id
}

// SavePendingSignIn stores p with a TTL matching its expiry
func (s *RedisStorage) SavePendingSignIn(ctx context.Context, p PendingSignIn) error {
	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("pending sign-in already expired")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal pending sign-in: %w", err)
	}

	ok, err := s.client.SetNX(ctx, pendingSignInKey(p.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store pending sign-in: %w", err)
	}
	if !ok {
		return ErrSignInExists
	}
	return nil
}

// ConsumePendingSignIn atomically fetches and deletes the record
func (s *RedisStorage) ConsumePendingSignIn(ctx context.Context, id, state string) (*PendingSignIn, error) {
	data, err := s.client.GetDel(ctx, pendingSignInKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSignInNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume pending sign-in: %w", err)
	}

	var p PendingSignIn
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending sign-in: %w", err)
	}

	// Double-check expiry in case Redis TTL drifted
	if p.IsExpired(time.Now()) {
		return nil, ErrSignInNotFound
	}
	if !statesMatch(p.State, state) {
		return nil, ErrStateMismatch
	}
	return &p, nil
}

// CleanupExpired is a no-op: Redis expires keys itself
func (s *RedisStorage) CleanupExpired(context.Context) (int, error) {
	return 0, nil
}

// Close closes the Redis connection
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
