package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StateStore tracks OAuth state nonces so callbacks can be matched to
// authorize redirects issued by any instance.
type StateStore interface {
	// Issue records a fresh state nonce and returns it.
	Issue(ctx context.Context) (string, error)
	// Consume removes the nonce and reports whether it was known.
	Consume(ctx context.Context, state string) (bool, error)
}

// RedisStateStore stores state nonces in Redis with a TTL bounding how
// long an authorize redirect stays valid.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore creates a state store using the provided Redis
// client and TTL.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: ttl}
}

func (r *RedisStateStore) key(state string) string {
	return "oauth-state:" + state
}

func (r *RedisStateStore) Issue(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := r.client.SetNX(ctx, r.key(state), 1, r.ttl).Err(); err != nil {
		return "", err
	}
	return state, nil
}

func (r *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	n, err := r.client.Del(ctx, r.key(state)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
