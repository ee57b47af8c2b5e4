package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis with a TTL matching their expiry, so
// multiple instances share one session space and restarts keep logins alive.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (st *RedisStore) Create(ctx context.Context, s Session) (string, error) {
	id := uuid.NewString()
	payload, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return "", errors.New("session already expired")
	}
	if err := st.client.Set(ctx, redisKeyPrefix+id, payload, ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (st *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	payload, err := st.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return Session{}, err
	}
	if s.Expired() {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (st *RedisStore) Delete(ctx context.Context, id string) error {
	return st.client.Del(ctx, redisKeyPrefix+id).Err()
}
