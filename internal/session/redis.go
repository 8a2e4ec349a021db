package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nmarks/driftpad/internal/apperr"
)

const keyPrefix = "refresh:"

// RedisStore implements Store backed by Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at addr and verifies the connection.
func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient creates a store from an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save stores the session JSON under the token hash with the given TTL.
func (s *RedisStore) Save(ctx context.Context, token string, data Data, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+HashToken(token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("session: set: %w", err)
	}
	return nil
}

// Get returns the session for the token, or ErrNotFound when missing.
func (s *RedisStore) Get(ctx context.Context, token string) (Data, error) {
	raw, err := s.client.Get(ctx, keyPrefix+HashToken(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Data{}, apperr.ErrNotFound
	}
	if err != nil {
		return Data{}, fmt.Errorf("session: get: %w", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return data, nil
}

// Delete removes the session for the token.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+HashToken(token)).Err(); err != nil {
		return fmt.Errorf("session: del: %w", err)
	}
	return nil
}
