package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"labrat/internal/errors"
)

// keyPrefix namespaces session keys so the store can share a Redis
// instance with other tenants.
const keyPrefix = "labrat:session:"

// RedisStore persists datasets as JSON blobs with Redis-native expiry.
// This is the backend for multi-replica deployments.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client; the caller owns connection
// options, the store owns key layout and TTLs.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, ds *Dataset) (string, error) {
	id := uuid.NewString()
	if err := s.write(ctx, id, ds); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Dataset, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, errors.SessionNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get session %s", id)
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, errors.Wrapf(err, "decode session %s", id)
	}
	return &ds, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, ds *Dataset) error {
	exists, err := s.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return errors.Wrapf(err, "redis exists session %s", id)
	}
	if exists == 0 {
		return errors.SessionNotFound(id)
	}
	return s.write(ctx, id, ds)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return errors.Wrapf(err, "redis delete session %s", id)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) write(ctx context.Context, id string, ds *Dataset) error {
	raw, err := json.Marshal(ds)
	if err != nil {
		return errors.Wrap(err, "encode session dataset")
	}
	if err := s.client.Set(ctx, keyPrefix+id, raw, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set session %s", id)
	}
	return nil
}
