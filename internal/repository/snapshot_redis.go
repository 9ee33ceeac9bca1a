package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"FxForecast/internal/domain/models"
	domrepo "FxForecast/internal/domain/repository"
)

// RedisStore mirrors snapshot documents into Redis so every replica can
// serve them without sharing a filesystem.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	if s.prefix == "" {
		return "snapshot:" + name
	}
	return s.prefix + ":snapshot:" + name
}

// Save replaces the document in a single SET.
func (s *RedisStore) Save(ctx context.Context, name string, doc []byte) error {
	if err := s.client.Set(ctx, s.key(name), doc, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, name string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", name, models.ErrSnapshotUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return b, nil
}

func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ domrepo.SnapshotStore = (*RedisStore)(nil)
