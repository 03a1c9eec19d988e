package security

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// RedisStorage persists the state document under a single redis key,
// so several servers can share one installation's state.
type RedisStorage struct {
	// client is the redis connection pool.
	client redis.UniversalClient
	// key holds the JSON document.
	key string
}

// NewRedisStorage wraps an existing redis client.
func NewRedisStorage(client redis.UniversalClient, key string) *RedisStorage {
	return &RedisStorage{
		client: client,
		key:    key,
	}
}

// Load reads the state document from redis.
func (s *RedisStorage) Load(ctx context.Context) (*domain.State, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}

	return decodeState(data)
}

// Save writes the state document to redis without expiration.
func (s *RedisStorage) Save(ctx context.Context, state *domain.State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}

	if err = s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}

	return nil
}
