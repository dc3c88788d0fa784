package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cloudtodo/core/internal/domain/entities"
	"github.com/cloudtodo/core/internal/ports"
)

// RedisRepository stores each record under <prefix>:user:<id>
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a new redis-backed store
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "todo"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

var _ ports.UserRecordRepository = (*RedisRepository)(nil)

func (r *RedisRepository) key(userID string) string {
	return fmt.Sprintf("%s:user:%s", r.prefix, userID)
}

func (r *RedisRepository) Get(ctx context.Context, userID string) (*entities.UserRecord, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entities.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get user record: %w", err)
	}

	return decodeRecord(data)
}

func (r *RedisRepository) Save(ctx context.Context, rec *entities.UserRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key(rec.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("set user record: %w", err)
	}

	return nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
