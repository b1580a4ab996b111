package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"estate_admin/config"
)

const redisKeyPrefix = "estate:"

type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(ctx context.Context, cfg *config.RedisConfig) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &RedisKV{client: client}, nil
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, redisKeyPrefix+key, value, 0).Err()
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *RedisKV) Close() error {
	return s.client.Close()
}
