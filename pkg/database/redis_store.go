package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis backend
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps each document under "<prefix>:<collection>:<key>"
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "pancyguard"
	}

	logger.Success("Conectado exitosamente a Redis.", "Redis")
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(collection, key string) string {
	return s.prefix + ":" + collection + ":" + key
}

func (s *RedisStore) Load(ctx context.Context, collection, key string) ([]byte, bool, error) {
	doc, err := s.client.Get(ctx, s.key(collection, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *RedisStore) Save(ctx context.Context, collection, key string, doc []byte) error {
	return s.client.Set(ctx, s.key(collection, key), doc, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, collection, key string) error {
	return s.client.Del(ctx, s.key(collection, key)).Err()
}

func (s *RedisStore) Keys(ctx context.Context, collection string) ([]string, error) {
	prefix := s.key(collection, "")
	var keys []string

	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Close(context.Context) error {
	return s.client.Close()
}
