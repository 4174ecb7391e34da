package registry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces run entries so the registry can share a Redis
// database with other consumers.
const keyPrefix = "apprun:run:"

// RedisRegistry stores correlation entries in Redis using SET with EX for
// expiry. Any key-value store with per-key TTL would satisfy the contract;
// Redis is what deployments already run.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry creates a registry backed by a Redis server
func NewRedisRegistry(config Config) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisRegistry{client: client, ttl: ttl}, nil
}

// Put inserts or overwrites the mapping for id and resets its TTL
func (r *RedisRegistry) Put(ctx context.Context, id string, pid int) error {
	if err := r.client.Set(ctx, keyPrefix+id, strconv.Itoa(pid), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to register pid for %s: %w", id, err)
	}
	return nil
}

// Get resolves id to a pid, or ErrNotFound
func (r *RedisRegistry) Get(ctx context.Context, id string) (int, error) {
	val, err := r.client.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s: %w", id, err)
	}

	pid, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt registry entry for %s: %w", id, err)
	}
	return pid, nil
}

// Del removes the entry for id
func (r *RedisRegistry) Del(ctx context.Context, id string) error {
	return r.client.Del(ctx, keyPrefix+id).Err()
}

// Close closes the underlying Redis client
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
