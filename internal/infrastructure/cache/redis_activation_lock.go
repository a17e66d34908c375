package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/redis/go-redis/v9"
)

const defaultLockPrefix = "connection:activation:"

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisActivationLock implements connection.ActivationLock with SET NX PX,
// shared by every server instance pointing at the same Redis.
type RedisActivationLock struct {
	client    *redis.Client
	keyPrefix string

	mu     sync.Mutex
	tokens map[uuid.UUID]string
}

// NewRedisActivationLock connects to Redis and verifies the connection
func NewRedisActivationLock(cfg RedisConfig) (*RedisActivationLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisActivationLockWithClient(client, ""), nil
}

// NewRedisActivationLockWithClient creates a lock with an existing Redis client
func NewRedisActivationLockWithClient(client *redis.Client, keyPrefix string) *RedisActivationLock {
	if keyPrefix == "" {
		keyPrefix = defaultLockPrefix
	}
	return &RedisActivationLock{
		client:    client,
		keyPrefix: keyPrefix,
		tokens:    make(map[uuid.UUID]string),
	}
}

// Acquire takes the lock for id; false means another activation holds it
func (l *RedisActivationLock) Acquire(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+id.String(), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire activation lock: %w", err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[id] = token
	l.mu.Unlock()
	return true, nil
}

// Release frees a lock previously acquired by this instance
func (l *RedisActivationLock) Release(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	token, ok := l.tokens[id]
	delete(l.tokens, id)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + id.String()}, token).Err(); err != nil {
		return fmt.Errorf("failed to release activation lock: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisActivationLock) Close() error {
	return l.client.Close()
}

var _ connection.ActivationLock = (*RedisActivationLock)(nil)
