package tier

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduflow/transcache"
)

const redisName = "redis"

// Redis is the fast shared tier. It stores only the translation string;
// expiry is Redis's own responsibility via the per-key TTL.
type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds configuration for the Redis tier.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       int    // TTL in seconds (0 = no expiration)
	KeyPrefix string // Prefix for all keys (default: "eduflow:translations:")
}

// NewRedis creates a Redis tier from a connection URL and verifies the
// connection with a ping.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisFromClient creates a Redis tier from an existing client.
func NewRedisFromClient(client *redis.Client, ttlSeconds int, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = "eduflow:translations:"
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}

	return &Redis{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// Name implements transcache.TierStore.
func (r *Redis) Name() string {
	return redisName
}

// Get retrieves a translation from Redis. A missing key is a plain
// miss; any other failure is reported so the orchestrator can log it
// and fall through.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores the translation string under the prefixed key with the
// tier's TTL.
func (r *Redis) Set(ctx context.Context, key string, entry transcache.Entry) error {
	return r.client.Set(ctx, r.keyPrefix+key, entry.Translation, r.ttl).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping tests the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
