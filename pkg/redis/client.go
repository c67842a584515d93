package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Nil is returned by read operations when the key does not exist
const Nil = redis.Nil

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// TTL constants
const (
	// TTLOAuthState bounds how long an issued state stays consumable
	TTLOAuthState = 10 * time.Minute
	// TTLPKCEVerifier matches the state lifetime; a verifier without its
	// state is useless
	TTLPKCEVerifier = 10 * time.Minute
)

// NewClient creates a new Redis client
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Get retrieves a value from Redis
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	c.observe("redis_get", key, start, err)
	return val, err
}

// GetDel atomically retrieves and deletes a value. This is the single-use
// primitive for state and PKCE verifier consumption: two concurrent callers
// cannot both observe the value.
func (c *Client) GetDel(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.GetDel(ctx, key).Result()
	c.observe("redis_getdel", key, start, err)
	return val, err
}

// Set stores a value in Redis with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.observe("redis_set", key, start, err)
	return err
}

// Delete removes keys from Redis
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	c.log.Debug("redis_del",
		zap.Int("keys", len(keys)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return err
}

// Exists checks if a key exists
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.Exists(ctx, keys...).Result()
	c.observe("redis_exists", "", start, err)
	return n, err
}

// SAdd adds members to a set
func (c *Client) SAdd(ctx context.Context, key string, members ...interface{}) error {
	start := time.Now()
	err := c.rdb.SAdd(ctx, key, members...).Err()
	c.observe("redis_sadd", key, start, err)
	return err
}

// SRem removes members from a set
func (c *Client) SRem(ctx context.Context, key string, members ...interface{}) error {
	start := time.Now()
	err := c.rdb.SRem(ctx, key, members...).Err()
	c.observe("redis_srem", key, start, err)
	return err
}

// SMembers returns all members of a set
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	members, err := c.rdb.SMembers(ctx, key).Result()
	c.observe("redis_smembers", key, start, err)
	return members, err
}

// Expire sets a TTL on a key
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Expire(ctx, key, ttl).Err()
	c.observe("redis_expire", key, start, err)
	return err
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	c.observe("redis_ping", "", start, err)
	return err
}

// observe logs one Redis round trip. Misses (redis.Nil) are expected and
// logged at debug like successes.
func (c *Client) observe(op, key string, start time.Time, err error) {
	dur := time.Since(start)
	if err != nil && err != redis.Nil {
		c.log.Info(op,
			zap.String("key_prefix", prefixForLog(key)),
			zap.Duration("duration", dur),
			zap.Error(err))
		return
	}
	c.log.Debug(op,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", dur))
}

// prefixForLog returns a safe prefix of a key to avoid logging tokens
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
