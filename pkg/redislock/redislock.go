// Package redislock provides a small distributed lock on top of redis
// SET NX, used to serialize writers on the same inventory row before the
// database-level version check kicks in.
package redislock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is the lock contract consumed by the transaction processor.
type Locker interface {
	Acquire(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, value string) error
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

type Client struct {
	rdb *redis.Client
}

func NewClient(cfg *Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) Acquire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

// releaseScript deletes the key only if it still holds our value, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *Client) Release(ctx context.Context, key, value string) error {
	return releaseScript.Run(ctx, c.rdb, []string{key}, value).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// InProcess is a process-local Locker for single-node deployments and tests.
type InProcess struct {
	mu    sync.Mutex
	locks map[string]string
}

func NewInProcess() *InProcess {
	return &InProcess{locks: make(map[string]string)}
}

func (l *InProcess) Acquire(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.locks[key]; held {
		return false, nil
	}
	l.locks[key] = value
	return true, nil
}

func (l *InProcess) Release(_ context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks[key] == value {
		delete(l.locks, key)
	}
	return nil
}
