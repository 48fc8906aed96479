package task

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a cached list may be served.
const DefaultCacheTTL = 5 * time.Minute

// ListCache caches an owner's task list. Implementations never return
// errors; a failing cache behaves like an empty one.
type ListCache interface {
	Get(ctx context.Context, ownerID string) ([]domain.Task, bool)
	Set(ctx context.Context, ownerID string, tasks []domain.Task)
	Invalidate(ctx context.Context, ownerID string)
}

// RedisListCache stores JSON-encoded task lists in Redis.
type RedisListCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ListCache = (*RedisListCache)(nil)

// NewRedisListCache creates a cache over an existing client.
func NewRedisListCache(client *redis.Client, prefix string, ttl time.Duration) *RedisListCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisListCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisListCache) key(ownerID string) string {
	return c.prefix + "owner:" + ownerID
}

// Get returns the cached list for an owner.
func (c *RedisListCache) Get(ctx context.Context, ownerID string) ([]domain.Task, bool) {
	data, err := c.client.Get(ctx, c.key(ownerID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[task] Warning: cache get failed for owner %s: %v", ownerID, err)
		}
		return nil, false
	}

	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		log.Printf("[task] Warning: discarding undecodable cache entry for owner %s: %v", ownerID, err)
		c.Invalidate(ctx, ownerID)
		return nil, false
	}
	if tasks == nil {
		tasks = make([]domain.Task, 0)
	}
	return tasks, true
}

// Set stores an owner's list with the configured TTL.
func (c *RedisListCache) Set(ctx context.Context, ownerID string, tasks []domain.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		log.Printf("[task] Warning: cache encode failed for owner %s: %v", ownerID, err)
		return
	}
	if err := c.client.Set(ctx, c.key(ownerID), data, c.ttl).Err(); err != nil {
		log.Printf("[task] Warning: cache set failed for owner %s: %v", ownerID, err)
	}
}

// Invalidate drops an owner's cached list.
func (c *RedisListCache) Invalidate(ctx context.Context, ownerID string) {
	if err := c.client.Del(ctx, c.key(ownerID)).Err(); err != nil {
		log.Printf("[task] Warning: cache invalidate failed for owner %s: %v", ownerID, err)
	}
}

// Ping checks the Redis connection.
func (c *RedisListCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisListCache) Close() error {
	return c.client.Close()
}

type nopListCache struct{}

func (nopListCache) Get(context.Context, string) ([]domain.Task, bool) { return nil, false }
func (nopListCache) Set(context.Context, string, []domain.Task)        {}
func (nopListCache) Invalidate(context.Context, string)                {}
