package aigateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"chore-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// ResponseCache stores successful gateway responses by cache key.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*Response, bool)
	Set(ctx context.Context, key string, resp *Response, ttl time.Duration)
	Len() int
	// Prune drops entries expired at now and reports how many were removed.
	Prune(now time.Time) int
}

// cacheKey derives the key from the request type, the first 200 characters
// of the caller's prompt, and the family's size and chore count.
func cacheKey(req Request) string {
	prompt := []rune(req.Prompt)
	if len(prompt) > 200 {
		prompt = prompt[:200]
	}
	size, chores := 0, 0
	if req.Context != nil {
		size = req.Context.Size()
		chores = len(req.Context.ActiveChores)
	}
	return fmt.Sprintf("%s|%s|%d|%d", req.Type, string(prompt), size, chores)
}

type memoryEntry struct {
	response  Response
	expiresAt time.Time
}

// MemoryResponseCache is a process-local cache. When a write takes it past
// maxEntries, expired entries are pruned.
type MemoryResponseCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

func NewMemoryResponseCache(maxEntries int, now func() time.Time) *MemoryResponseCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryResponseCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        now,
	}
}

func (c *MemoryResponseCache) Get(_ context.Context, key string) (*Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	resp := e.response
	return &resp, true
}

func (c *MemoryResponseCache) Set(_ context.Context, key string, resp *Response, ttl time.Duration) {
	now := c.now()

	c.mu.Lock()
	c.entries[key] = memoryEntry{response: *resp, expiresAt: now.Add(ttl)}
	over := c.maxEntries > 0 && len(c.entries) > c.maxEntries
	c.mu.Unlock()

	if over {
		c.Prune(now)
	}
}

func (c *MemoryResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryResponseCache) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

const redisKeyPrefix = "aigw:resp:"

// RedisResponseCache shares cached responses between worker replicas. Redis
// failures are logged and treated as misses.
type RedisResponseCache struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisResponseCache(client *redis.Client, log logger.Logger) *RedisResponseCache {
	return &RedisResponseCache{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "ai-gateway-cache"}),
	}
}

func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return redisKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisResponseCache) Get(ctx context.Context, key string) (*Response, bool) {
	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache read failed", map[string]interface{}{"error": err.Error()})
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn("cache entry corrupt", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return &resp, true
}

func (c *RedisResponseCache) Set(ctx context.Context, key string, resp *Response, ttl time.Duration) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(key), data, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Len counts cached responses with a SCAN over the key prefix.
func (c *RedisResponseCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n := 0
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache scan failed", map[string]interface{}{"error": err.Error()})
	}
	return n
}

// Prune is a no-op; Redis expires entries itself.
func (c *RedisResponseCache) Prune(time.Time) int { return 0 }
