package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"eventhub/internal/domain"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis server at url. It returns nil when url is empty
// or the server does not answer a ping; callers run without caching and rate limiting then.
func NewRedisClient(ctx context.Context, url string, logger *slog.Logger) *redis.Client {
	if url == "" {
		logger.Info("redis disabled", "reason", "REDIS_URL not set")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("redis disabled", "reason", "invalid REDIS_URL", "err", err)
		return nil
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis disabled", "reason", "ping failed", "addr", opts.Addr, "err", err)
		_ = client.Close()
		return nil
	}
	return client
}

const (
	listGenerationKey = "events:list:gen"
	listKeyPrefix     = "events:list:"
)

type eventListCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewEventListCache caches listing pages under a generation number. Invalidate bumps
// the generation so every older page becomes unreachable and expires by TTL.
func NewEventListCache(rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) domain.EventListCache {
	return &eventListCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *eventListCache) pageKey(ctx context.Context, key string) (string, error) {
	gen, err := c.rdb.Get(ctx, listGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	sum := sha1.Sum([]byte(key))
	return listKeyPrefix + strconv.FormatInt(gen, 10) + ":" + hex.EncodeToString(sum[:]), nil
}

func (c *eventListCache) Get(ctx context.Context, key string) (*domain.EventPage, string, bool) {
	slot, err := c.pageKey(ctx, key)
	if err != nil {
		c.logger.DebugContext(ctx, "list cache unavailable", "err", err)
		return nil, "", false
	}
	raw, err := c.rdb.Get(ctx, slot).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.DebugContext(ctx, "list cache get", "err", err)
		}
		return nil, slot, false
	}
	var page domain.EventPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, slot, false
	}
	return &page, slot, true
}

func (c *eventListCache) Set(ctx context.Context, slot string, page *domain.EventPage) {
	if slot == "" {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, slot, raw, c.ttl).Err(); err != nil {
		c.logger.DebugContext(ctx, "list cache set", "err", err)
	}
}

func (c *eventListCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, listGenerationKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "list cache invalidate", "err", err)
	}
}
