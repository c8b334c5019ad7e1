package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Werneck0live/loja-precificacao/internal/models"
)

const (
	keyPrefix = "lp:schedule:"
	activeKey = keyPrefix + "active"
)

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// ScheduleSource é quem tem a verdade (o repositório Mongo).
type ScheduleSource interface {
	GetByID(ctx context.Context, id string) (*models.DiscountSchedule, error)
	GetActive(ctx context.Context) (*models.DiscountSchedule, error)
}

// ScheduleCache é um read-through em Redis na frente do repositório.
// Falha do Redis nunca derruba a leitura: loga e vai direto na fonte.
type ScheduleCache struct {
	src   ScheduleSource
	store cmdable
	ttl   time.Duration
	log   *slog.Logger
}

// NewScheduleCache com rdb nil devolve um cache que só repassa para src.
func NewScheduleCache(src ScheduleSource, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *ScheduleCache {
	if log == nil {
		log = slog.Default()
	}
	c := &ScheduleCache{src: src, ttl: ttl, log: log.With("cmp", "cache.schedule")}
	if rdb != nil {
		c.store = rdb
	}
	return c
}

func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func scheduleKey(id string) string { return keyPrefix + "id:" + id }

func (c *ScheduleCache) GetByID(ctx context.Context, id string) (*models.DiscountSchedule, error) {
	return c.readThrough(ctx, scheduleKey(id), func() (*models.DiscountSchedule, error) {
		return c.src.GetByID(ctx, id)
	})
}

func (c *ScheduleCache) GetActive(ctx context.Context) (*models.DiscountSchedule, error) {
	return c.readThrough(ctx, activeKey, func() (*models.DiscountSchedule, error) {
		return c.src.GetActive(ctx)
	})
}

// Invalidate remove as chaves dos ids e sempre a da tabela ativa.
func (c *ScheduleCache) Invalidate(ctx context.Context, ids ...string) error {
	if c.store == nil {
		return nil
	}
	keys := []string{activeKey}
	for _, id := range ids {
		keys = append(keys, scheduleKey(id))
	}
	return c.store.Del(ctx, keys...).Err()
}

func (c *ScheduleCache) readThrough(ctx context.Context, key string, load func() (*models.DiscountSchedule, error)) (*models.DiscountSchedule, error) {
	if c.store == nil {
		return load()
	}

	raw, err := c.store.Get(ctx, key).Result()
	switch {
	case err == nil:
		var s models.DiscountSchedule
		if jerr := json.Unmarshal([]byte(raw), &s); jerr == nil {
			return &s, nil
		}
		c.log.Warn("cache_decode_error", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn("cache_get_error", "key", key, "err", err)
	}

	s, err := load()
	if err != nil {
		return nil, err // not found não vai pro cache
	}
	b, err := json.Marshal(s)
	if err != nil {
		return s, nil
	}
	if err := c.store.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.log.Warn("cache_set_error", "key", key, "err", err)
	}
	return s, nil
}
