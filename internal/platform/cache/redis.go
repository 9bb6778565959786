package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/feiralivre/monetize/pkg/config"
	"github.com/feiralivre/monetize/pkg/types"
)

const (
	balanceTTL = 5 * time.Minute
	badgesTTL  = time.Minute
)

// Cache is a best-effort read-through layer over redis. With no redis address
// configured every lookup is a miss and every write a no-op, so callers never
// branch on deployment shape.
type Cache struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func New(lc fx.Lifecycle, l *zap.SugaredLogger, cfg *cfgpkg.Config) *Cache {
	if cfg.Redis.Addr == "" {
		l.Infow("redis not configured, cache disabled")
		return &Cache{log: l}
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return err
			}
			l.Infow("connected to redis", "addr", cfg.Redis.Addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return &Cache{client: client, log: l}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func balanceKey(userID string) string { return "balance:" + userID }
func badgesKey(listingID string) string { return "badges:" + listingID }

func (c *Cache) GetBalance(ctx context.Context, userID string) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	val, err := c.client.Get(ctx, balanceKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("cache: get balance failed", "err", err)
		}
		return 0, false
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Cache) SetBalance(ctx context.Context, userID string, balance int64) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, balanceKey(userID), balance, balanceTTL).Err(); err != nil {
		c.log.Warnw("cache: set balance failed", "err", err)
	}
}

func (c *Cache) InvalidateBalance(ctx context.Context, userID string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, balanceKey(userID)).Err(); err != nil {
		c.log.Warnw("cache: invalidate balance failed", "err", err)
	}
}

func (c *Cache) GetBadges(ctx context.Context, listingID string) ([]types.ActiveBadge, bool) {
	if !c.Enabled() {
		return nil, false
	}
	val, err := c.client.Get(ctx, badgesKey(listingID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("cache: get badges failed", "err", err)
		}
		return nil, false
	}
	var badges []types.ActiveBadge
	if err := json.Unmarshal(val, &badges); err != nil {
		return nil, false
	}
	return badges, true
}

func (c *Cache) SetBadges(ctx context.Context, listingID string, badges []types.ActiveBadge) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(badges)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, badgesKey(listingID), raw, badgesTTL).Err(); err != nil {
		c.log.Warnw("cache: set badges failed", "err", err)
	}
}

func (c *Cache) InvalidateBadges(ctx context.Context, listingID string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, badgesKey(listingID)).Err(); err != nil {
		c.log.Warnw("cache: invalidate badges failed", "err", err)
	}
}

var Module = fx.Options(
	fx.Provide(New),
)
