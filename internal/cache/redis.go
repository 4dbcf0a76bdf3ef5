package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mrusso91/aerobook/config"
	"github.com/mrusso91/aerobook/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds the advisory per-airline dashboard counters and the
// short-lived seat hold keys. Nothing here is required for correctness.
type RedisCache struct {
	client       *redis.Client
	dashboardTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, dashboardTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		dashboardTTL: dashboardTTL,
	}
}

func (c *RedisCache) GetDashboard(ctx context.Context, airlineID int64) (*domain.Dashboard, error) {
	data, err := c.client.Get(ctx, dashboardKey(airlineID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var d domain.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *RedisCache) SetDashboard(ctx context.Context, airlineID int64, d *domain.Dashboard) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, dashboardKey(airlineID), payload, c.dashboardTTL).Err()
}

func (c *RedisCache) InvalidateDashboard(ctx context.Context, airlineID int64) error {
	return c.client.Del(ctx, dashboardKey(airlineID)).Err()
}

func (c *RedisCache) AcquireSeatHold(ctx context.Context, flightID int64, number string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatHoldKey(flightID, number), "held", ttl).Result()
}

func (c *RedisCache) ReleaseSeatHold(ctx context.Context, flightID int64, number string) error {
	return c.client.Del(ctx, seatHoldKey(flightID, number)).Err()
}

func dashboardKey(airlineID int64) string {
	return fmt.Sprintf("cache:dashboard:airline:%d", airlineID)
}

func seatHoldKey(flightID int64, number string) string {
	return fmt.Sprintf("hold:flight:%d:seat:%s", flightID, number)
}
