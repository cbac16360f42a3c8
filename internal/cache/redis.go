package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisReplayGuard(client *redis.Client) *RedisReplayGuard {
	return &RedisReplayGuard{
		client: client,
		ttl:    ReplayTTL,
	}
}

type RedisReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// Acquire uses SETNX so that two simultaneous deliveries of the same
// notification race on a single atomic write; exactly one wins.
func (g *RedisReplayGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, replayKey(key), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func replayKey(key string) string {
	return fmt.Sprintf("webhook:replay:%s", key)
}
