package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients keeps command traffic (durable cache tier, progress
// publishes) apart from the connections held open by subscriptions.
type RedisClients struct {
	Cache  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(ctx context.Context, redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cacheClient, err := dialRedis(ctx, opt, "cache")
	if err != nil {
		return nil, err
	}

	pubsubOpt := *opt
	pubsubClient, err := dialRedis(ctx, &pubsubOpt, "pubsub")
	if err != nil {
		cacheClient.Close()
		return nil, err
	}

	return &RedisClients{Cache: cacheClient, PubSub: pubsubClient}, nil
}

func dialRedis(ctx context.Context, opt *redis.Options, role string) (*redis.Client, error) {
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis (%s): %w", role, err)
	}
	return client, nil
}

func (r *RedisClients) Close() {
	r.Cache.Close()
	r.PubSub.Close()
}
