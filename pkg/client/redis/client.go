package redis

import (
	"aclue/internal/config"
	"context"
	"fmt"
	"github.com/redis/go-redis/v9"
	"time"
)

// Client is the subset of go-redis the storage layer needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

const retryDelay = 2 * time.Second

func NewClient(ctx context.Context, sc config.StorageRedis) (*redis.Client, error) {
	attempts := sc.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", sc.Host, sc.Port),
		Username: sc.Username,
		Password: sc.Password,
		DB:       sc.DB,
	})

	err := doWithTries(ctx, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		return client.Ping(pingCtx).Err()
	}, attempts, retryDelay)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", attempts, err)
	}

	return client, nil
}

func doWithTries(ctx context.Context, fn func() error, attempts int, delay time.Duration) (err error) {
	for attempts > 0 {
		if err = fn(); err == nil {
			return nil
		}
		attempts--
		if attempts == 0 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
