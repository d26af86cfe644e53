package redistools

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxDelay = 10 * time.Second

// Connect pings rdb with a growing delay until it answers, the delay exceeds
// maxDelay or ctx is done.
func Connect(ctx context.Context, rdb *redis.Client) error {
	delay := time.Second

	for {
		err := rdb.Ping(ctx).Err()
		if err == nil {
			return nil
		}

		if delay > maxDelay {
			return fmt.Errorf("cannot ping redis db error: %w", err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context error: %w", ctx.Err())
		case <-time.After(delay):
			delay += time.Second
		}
	}
}
