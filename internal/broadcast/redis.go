package broadcast

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisTransport delivers notifications over Redis pub/sub channels. Each
// subscriber group maps to one channel; interested clients subscribe with
// plain SUBSCRIBE.
type RedisTransport struct {
	client *redis.Client
}

// NewRedisTransport creates a transport over an established Redis client
func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

// Send publishes the payload to the channel
func (t *RedisTransport) Send(ctx context.Context, channel string, payload []byte) error {
	if err := t.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}
