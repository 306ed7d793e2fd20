package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis used for publishing.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes each envelope as JSON on "<prefix>.<type>".
type RedisPublisher struct {
	client RedisClient
	prefix string
}

// NewRedisPublisher constructs a Redis pub/sub publisher.
func NewRedisPublisher(client RedisClient, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Publish implements Publisher. It stops at the first failed envelope.
func (p *RedisPublisher) Publish(ctx context.Context, envelopes ...Envelope) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("redis publisher not initialized")
	}
	for _, env := range envelopes {
		raw, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", env.ID, err)
		}
		channel := Channel(p.prefix, env.Type)
		if err := p.client.Publish(ctx, channel, raw).Err(); err != nil {
			return fmt.Errorf("redis publish %s: %w", channel, err)
		}
	}
	return nil
}
