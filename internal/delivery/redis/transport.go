package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// Inbound is one raw message received on a channel.
type Inbound struct {
	Channel string
	Payload []byte
}

// Transport moves raw encoded packets between processes on named
// channels. Delivery is at-most-once and unordered across channels;
// there is no ack or retry at this layer.
type Transport interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan Inbound, error)
	Close() error
}

// RedisTransport carries packets over redis pub/sub, the fanout shared
// by the proxy and every backend process.
type RedisTransport struct {
	client *goredis.Client
	subs   []*goredis.PubSub
}

func NewRedisTransport(client *goredis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

func (t *RedisTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	return t.client.Publish(ctx, channel, payload).Err()
}

// Subscribe opens one pub/sub connection per channel. Messages are
// forwarded in receive order; the channel closes when the subscription
// or the context ends.
func (t *RedisTransport) Subscribe(ctx context.Context, channel string) (<-chan Inbound, error) {
	sub := t.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	t.subs = append(t.subs, sub)

	out := make(chan Inbound, 64)
	go func() {
		defer close(out)
		for {
			select {
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				out <- Inbound{Channel: msg.Channel, Payload: []byte(msg.Payload)}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (t *RedisTransport) Close() error {
	var firstErr error
	for _, sub := range t.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
