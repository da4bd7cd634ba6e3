package infra_redis_bus

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-redis/redis"
)

// Driver fans group frames out over Redis pub/sub, one channel per group
// under a shared prefix.
type Driver struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func New(
	client *redis.Client,
	prefix string,
	logger *slog.Logger,
) *Driver {
	return &Driver{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (d *Driver) Publish(ctx context.Context, group string, frame []byte) error {
	return d.client.Publish(d.channel(group), frame).Err()
}

// Subscribe waits for Redis to confirm the pattern subscription, then hands
// every frame published by any instance to deliver until ctx is done.
func (d *Driver) Subscribe(ctx context.Context, deliver func(group string, frame []byte)) error {
	pubsub := d.client.PSubscribe(d.channel("*"))
	if _, err := pubsub.Receive(); err != nil {
		_ = pubsub.Close()
		return err
	}

	go d.listen(ctx, pubsub, deliver)
	return nil
}

func (d *Driver) listen(ctx context.Context, pubsub *redis.PubSub, deliver func(group string, frame []byte)) {
	defer pubsub.Close()
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				d.logger.Warn("redis subscription closed")
				return
			}
			group := d.group(msg.Channel)
			if group == "" {
				continue
			}
			deliver(group, []byte(msg.Payload))
		}
	}
}

func (d *Driver) group(channel string) string {
	if d.prefix == "" {
		return channel
	}
	group, _ := strings.CutPrefix(channel, d.prefix+":")
	if group == channel {
		return ""
	}
	return group
}

func (d *Driver) channel(group string) string {
	if d.prefix != "" {
		return d.prefix + ":" + group
	}
	return group
}
