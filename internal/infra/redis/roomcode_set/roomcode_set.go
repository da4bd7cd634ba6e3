package infra_redis_roomcode_set

import (
	"context"

	"github.com/andrewjfei/klick-server/internal/model"
	"github.com/go-redis/redis"
)

// Driver claims room codes with SETNX so they stay unique across instances.
type Driver struct {
	client *redis.Client
	key    string
}

func New(
	client *redis.Client,
	key string,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
	}
}

func (d *Driver) Reserve(ctx context.Context, code model.RoomCode) (bool, error) {
	if code == model.EmptyRoomCode {
		return false, nil
	}
	return d.client.SetNX(d.getFullKey(code), 1, 0).Result()
}

func (d *Driver) getFullKey(code model.RoomCode) string {
	if d.key != "" {
		return d.key + ":" + code
	}
	return code
}
