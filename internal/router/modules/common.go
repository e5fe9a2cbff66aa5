package modules

import (
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-eventhub/internal/container"
)

// redisOrNil keeps a missing client a nil interface so limiters turn into no-ops.
func redisOrNil() redis.Cmdable {
	if c := container.GetRedis(); c != nil {
		return c
	}
	return nil
}
