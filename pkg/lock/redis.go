package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "reservations:lease:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisBackend struct {
	rdb redis.Cmdable
}

func NewRedisBackend(rdb redis.Cmdable) Backend {
	return &redisBackend{rdb: rdb}
}

func (b *redisBackend) TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	ok, err := b.rdb.SetNX(ctx, redisKeyPrefix+key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set lease: %w", err)
	}
	return ok, nil
}

// Release deletes the key only while it still holds our token.
func (b *redisBackend) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, b.rdb, []string{redisKeyPrefix + key}, token).Err()
}
