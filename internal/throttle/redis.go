package throttle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "passgate:login_fail:"

// Redis shares counters between instances. The window starts at the first
// failure: SET NX with the window TTL, then INCR, in one MULTI.
type Redis struct {
	client *redis.Client
	cfg    Config
}

var _ Limiter = (*Redis)(nil)

func NewRedis(client *redis.Client, cfg Config) *Redis {
	return &Redis{client: client, cfg: cfg}
}

func redisKey(key string) string { return redisKeyPrefix + key }

func (r *Redis) Check(ctx context.Context, key string) (time.Duration, error) {
	if r.cfg.MaxAttempts <= 0 {
		return 0, nil
	}
	raw, err := r.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < r.cfg.MaxAttempts {
		return 0, nil
	}
	ttl, err := r.client.TTL(ctx, redisKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ttl <= 0 {
		// no expiry recorded; fall back to a full window
		return r.cfg.Window, nil
	}
	return ttl, nil
}

func (r *Redis) Fail(ctx context.Context, key string) error {
	if r.cfg.MaxAttempts <= 0 {
		return nil
	}
	k := redisKey(key)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, r.cfg.Window)
		pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
