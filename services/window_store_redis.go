package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript applies the fixed-window rule in one round trip.
// KEYS[1] = counter key; ARGV = now (ms), window (ms), limit.
// Returns {allowed, count, start}.
var takeScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local start = tonumber(redis.call('HGET', KEYS[1], 'start'))
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
if (not start) or (not count) or (now - start > window) then
  redis.call('HSET', KEYS[1], 'start', now, 'count', 1)
  redis.call('PEXPIRE', KEYS[1], window + 1000)
  return {1, 1, now}
end
if count >= limit then
  return {0, count, start}
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, count, start}
`)

// RedisWindowStore shares counters between instances. Keys expire on their
// own shortly after the window closes.
type RedisWindowStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisWindowStore(rdb *redis.Client, prefix string) *RedisWindowStore {
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = "anonq:ratelimit"
	}
	return &RedisWindowStore{rdb: rdb, prefix: prefix}
}

func (s *RedisWindowStore) Take(ctx context.Context, key string, p Policy, now time.Time) (Window, bool, error) {
	res, err := takeScript.Run(ctx, s.rdb,
		[]string{s.prefix + ":" + key},
		now.UnixMilli(), p.Window.Milliseconds(), p.Limit,
	).Int64Slice()
	if err != nil {
		return Window{}, false, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return Window{}, false, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	w := Window{Count: int(res[1]), Start: time.UnixMilli(res[2])}
	return w, res[0] == 1, nil
}

func (s *RedisWindowStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}
