package cooldown

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "radar:cooldown:"

// canAlertScript performs the cooldown compare-and-set server-side so the
// read-decide-write is atomic per key even across processes.
//
// KEYS[1] = record key
// ARGV[1] = now (unix ms), ARGV[2] = strength, ARGV[3] = window ms
var canAlertScript = redis.NewScript(`
local fired = redis.call('HGET', KEYS[1], 'fired_at')
if fired then
  local now = tonumber(ARGV[1])
  local last = tonumber(fired)
  if now - last < tonumber(ARGV[3]) then
    local prev = tonumber(redis.call('HGET', KEYS[1], 'strength') or '0')
    if tonumber(ARGV[2]) <= prev then
      return 0
    end
  end
end
redis.call('HSET', KEYS[1], 'fired_at', ARGV[1], 'strength', ARGV[2])
redis.call('PEXPIRE', KEYS[1], tonumber(ARGV[3]) * 4)
return 1
`)

// RedisController stores alert records in Redis so cooldowns hold across
// restarts and horizontally scaled instances. The script keeps the same
// per-identifier atomicity contract as the in-memory controller.
type RedisController struct {
	client *redis.Client
	window time.Duration
	now    func() time.Time

	// failOpen controls behavior when Redis is unreachable: alerting is
	// the product, so a broken cooldown store suppresses nothing.
	failOpen bool
}

// NewRedisController wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisController(client *redis.Client, window time.Duration) *RedisController {
	return &RedisController{
		client:   client,
		window:   window,
		now:      time.Now,
		failOpen: true,
	}
}

// CanAlert runs the atomic cooldown check-and-record in Redis.
func (c *RedisController) CanAlert(id string, strength float64) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := canAlertScript.Run(ctx, c.client,
		[]string{keyPrefix + id},
		c.now().UnixMilli(), strength, c.window.Milliseconds(),
	).Int64()
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Cooldown store unavailable")
		return c.failOpen
	}
	return res == 1
}
