package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mirrorx/tokenradar/internal/domain"
)

const (
	redisKeyPrefix = "radar:snap:"
	redisIDSetKey  = "radar:snap:ids"
	perIDRetention = 50
	keyTTL         = 24 * time.Hour
	redisOpTimeout = 2 * time.Second
)

// RedisStore keeps per-id snapshot lists in Redis so history survives process
// restarts and can be shared across instances. List operations are atomic per
// key, which preserves the per-identifier serialization contract.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Record pushes the snapshot onto the id's list, trims retention and bumps
// the TTL. Failures are logged and dropped; snapshot history is best effort.
func (s *RedisStore) Record(snap domain.MetricSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Error().Err(err).Str("id", snap.ID).Msg("Snapshot marshal failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	key := redisKeyPrefix + snap.ID
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, perIDRetention-1)
	pipe.Expire(ctx, key, keyTTL)
	pipe.SAdd(ctx, redisIDSetKey, snap.ID)
	pipe.Expire(ctx, redisIDSetKey, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("id", snap.ID).Msg("Snapshot record failed")
	}
}

// RecentByID returns up to n snapshots for the id, newest first.
func (s *RedisStore) RecentByID(id string, n int) []domain.MetricSnapshot {
	if n <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	rows, err := s.client.LRange(ctx, redisKeyPrefix+id, 0, int64(n-1)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("id", id).Msg("Snapshot read failed")
		}
		return nil
	}

	out := make([]domain.MetricSnapshot, 0, len(rows))
	for _, row := range rows {
		var snap domain.MetricSnapshot
		if err := json.Unmarshal([]byte(row), &snap); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("Snapshot unmarshal failed")
			continue
		}
		out = append(out, snap)
	}
	return out
}

// ComputeAcceleration derives the trajectory hint from the stored history.
func (s *RedisStore) ComputeAcceleration(id string) domain.AccelerationReading {
	return accelerationFrom(s.RecentByID(id, sampleWindow))
}

// TrackedIDs enumerates ids with retained history. Ids whose lists have
// expired may linger in the set until its own TTL; callers tolerate empty
// lookups.
func (s *RedisStore) TrackedIDs() []string {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	ids, err := s.client.SMembers(ctx, redisIDSetKey).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Snapshot id enumeration failed")
		}
		return nil
	}
	return ids
}
