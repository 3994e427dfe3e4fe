package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitrank/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// SnapshotCache keeps recently read snapshots. Cache failures are logged and
// never surfaced; callers fall through to the store.
// Set overwrites and is used by the cycle that persisted the snapshot. Fill only
// writes an absent key and is used by readers after a store read.
type SnapshotCache interface {
	Get(ctx context.Context, t LeaderboardType) (*LeaderboardSnapshot, bool)
	Set(ctx context.Context, snapshot *LeaderboardSnapshot)
	Fill(ctx context.Context, snapshot *LeaderboardSnapshot)
	Invalidate(ctx context.Context, types ...LeaderboardType) error
}

type RedisSnapshotCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

var _ SnapshotCache = (*RedisSnapshotCache)(nil)

func NewRedisSnapshotCache(redisClient *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func snapshotCacheKey(t LeaderboardType) string {
	return fmt.Sprintf("leaderboard::%s", t)
}

func (c *RedisSnapshotCache) Get(ctx context.Context, t LeaderboardType) (*LeaderboardSnapshot, bool) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.ranking.snapshot.get")
	defer span.End()

	cached, err := c.redisClient.Get(ctx, snapshotCacheKey(t)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Errorf("get cached snapshot [%s]: %s", t, err)
		}
		span.SetAttributes(attribute.Bool("leaderboard.from-cache", false))
		return nil, false
	}

	snapshot := &LeaderboardSnapshot{}
	if err := json.Unmarshal([]byte(cached), snapshot); err != nil {
		log.Errorf("unmarshal cached snapshot [%s]: %s", t, err)
		return nil, false
	}
	span.SetAttributes(attribute.Bool("leaderboard.from-cache", true))
	return snapshot, true
}

func (c *RedisSnapshotCache) Set(ctx context.Context, snapshot *LeaderboardSnapshot) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.ranking.snapshot.set")
	defer span.End()

	snapshotJson, err := json.Marshal(snapshot)
	if err != nil {
		log.Errorf("marshal snapshot [%s] for cache: %s", snapshot.Type, err)
		return
	}
	if err := c.redisClient.Set(ctx, snapshotCacheKey(snapshot.Type), string(snapshotJson), c.ttl).Err(); err != nil {
		log.Errorf("cache snapshot [%s]: %s", snapshot.Type, err)
	}
}

func (c *RedisSnapshotCache) Fill(ctx context.Context, snapshot *LeaderboardSnapshot) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.ranking.snapshot.fill")
	defer span.End()

	snapshotJson, err := json.Marshal(snapshot)
	if err != nil {
		log.Errorf("marshal snapshot [%s] for cache: %s", snapshot.Type, err)
		return
	}
	stored, err := c.redisClient.SetNX(ctx, snapshotCacheKey(snapshot.Type), string(snapshotJson), c.ttl).Result()
	if err != nil {
		log.Errorf("fill cached snapshot [%s]: %s", snapshot.Type, err)
		return
	}
	span.SetAttributes(attribute.Bool("leaderboard.cache-filled", stored))
}

func (c *RedisSnapshotCache) Invalidate(ctx context.Context, types ...LeaderboardType) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.ranking.snapshot.invalidate")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if len(types) == 0 {
		return nil
	}
	keys := make([]string, 0, len(types))
	for _, t := range types {
		keys = append(keys, snapshotCacheKey(t))
	}
	if err := c.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cached snapshots: %w", err)
	}
	return nil
}

// NoopSnapshotCache disables snapshot caching.
type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(context.Context, LeaderboardType) (*LeaderboardSnapshot, bool) {
	return nil, false
}

func (NoopSnapshotCache) Set(context.Context, *LeaderboardSnapshot) {}

func (NoopSnapshotCache) Fill(context.Context, *LeaderboardSnapshot) {}

func (NoopSnapshotCache) Invalidate(context.Context, ...LeaderboardType) error {
	return nil
}
