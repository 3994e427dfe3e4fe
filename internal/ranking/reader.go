package ranking

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/fitrank/internal/scoring"
	"github.com/2beens/fitrank/internal/telemetry/metrics"
	"github.com/2beens/fitrank/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const defaultEnrichConcurrency = 8

type profileSource interface {
	Profile(ctx context.Context, userID string) (Profile, error)
}

// Reader serves leaderboard reads from the persisted snapshots. Missing snapshots
// and missing users read as empty results.
type Reader struct {
	snapshots         *SnapshotRepo
	cache             SnapshotCache
	profiles          profileSource
	metricsManager    *metrics.Manager
	enrichConcurrency int
}

func NewReader(
	snapshots *SnapshotRepo,
	cache SnapshotCache,
	profiles profileSource,
	metricsManager *metrics.Manager,
) *Reader {
	if cache == nil {
		cache = NoopSnapshotCache{}
	}
	return &Reader{
		snapshots:         snapshots,
		cache:             cache,
		profiles:          profiles,
		metricsManager:    metricsManager,
		enrichConcurrency: defaultEnrichConcurrency,
	}
}

// GetLeaderboard returns the enriched entries [offset, offset+limit) of the stored order.
func (r *Reader) GetLeaderboard(ctx context.Context, leaderboardType string, limit, offset int) (_ []RankingEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "reader.ranking.leaderboard")
	span.SetAttributes(
		attribute.String("leaderboard.type", leaderboardType),
		attribute.Int("leaderboard.limit", limit),
		attribute.Int("leaderboard.offset", offset),
	)
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	t, err := ParseLeaderboardType(leaderboardType)
	if err != nil {
		return nil, err
	}
	snapshot, err := r.snapshot(ctx, t)
	if err != nil {
		return nil, err
	}
	if snapshot == nil || offset >= len(snapshot.Entries) {
		return []RankingEntry{}, nil
	}

	offset = max(offset, 0)
	end := len(snapshot.Entries)
	if limit > 0 {
		end = min(end, offset+limit)
	}
	page := make([]RankingEntry, end-offset)
	copy(page, snapshot.Entries[offset:end])

	r.enrich(ctx, page)
	return page, nil
}

// GetUserRankingDetails returns the user's entry, nil if the user is not part of
// the current generation of that leaderboard.
func (r *Reader) GetUserRankingDetails(ctx context.Context, userID, leaderboardType string) (_ *RankingEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "reader.ranking.user")
	span.SetAttributes(attribute.String("user.id", userID))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	t, err := ParseLeaderboardType(leaderboardType)
	if err != nil {
		return nil, err
	}
	snapshot, err := r.snapshot(ctx, t)
	if err != nil || snapshot == nil {
		return nil, err
	}

	for _, entry := range snapshot.Entries {
		if entry.UserID == userID {
			found := []RankingEntry{entry}
			r.enrich(ctx, found)
			return &found[0], nil
		}
	}
	return nil, nil
}

func (r *Reader) GetRankingStatistics(ctx context.Context) (_ *RankingStatistics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "reader.ranking.statistics")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	stats := &RankingStatistics{
		TierDistribution: make(map[scoring.Tier]int, len(scoring.AllTiers)),
		Leaderboards:     make(map[LeaderboardType]LeaderboardStats, len(AllLeaderboardTypes)),
	}
	for _, tier := range scoring.AllTiers {
		stats.TierDistribution[tier] = 0
	}

	for _, t := range AllLeaderboardTypes {
		snapshot, err := r.snapshot(ctx, t)
		if err != nil {
			return nil, err
		}
		if snapshot == nil {
			stats.Leaderboards[t] = LeaderboardStats{Period: windowFor(t, time.Now())}
			continue
		}

		lastUpdated := snapshot.LastUpdated
		stats.Leaderboards[t] = LeaderboardStats{
			TotalUsers:  snapshot.TotalUsers,
			Generation:  snapshot.Generation,
			LastUpdated: &lastUpdated,
			Period:      snapshot.Period,
		}
		if t == Overall {
			for _, entry := range snapshot.Entries {
				stats.TierDistribution[entry.Tier]++
			}
		}
	}
	return stats, nil
}

// snapshot reads through the cache; nil without error when nothing is stored yet.
// The fill never overwrites, a cycle may have written a newer generation meanwhile.
func (r *Reader) snapshot(ctx context.Context, t LeaderboardType) (*LeaderboardSnapshot, error) {
	if cached, ok := r.cache.Get(ctx, t); ok {
		return cached, nil
	}

	snapshot, err := r.snapshots.Get(ctx, string(t))
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return nil, nil
		}
		return nil, err
	}
	r.cache.Fill(ctx, snapshot)
	return snapshot, nil
}

// enrich resolves profiles concurrently, each goroutine writing only its own slot.
// A failed lookup leaves that entry with the anonymous profile.
func (r *Reader) enrich(ctx context.Context, entries []RankingEntry) {
	g := new(errgroup.Group)
	g.SetLimit(r.enrichConcurrency)
	for i := range entries {
		g.Go(func() error {
			profile, err := r.profiles.Profile(ctx, entries[i].UserID)
			if err != nil {
				if !errors.Is(err, ErrProfileNotFound) {
					log.Warnf("enrich leaderboard entry [%s]: %s", entries[i].UserID, err)
				}
				r.metricsManager.CounterEnrichmentFallbacks.Inc()
				profile = anonymousProfile()
			}
			entries[i].DisplayName = profile.DisplayName
			entries[i].AvatarURL = profile.AvatarURL
			return nil
		})
	}
	_ = g.Wait()
}
