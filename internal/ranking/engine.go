package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/fitrank/internal/scoring"
	"github.com/2beens/fitrank/internal/telemetry/metrics"
	"github.com/2beens/fitrank/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

type workoutsService interface {
	ListAllMetrics(ctx context.Context) ([]scoring.UserMetrics, error)
	HasHistory(ctx context.Context, userID string) (bool, error)
	Weights(ctx context.Context) (scoring.Weights, error)
	ComputeAndStore(ctx context.Context, userID string, m scoring.UserMetrics, weights scoring.Weights) (scoring.ScoreBreakdown, error)
}

type scoredUser struct {
	metrics   scoring.UserMetrics
	breakdown scoring.ScoreBreakdown
}

// Engine runs full ranking cycles: score every active user, rank them, diff against
// the previous overall generation and persist the overall and period leaderboards.
// Cycles are not serialized; two overlapping cycles may both copy the same previous
// generation, leaving one cycle with stale rank deltas.
type Engine struct {
	workouts       workoutsService
	snapshots      *SnapshotRepo
	cache          SnapshotCache
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewEngine(
	workouts workoutsService,
	snapshots *SnapshotRepo,
	cache SnapshotCache,
	metricsManager *metrics.Manager,
) *Engine {
	return NewEngineWithClock(workouts, snapshots, cache, metricsManager, time.Now)
}

func NewEngineWithClock(
	workouts workoutsService,
	snapshots *SnapshotRepo,
	cache SnapshotCache,
	metricsManager *metrics.Manager,
	now func() time.Time,
) *Engine {
	if cache == nil {
		cache = NoopSnapshotCache{}
	}
	return &Engine{
		workouts:       workouts,
		snapshots:      snapshots,
		cache:          cache,
		metricsManager: metricsManager,
		now:            now,
	}
}

// TriggerRecompute runs a cycle on behalf of a metrics submission.
func (e *Engine) TriggerRecompute(ctx context.Context) error {
	_, err := e.Recompute(ctx)
	return err
}

// Recompute runs one full cycle. A failing metrics scan, weights read or overall
// snapshot write aborts it; per user failures skip that user.
func (e *Engine) Recompute(ctx context.Context) (_ CycleResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "engine.ranking.recompute")
	started := time.Now()
	generation := uuid.NewString()
	span.SetAttributes(attribute.String("ranking.generation", generation))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
		}
		e.metricsManager.CounterRecomputeCycles.WithLabelValues(outcome).Inc()
		e.metricsManager.HistRecomputeDuration.Observe(time.Since(started).Seconds())
	}()

	now := e.now().UTC()

	// collecting
	allMetrics, err := e.workouts.ListAllMetrics(ctx)
	if err != nil {
		return CycleResult{}, fmt.Errorf("collect user metrics: %w", err)
	}

	// scoring; weights are read once per cycle
	weights, err := e.workouts.Weights(ctx)
	if err != nil {
		return CycleResult{}, fmt.Errorf("get weights: %w", err)
	}
	var (
		scored  []scoredUser
		skipped int
	)
	for _, m := range allMetrics {
		active, err := e.isActive(ctx, m)
		if err != nil {
			log.Errorf("ranking cycle %s, activity check for [%s]: %s", generation, m.UserID, err)
			skipped++
			continue
		}
		if !active {
			continue
		}

		breakdown, err := e.workouts.ComputeAndStore(ctx, m.UserID, m, weights)
		if err != nil {
			log.Errorf("ranking cycle %s, score for [%s]: %s", generation, m.UserID, err)
			skipped++
			continue
		}
		scored = append(scored, scoredUser{metrics: m, breakdown: breakdown})
	}
	e.metricsManager.CounterSkippedUsers.Add(float64(skipped))

	// sorting; equal totals keep the scan order (ascending user id)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].breakdown.Total > scored[j].breakdown.Total
	})

	// assigning
	entries := make([]RankingEntry, len(scored))
	for i, u := range scored {
		entries[i] = newRankingEntry(u, i+1, len(scored))
	}

	// diffing
	previous := e.rotatePrevious(ctx, generation)
	applyRankDeltas(entries, previous)

	// persisting
	overall := LeaderboardSnapshot{
		Type:        Overall,
		Generation:  generation,
		Entries:     entries,
		TotalUsers:  len(entries),
		LastUpdated: now,
	}
	if err := e.snapshots.Save(ctx, string(Overall), overall); err != nil {
		return CycleResult{}, fmt.Errorf("persist overall leaderboard: %w", err)
	}
	e.metricsManager.GaugeRankedUsers.WithLabelValues(string(Overall)).Set(float64(len(entries)))

	persisted := []LeaderboardSnapshot{overall}
	var periodErr error
	for _, t := range []LeaderboardType{Weekly, Monthly} {
		window := windowFor(t, now)
		periodEntries := filterByPeriod(scored, entries, *window)
		snapshot := LeaderboardSnapshot{
			Type:        t,
			Generation:  generation,
			Entries:     periodEntries,
			TotalUsers:  len(periodEntries),
			LastUpdated: now,
			Period:      window,
		}
		if err := e.snapshots.Save(ctx, string(t), snapshot); err != nil {
			periodErr = multierr.Append(periodErr, err)
			continue
		}
		persisted = append(persisted, snapshot)
		e.metricsManager.GaugeRankedUsers.WithLabelValues(string(t)).Set(float64(len(periodEntries)))
	}
	if periodErr != nil {
		log.Errorf("ranking cycle %s, period leaderboards: %s", generation, periodErr)
	}

	e.refreshCache(ctx, generation, persisted)

	duration := time.Since(started)
	log.Infof("ranking cycle %s done: %d ranked, %d skipped, took %s", generation, len(entries), skipped, duration)

	return CycleResult{
		Generation: generation,
		Ranked:     len(entries),
		Skipped:    skipped,
		Duration:   duration,
		DurationMs: duration.Milliseconds(),
	}, nil
}

// refreshCache drops every cached leaderboard and writes the freshly persisted
// ones through. Readers only fill absent keys, so a read that started before
// this cycle cannot put the replaced generation back.
func (e *Engine) refreshCache(ctx context.Context, generation string, persisted []LeaderboardSnapshot) {
	if err := e.cache.Invalidate(ctx, AllLeaderboardTypes...); err != nil {
		log.Errorf("ranking cycle %s, invalidate cache: %s", generation, err)
	}
	for i := range persisted {
		e.cache.Set(ctx, &persisted[i])
	}
}

func (e *Engine) isActive(ctx context.Context, m scoring.UserMetrics) (bool, error) {
	if m.IsActive() {
		return true, nil
	}
	return e.workouts.HasHistory(ctx, m.UserID)
}

// rotatePrevious copies the current overall snapshot into the previous slot and
// returns it, nil if there is none yet.
func (e *Engine) rotatePrevious(ctx context.Context, generation string) *LeaderboardSnapshot {
	previous, err := e.snapshots.Get(ctx, string(Overall))
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			log.Errorf("ranking cycle %s, read previous overall: %s", generation, err)
		}
		return nil
	}
	if err := e.snapshots.Save(ctx, previousOverallDocID, *previous); err != nil {
		log.Errorf("ranking cycle %s, copy previous overall: %s", generation, err)
	}
	return previous
}

func newRankingEntry(u scoredUser, rank, total int) RankingEntry {
	entry := RankingEntry{
		UserID:      u.metrics.UserID,
		TotalScore:  u.breakdown.Total,
		Strength:    u.breakdown.Strength,
		Stamina:     u.breakdown.Stamina,
		Consistency: u.breakdown.Consistency,
		Improvement: u.breakdown.Improvement,
		Rank:        rank,
		Tier:        scoring.ClassifyTier(rank, total),
		RankChange:  RankStable,
	}
	if last := u.metrics.LastActivity(); !last.IsZero() {
		entry.LastActivity = &last
	}
	return entry
}

func applyRankDeltas(entries []RankingEntry, previous *LeaderboardSnapshot) {
	if previous == nil {
		return
	}
	for i := range entries {
		for _, prev := range previous.Entries {
			if prev.UserID != entries[i].UserID {
				continue
			}
			entries[i].RankDelta = prev.Rank - entries[i].Rank
			switch {
			case entries[i].RankDelta > 0:
				entries[i].RankChange = RankUp
			case entries[i].RankDelta < 0:
				entries[i].RankChange = RankDown
			}
			break
		}
	}
}

// filterByPeriod keeps the ranked entries of users active within the window.
// Entries keep their overall rank.
func filterByPeriod(scored []scoredUser, entries []RankingEntry, window Period) []RankingEntry {
	filtered := make([]RankingEntry, 0)
	for i, u := range scored {
		if activeWithin(window, u.metrics.ActivityTimes()) {
			filtered = append(filtered, entries[i])
		}
	}
	return filtered
}
