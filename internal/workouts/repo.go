package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitrank/internal/docstore"
	"github.com/2beens/fitrank/internal/scoring"
	"github.com/2beens/fitrank/internal/scoring/validation"
	"github.com/2beens/fitrank/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const weightsDocID = "scoring_weights"

var (
	ErrMetricsNotFound = errors.New("metrics not found")
	ErrScoreNotFound   = errors.New("score not found")
)

// Repo keeps per user metrics, their history, score breakdowns and the scoring
// weights in the document store.
type Repo struct {
	store          docstore.Store
	defaultWeights scoring.Weights
}

func NewRepo(store docstore.Store, defaultWeights scoring.Weights) *Repo {
	return &Repo{
		store:          store,
		defaultWeights: defaultWeights,
	}
}

func (r *Repo) GetMetrics(ctx context.Context, userID string) (_ *scoring.UserMetrics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.metrics.get")
	span.SetAttributes(attribute.String("user.id", userID))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var m scoring.UserMetrics
	if err := r.store.Get(ctx, docstore.CollectionUserMetrics, userID, &m); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrMetricsNotFound
		}
		return nil, fmt.Errorf("get metrics [%s]: %w", userID, err)
	}
	if m.UserID == "" {
		m.UserID = userID
	}
	return &m, nil
}

// MergeMetrics overlays the present fields of m onto the stored metrics of the user.
func (r *Repo) MergeMetrics(ctx context.Context, userID string, m scoring.UserMetrics) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.metrics.merge")
	span.SetAttributes(attribute.String("user.id", userID))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	m.UserID = userID
	if err := r.store.Set(ctx, docstore.CollectionUserMetrics, userID, m, docstore.WithMerge()); err != nil {
		return fmt.Errorf("merge metrics [%s]: %w", userID, err)
	}
	return nil
}

func (r *Repo) AppendHistory(ctx context.Context, userID string, m scoring.UserMetrics, recordedAt time.Time) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.history.append")
	span.SetAttributes(attribute.String("user.id", userID))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	m.UserID = userID
	id := uuid.NewString()
	snapshot := scoring.HistoricalSnapshot{
		UserID:     userID,
		RecordedAt: recordedAt.UnixMilli(),
		Metrics:    m,
	}
	if err := r.store.Set(ctx, docstore.CollectionMetricsHistory, id, snapshot); err != nil {
		return "", fmt.Errorf("append history [%s]: %w", userID, err)
	}
	return id, nil
}

// ListHistory returns up to limit of the most recent snapshots, ordered oldest to newest.
func (r *Repo) ListHistory(ctx context.Context, userID string, limit int) (_ []scoring.HistoricalSnapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.history.list")
	span.SetAttributes(attribute.String("user.id", userID))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	docs, err := r.store.Query(ctx, docstore.CollectionMetricsHistory, docstore.Query{
		Where:   []docstore.Filter{{Field: "userId", Op: docstore.OpEq, Value: userID}},
		OrderBy: "recordedAt",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query history [%s]: %w", userID, err)
	}

	history := make([]scoring.HistoricalSnapshot, len(docs))
	for i, doc := range docs {
		// newest first from the store, flip to oldest first
		if err := doc.Decode(&history[len(docs)-1-i]); err != nil {
			return nil, err
		}
	}
	return history, nil
}

func (r *Repo) HasHistory(ctx context.Context, userID string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.history.exists")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	docs, err := r.store.Query(ctx, docstore.CollectionMetricsHistory, docstore.Query{
		Where: []docstore.Filter{{Field: "userId", Op: docstore.OpEq, Value: userID}},
		Limit: 1,
	})
	if err != nil {
		return false, fmt.Errorf("query history [%s]: %w", userID, err)
	}
	return len(docs) > 0, nil
}

// ListAllMetrics returns the current metrics of every user, in ascending user id order.
// Documents that cannot be decoded are logged and left out.
func (r *Repo) ListAllMetrics(ctx context.Context) (_ []scoring.UserMetrics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.metrics.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	docs, err := r.store.ScanAll(ctx, docstore.CollectionUserMetrics)
	if err != nil {
		return nil, fmt.Errorf("scan metrics: %w", err)
	}

	all := make([]scoring.UserMetrics, 0, len(docs))
	for _, doc := range docs {
		var m scoring.UserMetrics
		if err := doc.Decode(&m); err != nil {
			log.Errorf("list metrics, skipping user [%s]: %s", doc.ID, err)
			continue
		}
		if m.UserID == "" {
			m.UserID = doc.ID
		}
		all = append(all, m)
	}
	span.SetAttributes(attribute.Int("metrics.count", len(all)))
	return all, nil
}

func (r *Repo) GetBreakdown(ctx context.Context, userID string) (_ *scoring.ScoreBreakdown, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.score.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var b scoring.ScoreBreakdown
	if err := r.store.Get(ctx, docstore.CollectionUserScores, userID, &b); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrScoreNotFound
		}
		return nil, fmt.Errorf("get score [%s]: %w", userID, err)
	}
	return &b, nil
}

func (r *Repo) SaveBreakdown(ctx context.Context, b scoring.ScoreBreakdown) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.score.save")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := r.store.Set(ctx, docstore.CollectionUserScores, b.UserID, b, docstore.WithMerge()); err != nil {
		return fmt.Errorf("save score [%s]: %w", b.UserID, err)
	}
	return nil
}

// GetWeights reads the stored weight configuration. A missing or malformed
// configuration yields the default weights; only store failures are errors.
func (r *Repo) GetWeights(ctx context.Context) (_ scoring.Weights, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.weights.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	raw := make(map[string]any)
	if err := r.store.Get(ctx, docstore.CollectionConfig, weightsDocID, &raw); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return r.defaultWeights, nil
		}
		return scoring.Weights{}, fmt.Errorf("get weights: %w", err)
	}

	res := validation.ValidateWeights(raw)
	if !res.Valid {
		log.Warnf("stored scoring weights invalid, using defaults: %v", res.Errors)
		return r.defaultWeights, nil
	}
	return res.Weights, nil
}

func (r *Repo) SaveWeights(ctx context.Context, w scoring.Weights) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.weights.save")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := r.store.Set(ctx, docstore.CollectionConfig, weightsDocID, w); err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	return nil
}
