package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/fitrank/internal/docstore"
	"github.com/2beens/fitrank/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// SnapshotRepo stores leaderboard snapshots, one document per leaderboard.
type SnapshotRepo struct {
	store docstore.Store
}

func NewSnapshotRepo(store docstore.Store) *SnapshotRepo {
	return &SnapshotRepo{
		store: store,
	}
}

func (r *SnapshotRepo) Get(ctx context.Context, docID string) (_ *LeaderboardSnapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.ranking.snapshot.get")
	span.SetAttributes(attribute.String("leaderboard.doc", docID))
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var snapshot LeaderboardSnapshot
	if err := r.store.Get(ctx, docstore.CollectionLeaderboards, docID, &snapshot); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("get snapshot [%s]: %w", docID, err)
	}
	return &snapshot, nil
}

func (r *SnapshotRepo) Save(ctx context.Context, docID string, snapshot LeaderboardSnapshot) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.ranking.snapshot.save")
	span.SetAttributes(
		attribute.String("leaderboard.doc", docID),
		attribute.Int("leaderboard.entries", len(snapshot.Entries)),
	)
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if snapshot.Entries == nil {
		snapshot.Entries = []RankingEntry{}
	}
	if err := r.store.Set(ctx, docstore.CollectionLeaderboards, docID, snapshot); err != nil {
		return fmt.Errorf("save snapshot [%s]: %w", docID, err)
	}
	return nil
}
