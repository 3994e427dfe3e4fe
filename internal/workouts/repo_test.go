package workouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/fitrank/internal/docstore"
	"github.com/2beens/fitrank/internal/scoring"
	"github.com/2beens/fitrank/internal/workouts"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_ListHistory_MostRecentOldestFirst(t *testing.T) {
	ctx := context.Background()
	repo := workouts.NewRepo(docstore.NewMemStore(), scoring.DefaultWeights())

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		streak := i
		_, err := repo.AppendHistory(ctx, "user-1", scoring.UserMetrics{WorkoutStreak: &streak}, start.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}
	// another user's history must not leak in
	_, err := repo.AppendHistory(ctx, "user-2", scoring.UserMetrics{}, start.Add(100*time.Hour))
	require.NoError(t, err)

	history, err := repo.ListHistory(ctx, "user-1", scoring.MaxHistory)
	require.NoError(t, err)
	require.Len(t, history, 10)
	for i, snapshot := range history {
		assert.Equal(t, "user-1", snapshot.UserID)
		require.NotNil(t, snapshot.Metrics.WorkoutStreak)
		assert.Equal(t, i+2, *snapshot.Metrics.WorkoutStreak)
	}
	assert.Less(t, history[0].RecordedAt, history[9].RecordedAt)
}

func TestRepo_ListAllMetrics(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemStore()
	repo := workouts.NewRepo(store, scoring.DefaultWeights())

	ids := []string{"charlie", "alpha", "bravo"}
	for _, id := range ids {
		total := gofakeit.Number(1, 100)
		require.NoError(t, repo.MergeMetrics(ctx, id, scoring.UserMetrics{TotalWorkouts: &total}))
	}
	// stored without a userId field
	require.NoError(t, store.Set(ctx, docstore.CollectionUserMetrics, "delta", map[string]any{"totalWorkouts": 1}))

	all, err := repo.ListAllMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "alpha", all[0].UserID)
	assert.Equal(t, "bravo", all[1].UserID)
	assert.Equal(t, "charlie", all[2].UserID)
	assert.Equal(t, "delta", all[3].UserID)
}

func TestRepo_GetWeights_Fallbacks(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemStore()
	defaults := scoring.Weights{Strength: 0.25, Stamina: 0.25, Consistency: 0.25, Improvement: 0.25}
	repo := workouts.NewRepo(store, defaults)

	weights, err := repo.GetWeights(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaults, weights)

	require.NoError(t, store.Set(ctx, docstore.CollectionConfig, "scoring_weights", map[string]any{
		"strength": "heavy",
		"stamina":  0.5,
	}))
	weights, err = repo.GetWeights(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaults, weights)

	require.NoError(t, store.Set(ctx, docstore.CollectionConfig, "scoring_weights", map[string]any{
		"strength":    0.9,
		"stamina":     0.9,
		"consistency": 0.9,
		"improvement": 0.9,
	}))
	weights, err = repo.GetWeights(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaults, weights)

	custom := scoring.Weights{Strength: 0.1, Stamina: 0.2, Consistency: 0.3, Improvement: 0.4}
	require.NoError(t, repo.SaveWeights(ctx, custom))
	weights, err = repo.GetWeights(ctx)
	require.NoError(t, err)
	assert.InDelta(t, custom.Strength, weights.Strength, 1e-9)
	assert.InDelta(t, custom.Improvement, weights.Improvement, 1e-9)
}

func TestRepo_Breakdown(t *testing.T) {
	ctx := context.Background()
	repo := workouts.NewRepo(docstore.NewMemStore(), scoring.DefaultWeights())

	_, err := repo.GetBreakdown(ctx, "user-1")
	assert.ErrorIs(t, err, workouts.ErrScoreNotFound)

	b := scoring.ScoreBreakdown{
		UserID:       "user-1",
		Strength:     36,
		Total:        51.2,
		Weights:      scoring.DefaultWeights(),
		CalculatedAt: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveBreakdown(ctx, b))

	stored, err := repo.GetBreakdown(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, b, *stored)
}
