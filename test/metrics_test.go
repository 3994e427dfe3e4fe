//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"

	"github.com/2beens/fitrank/internal/scoring"
)

func (s *IntegrationTestSuite) TestSubmitMetrics() {
	ctx := context.Background()

	status, resp := s.do(ctx, "POST", "/metrics/it-alice", map[string]any{
		"maxWeightLifted":   100,
		"bodyWeight":        100,
		"oneRepMax":         100,
		"totalWeightLifted": 1000,
	})
	s.Require().Equal(http.StatusCreated, status, resp.Error)
	s.True(resp.Success)

	var breakdown scoring.ScoreBreakdown
	s.decode(resp.Data, &breakdown)
	s.Equal("it-alice", breakdown.UserID)
	s.Equal(36.0, breakdown.Strength)
	s.Equal(scoring.NeutralImprovement, breakdown.Improvement)

	status, resp = s.do(ctx, "GET", "/scores/it-alice", nil)
	s.Require().Equal(http.StatusOK, status)
	var stored scoring.ScoreBreakdown
	s.decode(resp.Data, &stored)
	s.Equal(breakdown.Total, stored.Total)

	var historyCount int
	s.Require().NoError(s.DB.QueryRow(
		"SELECT count(*) FROM document WHERE collection = 'metrics_history' AND data ->> 'userId' = $1",
		"it-alice",
	).Scan(&historyCount))
	s.Equal(1, historyCount)
}

func (s *IntegrationTestSuite) TestSubmitMetrics_MergesPartialUpdates() {
	ctx := context.Background()

	status, _ := s.do(ctx, "POST", "/metrics/it-bob", map[string]any{
		"maxWeightLifted": 80,
		"totalWorkouts":   12,
	})
	s.Require().Equal(http.StatusCreated, status)
	status, _ = s.do(ctx, "POST", "/metrics/it-bob", map[string]any{
		"maxWeightLifted": 95,
	})
	s.Require().Equal(http.StatusCreated, status)

	var maxWeight float64
	var totalWorkouts int
	s.Require().NoError(s.DB.QueryRow(
		"SELECT (data ->> 'maxWeightLifted')::float, (data ->> 'totalWorkouts')::int FROM document WHERE collection = 'user_metrics' AND id = $1",
		"it-bob",
	).Scan(&maxWeight, &totalWorkouts))
	s.Equal(95.0, maxWeight)
	s.Equal(12, totalWorkouts)
}

func (s *IntegrationTestSuite) TestSubmitMetrics_Invalid() {
	ctx := context.Background()

	status, resp := s.do(ctx, "POST", "/metrics/it-carol", map[string]any{
		"bodyWeight":    5,
		"maxHeartRate":  400,
		"heartRateData": []any{120, "fast"},
	})
	s.Require().Equal(http.StatusBadRequest, status)
	s.False(resp.Success)
	s.Equal("validation failed", resp.Error)
	s.Len(resp.Errors, 3)

	status, _ = s.do(ctx, "GET", "/scores/it-carol", nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestWeights() {
	ctx := context.Background()

	status, resp := s.do(ctx, "GET", "/weights", nil)
	s.Require().Equal(http.StatusOK, status)
	var weights scoring.Weights
	s.decode(resp.Data, &weights)
	s.Equal(scoring.DefaultWeights(), weights)

	status, resp = s.do(ctx, "PUT", "/weights", map[string]any{
		"strength":    0.7,
		"stamina":     0.1,
		"consistency": 0.1,
		"improvement": 0.3,
	})
	s.Require().Equal(http.StatusBadRequest, status)
	s.NotEmpty(resp.Errors)

	status, _ = s.do(ctx, "PUT", "/weights", map[string]any{
		"strength":    0.7,
		"stamina":     0.1,
		"consistency": 0.1,
		"improvement": 0.1,
	})
	s.Require().Equal(http.StatusOK, status)

	// new weights apply to the next score computation
	status, resp = s.do(ctx, "POST", "/metrics/it-dave", map[string]any{
		"maxWeightLifted": 100,
		"bodyWeight":      100,
	})
	s.Require().Equal(http.StatusCreated, status)
	var breakdown scoring.ScoreBreakdown
	s.decode(resp.Data, &breakdown)
	s.Equal(0.7, breakdown.Weights.Strength)
}
