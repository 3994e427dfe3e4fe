//go:build integration_test || all_tests

package test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/2beens/fitrank/internal/ranking"
	"github.com/2beens/fitrank/internal/scoring"
)

func (s *IntegrationTestSuite) submitLifter(ctx context.Context, userID string, maxWeight float64) {
	status, resp := s.do(ctx, "POST", "/metrics/"+userID, map[string]any{
		"maxWeightLifted": maxWeight,
		"bodyWeight":      100,
	})
	s.Require().Equal(http.StatusCreated, status, resp.Error)
}

func (s *IntegrationTestSuite) recompute(ctx context.Context) ranking.CycleResult {
	status, resp := s.do(ctx, "POST", "/rankings/recompute", nil)
	s.Require().Equal(http.StatusOK, status, resp.Error)
	var result ranking.CycleResult
	s.decode(resp.Data, &result)
	return result
}

func (s *IntegrationTestSuite) leaderboard(ctx context.Context, path string) []ranking.RankingEntry {
	status, resp := s.do(ctx, "GET", path, nil)
	s.Require().Equal(http.StatusOK, status, resp.Error)
	var entries []ranking.RankingEntry
	s.decode(resp.Data, &entries)
	return entries
}

func (s *IntegrationTestSuite) TestLeaderboard_BeforeFirstCycle() {
	ctx := context.Background()

	for _, t := range []string{"overall", "weekly", "monthly"} {
		entries := s.leaderboard(ctx, "/leaderboard/"+t)
		s.NotNil(entries)
		s.Empty(entries)
	}

	status, resp := s.do(ctx, "GET", "/leaderboard/overall/user/it-nobody", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("null", string(resp.Data))
}

func (s *IntegrationTestSuite) TestLeaderboard_RanksAndEnrichment() {
	ctx := context.Background()

	_, err := s.DB.Exec(
		`INSERT INTO document (collection, id, data) VALUES ('users', 'it-u03', '{"displayName":"Third Lifter"}')`,
	)
	s.Require().NoError(err)

	for i := 1; i <= 5; i++ {
		s.submitLifter(ctx, fmt.Sprintf("it-u%02d", i), float64(200-i*20))
	}

	result := s.recompute(ctx)
	s.Equal(5, result.Ranked)
	s.Equal(0, result.Skipped)

	entries := s.leaderboard(ctx, "/leaderboard/overall?limit=3&offset=1")
	s.Require().Len(entries, 3)
	s.Equal("it-u02", entries[0].UserID)
	s.Equal(2, entries[0].Rank)
	s.Equal("it-u03", entries[1].UserID)
	s.Equal("Third Lifter", entries[1].DisplayName)
	s.Equal("Anonymous", entries[0].DisplayName)

	all := s.leaderboard(ctx, "/leaderboard/overall")
	s.Require().Len(all, 5)
	s.Equal(scoring.TierDiamond, all[0].Tier)
	s.Equal(scoring.TierBronze, all[4].Tier)
	for _, entry := range all {
		s.Equal(ranking.RankStable, entry.RankChange)
	}

	// every submission is stamped with the time it arrived, so all of them were active this week
	weekly := s.leaderboard(ctx, "/leaderboard/weekly")
	s.Require().Len(weekly, 5)
	for i, entry := range weekly {
		s.Equal(all[i].UserID, entry.UserID)
		s.Equal(all[i].Rank, entry.Rank)
	}

	// the overall snapshot is now served from redis
	cached, err := s.redisClient.Exists(ctx, "leaderboard::overall").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), cached)

	status, resp := s.do(ctx, "GET", "/leaderboard/stats", nil)
	s.Require().Equal(http.StatusOK, status)
	var stats ranking.RankingStatistics
	s.decode(resp.Data, &stats)
	s.Equal(5, stats.Leaderboards[ranking.Overall].TotalUsers)
	s.Equal(result.Generation, stats.Leaderboards[ranking.Overall].Generation)
	total := 0
	for _, n := range stats.TierDistribution {
		total += n
	}
	s.Equal(5, total)
}

func (s *IntegrationTestSuite) TestLeaderboard_RankDeltasAcrossCycles() {
	ctx := context.Background()

	s.submitLifter(ctx, "it-first", 150)
	s.submitLifter(ctx, "it-second", 100)
	first := s.recompute(ctx)

	// it-second overtakes
	s.submitLifter(ctx, "it-second", 200)
	second := s.recompute(ctx)
	s.NotEqual(first.Generation, second.Generation)

	status, resp := s.do(ctx, "GET", "/leaderboard/overall/user/it-second", nil)
	s.Require().Equal(http.StatusOK, status)
	var entry ranking.RankingEntry
	s.decode(resp.Data, &entry)
	s.Equal(1, entry.Rank)
	s.Equal(1, entry.RankDelta)
	s.Equal(ranking.RankUp, entry.RankChange)

	status, resp = s.do(ctx, "GET", "/leaderboard/overall/user/it-first", nil)
	s.Require().Equal(http.StatusOK, status)
	s.decode(resp.Data, &entry)
	s.Equal(2, entry.Rank)
	s.Equal(-1, entry.RankDelta)
	s.Equal(ranking.RankDown, entry.RankChange)

	var previousGeneration string
	s.Require().NoError(s.DB.QueryRow(
		"SELECT data ->> 'generation' FROM document WHERE collection = 'leaderboards' AND id = 'overall_previous'",
	).Scan(&previousGeneration))
	s.Equal(first.Generation, previousGeneration)
}

func (s *IntegrationTestSuite) TestLeaderboard_BadRequests() {
	ctx := context.Background()

	status, resp := s.do(ctx, "GET", "/leaderboard/yearly", nil)
	s.Equal(http.StatusBadRequest, status)
	s.False(resp.Success)

	status, _ = s.do(ctx, "GET", "/leaderboard/overall?limit=0", nil)
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.do(ctx, "GET", "/leaderboard/overall?offset=-1", nil)
	s.Equal(http.StatusBadRequest, status)
}
