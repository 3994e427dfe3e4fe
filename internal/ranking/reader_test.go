package ranking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/2beens/fitrank/internal/docstore"
	"github.com/2beens/fitrank/internal/ranking"
	"github.com/2beens/fitrank/internal/scoring"
	"github.com/2beens/fitrank/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles struct {
	failing map[string]bool
}

func (p fakeProfiles) Profile(_ context.Context, userID string) (ranking.Profile, error) {
	if p.failing[userID] {
		return ranking.Profile{}, errors.New("users service down")
	}
	avatar := fmt.Sprintf("https://avatars.example.com/%s.png", userID)
	return ranking.Profile{DisplayName: "name-" + userID, AvatarURL: &avatar}, nil
}

type mapCache struct {
	mutex     sync.Mutex
	snapshots map[ranking.LeaderboardType]*ranking.LeaderboardSnapshot
	hits      int
}

func newMapCache() *mapCache {
	return &mapCache{snapshots: make(map[ranking.LeaderboardType]*ranking.LeaderboardSnapshot)}
}

func (c *mapCache) Get(_ context.Context, t ranking.LeaderboardType) (*ranking.LeaderboardSnapshot, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	s, ok := c.snapshots[t]
	if ok {
		c.hits++
	}
	return s, ok
}

func (c *mapCache) Set(_ context.Context, snapshot *ranking.LeaderboardSnapshot) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.snapshots[snapshot.Type] = snapshot
}

func (c *mapCache) Fill(_ context.Context, snapshot *ranking.LeaderboardSnapshot) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.snapshots[snapshot.Type]; !ok {
		c.snapshots[snapshot.Type] = snapshot
	}
}

func (c *mapCache) Invalidate(_ context.Context, types ...ranking.LeaderboardType) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, t := range types {
		delete(c.snapshots, t)
	}
	return nil
}

func rankedEntries(n int) []ranking.RankingEntry {
	entries := make([]ranking.RankingEntry, n)
	for i := range entries {
		entries[i] = ranking.RankingEntry{
			UserID:     fmt.Sprintf("user-%02d", i+1),
			TotalScore: float64(100 - i),
			Rank:       i + 1,
			Tier:       scoring.ClassifyTier(i+1, n),
			RankChange: ranking.RankStable,
		}
	}
	return entries
}

type readerFixture struct {
	snapshots      *ranking.SnapshotRepo
	cache          *mapCache
	reader         *ranking.Reader
	metricsManager *metrics.Manager
}

func newReaderFixture(profiles fakeProfiles) *readerFixture {
	snapshots := ranking.NewSnapshotRepo(docstore.NewMemStore())
	cache := newMapCache()
	metricsManager := metrics.NewTestManager()
	return &readerFixture{
		snapshots:      snapshots,
		cache:          cache,
		reader:         ranking.NewReader(snapshots, cache, profiles, metricsManager),
		metricsManager: metricsManager,
	}
}

func (f *readerFixture) save(t *testing.T, lt ranking.LeaderboardType, entries []ranking.RankingEntry) {
	t.Helper()
	require.NoError(t, f.snapshots.Save(context.Background(), string(lt), ranking.LeaderboardSnapshot{
		Type:        lt,
		Generation:  "gen-1",
		Entries:     entries,
		TotalUsers:  len(entries),
		LastUpdated: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
	}))
}

func TestReader_GetLeaderboard_Absent(t *testing.T) {
	f := newReaderFixture(fakeProfiles{})

	entries, err := f.reader.GetLeaderboard(context.Background(), "weekly", 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	_, err = f.reader.GetLeaderboard(context.Background(), "yearly", 10, 0)
	assert.ErrorIs(t, err, ranking.ErrUnknownLeaderboardType)
}

func TestReader_GetLeaderboard_Pagination(t *testing.T) {
	ctx := context.Background()
	f := newReaderFixture(fakeProfiles{})
	f.save(t, ranking.Overall, rankedEntries(25))

	entries, err := f.reader.GetLeaderboard(ctx, "overall", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	assert.Equal(t, "user-01", entries[0].UserID)
	assert.Equal(t, "user-10", entries[9].UserID)

	entries, err = f.reader.GetLeaderboard(ctx, "overall", 10, 20)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, 21, entries[0].Rank)

	entries, err = f.reader.GetLeaderboard(ctx, "overall", 10, 25)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// the second and later reads come from the cache
	assert.Equal(t, 2, f.cache.hits)
}

func TestReader_GetLeaderboard_Enrichment(t *testing.T) {
	ctx := context.Background()
	f := newReaderFixture(fakeProfiles{failing: map[string]bool{"user-03": true}})
	f.save(t, ranking.Overall, rankedEntries(5))

	entries, err := f.reader.GetLeaderboard(ctx, "overall", 50, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	for _, entry := range entries {
		if entry.UserID == "user-03" {
			assert.Equal(t, "Anonymous", entry.DisplayName)
			assert.Nil(t, entry.AvatarURL)
			continue
		}
		assert.Equal(t, "name-"+entry.UserID, entry.DisplayName)
		require.NotNil(t, entry.AvatarURL)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metricsManager.CounterEnrichmentFallbacks))

	// enrichment never leaks into the cached snapshot
	cached, ok := f.cache.Get(ctx, ranking.Overall)
	require.True(t, ok)
	assert.Empty(t, cached.Entries[0].DisplayName)
}

func TestReader_GetUserRankingDetails(t *testing.T) {
	ctx := context.Background()
	f := newReaderFixture(fakeProfiles{})
	f.save(t, ranking.Overall, rankedEntries(5))

	entry, err := f.reader.GetUserRankingDetails(ctx, "user-04", "overall")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 4, entry.Rank)
	assert.Equal(t, "name-user-04", entry.DisplayName)

	entry, err = f.reader.GetUserRankingDetails(ctx, "user-99", "overall")
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = f.reader.GetUserRankingDetails(ctx, "user-04", "monthly")
	require.NoError(t, err)
	assert.Nil(t, entry)

	_, err = f.reader.GetUserRankingDetails(ctx, "user-04", "")
	assert.ErrorIs(t, err, ranking.ErrUnknownLeaderboardType)
}

func TestReader_GetRankingStatistics(t *testing.T) {
	ctx := context.Background()
	f := newReaderFixture(fakeProfiles{})
	f.save(t, ranking.Overall, rankedEntries(20))
	f.save(t, ranking.Weekly, rankedEntries(20)[:3])

	stats, err := f.reader.GetRankingStatistics(ctx)
	require.NoError(t, err)

	// percentile cutoffs over 20 users: ranks 1-2, 3-4, 5-7, 8-11, 12-20
	assert.Equal(t, map[scoring.Tier]int{
		scoring.TierDiamond:  2,
		scoring.TierPlatinum: 2,
		scoring.TierGold:     3,
		scoring.TierSilver:   4,
		scoring.TierBronze:   9,
	}, stats.TierDistribution)

	assert.Equal(t, 20, stats.Leaderboards[ranking.Overall].TotalUsers)
	require.NotNil(t, stats.Leaderboards[ranking.Overall].LastUpdated)
	assert.Equal(t, 3, stats.Leaderboards[ranking.Weekly].TotalUsers)
	assert.Equal(t, 0, stats.Leaderboards[ranking.Monthly].TotalUsers)
	assert.Nil(t, stats.Leaderboards[ranking.Monthly].LastUpdated)
	assert.NotNil(t, stats.Leaderboards[ranking.Monthly].Period)
}
