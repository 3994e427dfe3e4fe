package ranking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitrank/internal/scoring"
)

type LeaderboardType string

const (
	Overall LeaderboardType = "overall"
	Weekly  LeaderboardType = "weekly"
	Monthly LeaderboardType = "monthly"

	previousOverallDocID = "overall_previous"
)

var (
	AllLeaderboardTypes = []LeaderboardType{Overall, Weekly, Monthly}

	ErrUnknownLeaderboardType = errors.New("unknown leaderboard type")
	ErrSnapshotNotFound       = errors.New("leaderboard snapshot not found")
)

func ParseLeaderboardType(s string) (LeaderboardType, error) {
	t := LeaderboardType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllLeaderboardTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLeaderboardType, s)
}

type RankChange string

const (
	RankUp     RankChange = "up"
	RankDown   RankChange = "down"
	RankStable RankChange = "stable"
)

type RankingEntry struct {
	UserID       string       `json:"userId"`
	DisplayName  string       `json:"displayName,omitempty"`
	AvatarURL    *string      `json:"avatarUrl"`
	TotalScore   float64      `json:"totalScore"`
	Strength     float64      `json:"strength"`
	Stamina      float64      `json:"stamina"`
	Consistency  float64      `json:"consistency"`
	Improvement  float64      `json:"improvement"`
	Rank         int          `json:"rank"`
	Tier         scoring.Tier `json:"tier"`
	RankDelta    int          `json:"rankDelta"`
	RankChange   RankChange   `json:"rankChange"`
	LastActivity *time.Time   `json:"lastActivity,omitempty"`
}

// LeaderboardSnapshot is one persisted generation of a leaderboard.
type LeaderboardSnapshot struct {
	Type        LeaderboardType `json:"type"`
	Generation  string          `json:"generation"`
	Entries     []RankingEntry  `json:"entries"`
	TotalUsers  int             `json:"totalUsers"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Period      *Period         `json:"period,omitempty"`
}

type CycleResult struct {
	Generation string        `json:"generation"`
	Ranked     int           `json:"ranked"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"durationMs"`
}

type LeaderboardStats struct {
	TotalUsers  int        `json:"totalUsers"`
	Generation  string     `json:"generation,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated"`
	Period      *Period    `json:"period,omitempty"`
}

type RankingStatistics struct {
	TierDistribution map[scoring.Tier]int                 `json:"tierDistribution"`
	Leaderboards     map[LeaderboardType]LeaderboardStats `json:"leaderboards"`
}
