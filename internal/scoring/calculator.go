package scoring

import (
	"math"
	"time"

	"github.com/2beens/fitrank/pkg"

	log "github.com/sirupsen/logrus"
)

const (
	NeutralImprovement = 50.0
	MaxHistory         = 10
	trendWindow        = 3
)

type ScoreBreakdown struct {
	UserID       string    `json:"userId"`
	Strength     float64   `json:"strength"`
	Stamina      float64   `json:"stamina"`
	Consistency  float64   `json:"consistency"`
	Improvement  float64   `json:"improvement"`
	Total        float64   `json:"total"`
	Weights      Weights   `json:"weights"`
	CalculatedAt time.Time `json:"calculatedAt"`
}

type Calculator struct {
	now func() time.Time
}

func NewCalculator() *Calculator {
	return NewCalculatorWithClock(time.Now)
}

func NewCalculatorWithClock(now func() time.Time) *Calculator {
	return &Calculator{
		now: now,
	}
}

func (c *Calculator) Now() time.Time {
	return c.now()
}

// ComputeScore derives the category scores and the weighted total. history must be
// ordered oldest to newest.
func (c *Calculator) ComputeScore(userID string, m UserMetrics, w Weights, history []HistoricalSnapshot) ScoreBreakdown {
	now := c.now()

	strength := clampScore(StrengthScore(m))
	stamina := clampScore(StaminaScore(m))
	consistency := clampScore(ConsistencyScore(m, now))
	improvement := clampScore(ImprovementScore(userID, history))

	total := strength*w.Strength +
		stamina*w.Stamina +
		consistency*w.Consistency +
		improvement*w.Improvement

	return ScoreBreakdown{
		UserID:       userID,
		Strength:     round2(strength),
		Stamina:      round2(stamina),
		Consistency:  round2(consistency),
		Improvement:  round2(improvement),
		Total:        round2(clampScore(total)),
		Weights:      w,
		CalculatedAt: now.UTC(),
	}
}

func StrengthScore(m UserMetrics) float64 {
	bodyWeight := floatOr(m.BodyWeight, DefaultBodyWeight)
	if bodyWeight == 0 {
		bodyWeight = DefaultBodyWeight
	}

	ratio := math.Min(50, floatOr(m.MaxWeightLifted, 0)/bodyWeight*25)
	oneRepMax := math.Min(30, floatOr(m.OneRepMax, 0)/10)
	volume := math.Min(20, floatOr(m.TotalWeightLifted, 0)/1000)

	return ratio + oneRepMax + volume
}

func StaminaScore(m UserMetrics) float64 {
	score := math.Min(30, floatOr(m.WorkoutDuration, 0)/2)
	score += math.Min(25, floatOr(m.CardioMinutes, 0)/3)
	score += math.Max(0, 120-floatOr(m.RestTimeBetweenSets, 0)) / 120 * 20

	maxHeartRate := floatOr(m.MaxHeartRate, 0)
	if len(m.HeartRateData) > 0 && maxHeartRate != 0 {
		sum := 0.0
		for _, hr := range m.HeartRateData {
			sum += hr
		}
		avg := sum / float64(len(m.HeartRateData))
		score += avg / maxHeartRate * 25
	}

	return score
}

func ConsistencyScore(m UserMetrics, now time.Time) float64 {
	totalWorkouts := intOr(m.TotalWorkouts, 0)

	score := math.Min(40, intOr(m.WorkoutStreak, 0)*2)

	if days := intOr(m.DaysSinceStart, 0); days > 0 {
		score += math.Min(30, totalWorkouts/days*100)
	}

	if planned := totalWorkouts + intOr(m.MissedWorkouts, 0); planned > 0 {
		score += totalWorkouts / planned * 20
	}

	if m.LastWorkoutDate != nil {
		daysAgo := now.Sub(*m.LastWorkoutDate).Hours() / 24
		switch {
		case daysAgo <= 7:
			score += 10
		case daysAgo <= 14:
			score += 5
		}
	}

	return score
}

// ImprovementScore compares the earliest and the most recent snapshots. Fewer
// than two snapshots, or a non finite result, yields the neutral 50.
func ImprovementScore(userID string, history []HistoricalSnapshot) float64 {
	if len(history) < 2 {
		return NeutralImprovement
	}

	old := history[:min(trendWindow, len(history))]
	recent := history[max(0, len(history)-trendWindow):]

	score := 0.0
	for _, part := range []struct {
		points float64
		value  func(UserMetrics) float64
	}{
		{30, func(m UserMetrics) float64 { return floatOr(m.MaxWeightLifted, 0) }},
		{25, func(m UserMetrics) float64 { return floatOr(m.WorkoutDuration, 0) }},
		{25, func(m UserMetrics) float64 { return intOr(m.WorkoutStreak, 0) }},
	} {
		score += improvementFactor(average(old, part.value), average(recent, part.value)) * part.points
	}

	var totalTrend float64
	for i := 1; i < len(history); i++ {
		totalTrend += trendSum(history[i].Metrics) - trendSum(history[i-1].Metrics)
	}
	avgTrend := totalTrend / float64(len(history)-1)
	score += pkg.Clamp(avgTrend/100+0.5, 0, 1) * 20

	if math.IsNaN(score) || math.IsInf(score, 0) {
		log.Warnf("improvement score for [%s] not finite, using neutral value", userID)
		return NeutralImprovement
	}
	return score
}

func improvementFactor(oldAvg, recentAvg float64) float64 {
	if oldAvg == 0 {
		return 0.5
	}
	return pkg.Clamp((recentAvg-oldAvg)/oldAvg+0.5, 0, 1)
}

func average(snapshots []HistoricalSnapshot, value func(UserMetrics) float64) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range snapshots {
		sum += value(s.Metrics)
	}
	return sum / float64(len(snapshots))
}

func trendSum(m UserMetrics) float64 {
	return floatOr(m.MaxWeightLifted, 0) + floatOr(m.WorkoutDuration, 0) + intOr(m.WorkoutStreak, 0)
}

func clampScore(v float64) float64 {
	return pkg.Clamp(v, 0, 100)
}

func round2(v float64) float64 {
	return pkg.RoundTo(v, 2)
}
