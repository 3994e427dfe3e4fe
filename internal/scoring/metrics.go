package scoring

import "time"

// UserMetrics is one submission of raw fitness measurements. Every field is
// optional; an absent field counts as 0 unless a formula documents another default.
type UserMetrics struct {
	UserID              string             `json:"userId,omitempty"`
	MaxWeightLifted     *float64           `json:"maxWeightLifted,omitempty"`
	OneRepMax           *float64           `json:"oneRepMax,omitempty"`
	TotalWeightLifted   *float64           `json:"totalWeightLifted,omitempty"`
	BodyWeight          *float64           `json:"bodyWeight,omitempty"`
	WorkoutDuration     *float64           `json:"workoutDuration,omitempty"`
	CardioMinutes       *float64           `json:"cardioMinutes,omitempty"`
	RestTimeBetweenSets *float64           `json:"restTimeBetweenSets,omitempty"`
	HeartRateData       []float64          `json:"heartRateData,omitempty"`
	MaxHeartRate        *float64           `json:"maxHeartRate,omitempty"`
	WorkoutStreak       *int               `json:"workoutStreak,omitempty"`
	TotalWorkouts       *int               `json:"totalWorkouts,omitempty"`
	DaysSinceStart      *int               `json:"daysSinceStart,omitempty"`
	MissedWorkouts      *int               `json:"missedWorkouts,omitempty"`
	WorkoutFrequency    *float64           `json:"workoutFrequency,omitempty"`
	LastWorkoutDate     *time.Time         `json:"lastWorkoutDate,omitempty"`
	ExercisesCompleted  []string           `json:"exercisesCompleted,omitempty"`
	FavoriteExercises   []string           `json:"favoriteExercises,omitempty"`
	CaloriesBurned      *float64           `json:"caloriesBurned,omitempty"`
	WorkoutIntensity    *float64           `json:"workoutIntensity,omitempty"`
	WorkoutSatisfaction *float64           `json:"workoutSatisfaction,omitempty"`
	CustomMetrics       map[string]float64 `json:"customMetrics,omitempty"`
	Timestamp           *time.Time         `json:"timestamp,omitempty"`
}

// HistoricalSnapshot is an append-only copy of a submission, used for the improvement trend.
type HistoricalSnapshot struct {
	UserID     string      `json:"userId"`
	RecordedAt int64       `json:"recordedAt"` // unix millis
	Metrics    UserMetrics `json:"metrics"`
}

const DefaultBodyWeight = 70.0

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) float64 {
	if v == nil {
		return float64(def)
	}
	return float64(*v)
}

// IsActive reports whether the metrics alone qualify a user for ranking.
func (m UserMetrics) IsActive() bool {
	return intOr(m.TotalWorkouts, 0) > 0 || floatOr(m.MaxWeightLifted, 0) > 0
}

// ActivityTimes are the moments that count as activity for period leaderboards.
func (m UserMetrics) ActivityTimes() []time.Time {
	var times []time.Time
	if m.Timestamp != nil {
		times = append(times, *m.Timestamp)
	}
	if m.LastWorkoutDate != nil {
		times = append(times, *m.LastWorkoutDate)
	}
	return times
}

// LastActivity is the most recent of ActivityTimes, zero if there is none.
func (m UserMetrics) LastActivity() time.Time {
	var last time.Time
	for _, t := range m.ActivityTimes() {
		if t.After(last) {
			last = t
		}
	}
	return last
}
