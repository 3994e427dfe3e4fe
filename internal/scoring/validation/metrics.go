package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitrank/internal/scoring"
)

const (
	maxExerciseNameLen = 100
	heartRateSampleTag = "gte=40,lte=220"
	customMetricTag    = "gte=0,lte=1000000"
)

var customMetricKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type MetricsResult struct {
	Valid  bool                `json:"valid"`
	Errors []string            `json:"errors"`
	Data   scoring.UserMetrics `json:"data"`
}

type numberRule struct {
	field   string
	tag     string
	integer bool
	set     func(m *scoring.UserMetrics, v float64)
}

func setFloat(dst func(m *scoring.UserMetrics) **float64) func(*scoring.UserMetrics, float64) {
	return func(m *scoring.UserMetrics, v float64) {
		*dst(m) = &v
	}
}

func setInt(dst func(m *scoring.UserMetrics) **int) func(*scoring.UserMetrics, float64) {
	return func(m *scoring.UserMetrics, v float64) {
		i := int(v)
		*dst(m) = &i
	}
}

var numberRules = []numberRule{
	{"maxWeightLifted", "gte=0,lte=10000", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.MaxWeightLifted })},
	{"oneRepMax", "gte=0,lte=10000", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.OneRepMax })},
	{"totalWeightLifted", "gte=0,lte=1000000", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.TotalWeightLifted })},
	{"bodyWeight", "gte=20,lte=500", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.BodyWeight })},
	{"workoutDuration", "gte=0,lte=1440", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.WorkoutDuration })},
	{"cardioMinutes", "gte=0,lte=1440", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.CardioMinutes })},
	{"restTimeBetweenSets", "gte=0,lte=600", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.RestTimeBetweenSets })},
	{"maxHeartRate", "gte=60,lte=220", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.MaxHeartRate })},
	{"workoutStreak", "gte=0,lte=10000", true, setInt(func(m *scoring.UserMetrics) **int { return &m.WorkoutStreak })},
	{"totalWorkouts", "gte=0,lte=100000", true, setInt(func(m *scoring.UserMetrics) **int { return &m.TotalWorkouts })},
	{"daysSinceStart", "gte=0,lte=36500", true, setInt(func(m *scoring.UserMetrics) **int { return &m.DaysSinceStart })},
	{"missedWorkouts", "gte=0,lte=100000", true, setInt(func(m *scoring.UserMetrics) **int { return &m.MissedWorkouts })},
	{"workoutFrequency", "gte=0,lte=7", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.WorkoutFrequency })},
	{"caloriesBurned", "gte=0,lte=10000", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.CaloriesBurned })},
	{"workoutIntensity", "gte=0,lte=10", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.WorkoutIntensity })},
	{"workoutSatisfaction", "gte=0,lte=10", false, setFloat(func(m *scoring.UserMetrics) **float64 { return &m.WorkoutSatisfaction })},
}

// ValidateMetrics checks every known field of a raw submission independently and
// collects all violations. Valid data holds the coerced values; absent fields stay nil.
// A missing timestamp is set to now.
func ValidateMetrics(raw map[string]any, now time.Time) MetricsResult {
	var (
		errs []string
		data scoring.UserMetrics
	)

	for _, rule := range numberRules {
		rawValue, ok := raw[rule.field]
		if !ok || rawValue == nil {
			continue
		}
		v, numErrs := checkNumber(rule, rawValue)
		if len(numErrs) > 0 {
			errs = append(errs, numErrs...)
			continue
		}
		rule.set(&data, v)
	}

	if rawValue, ok := raw["userId"]; ok && rawValue != nil {
		id, isString := rawValue.(string)
		if !isString {
			errs = append(errs, "userId must be a string")
		} else if idErrs := ValidateUserID(id); len(idErrs) > 0 {
			errs = append(errs, idErrs...)
		} else {
			data.UserID = id
		}
	}

	if rawValue, ok := raw["heartRateData"]; ok && rawValue != nil {
		samples, err := checkHeartRate(rawValue)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			data.HeartRateData = samples
		}
	}

	for _, f := range []struct {
		field string
		set   func([]string)
	}{
		{"exercisesCompleted", func(v []string) { data.ExercisesCompleted = v }},
		{"favoriteExercises", func(v []string) { data.FavoriteExercises = v }},
	} {
		rawValue, ok := raw[f.field]
		if !ok || rawValue == nil {
			continue
		}
		names, err := sanitizeNames(f.field, rawValue)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		f.set(names)
	}

	if rawValue, ok := raw["customMetrics"]; ok && rawValue != nil {
		custom, err := sanitizeCustomMetrics(rawValue)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			data.CustomMetrics = custom
		}
	}

	if rawValue, ok := raw["lastWorkoutDate"]; ok && rawValue != nil {
		t, err := parseTime(rawValue)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("lastWorkoutDate must be a valid date: %s", err))
		case t.After(now):
			errs = append(errs, "lastWorkoutDate cannot be in the future")
		default:
			data.LastWorkoutDate = &t
		}
	}

	if rawValue, ok := raw["timestamp"]; ok && rawValue != nil {
		t, err := parseTime(rawValue)
		if err != nil {
			errs = append(errs, fmt.Sprintf("timestamp must be a valid date: %s", err))
		} else {
			data.Timestamp = &t
		}
	} else {
		ts := now.UTC()
		data.Timestamp = &ts
	}

	if len(errs) > 0 {
		return MetricsResult{Valid: false, Errors: errs}
	}
	return MetricsResult{Valid: true, Errors: []string{}, Data: data}
}

func checkNumber(rule numberRule, rawValue any) (float64, []string) {
	v, ok := toFloat(rawValue)
	if !ok {
		return 0, []string{fmt.Sprintf("%s must be a number", rule.field)}
	}
	if rule.integer && v != math.Trunc(v) {
		return 0, []string{fmt.Sprintf("%s must be an integer", rule.field)}
	}
	if errs := collect(rule.field, validate.Var(v, rule.tag)); len(errs) > 0 {
		return 0, errs
	}
	return v, nil
}

func checkHeartRate(rawValue any) ([]float64, error) {
	items, ok := rawValue.([]any)
	if !ok {
		return nil, fmt.Errorf("heartRateData must be an array of numbers")
	}
	samples := make([]float64, 0, len(items))
	for i, item := range items {
		v, ok := toFloat(item)
		if !ok || validate.Var(v, heartRateSampleTag) != nil {
			return nil, fmt.Errorf("heartRateData[%d] must be a number between 40 and 220", i)
		}
		samples = append(samples, v)
	}
	return samples, nil
}

func sanitizeNames(field string, rawValue any) ([]string, error) {
	items, ok := rawValue.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings", field)
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || len(s) > maxExerciseNameLen {
			continue
		}
		names = append(names, s)
	}
	return names, nil
}

func sanitizeCustomMetrics(rawValue any) (map[string]float64, error) {
	entries, ok := rawValue.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("customMetrics must be an object")
	}
	custom := make(map[string]float64, len(entries))
	for k, item := range entries {
		if !customMetricKeyRegex.MatchString(k) {
			continue
		}
		v, ok := toFloat(item)
		if !ok || validate.Var(v, customMetricTag) != nil {
			continue
		}
		custom[k] = v
	}
	return custom, nil
}

func toFloat(rawValue any) (float64, bool) {
	var v float64
	switch t := rawValue.(type) {
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int32:
		v = float64(t)
	case int64:
		v = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseTime accepts RFC3339, a plain YYYY-MM-DD date or unix milliseconds.
func parseTime(rawValue any) (time.Time, error) {
	switch t := rawValue.(type) {
	case string:
		s := strings.TrimSpace(t)
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return parsed.UTC(), nil
		}
		parsed, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unsupported format %q", s)
		}
		return parsed.UTC(), nil
	case time.Time:
		return t.UTC(), nil
	default:
		ms, ok := toFloat(rawValue)
		if !ok || ms < 0 {
			return time.Time{}, fmt.Errorf("unsupported value %v", rawValue)
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
}
