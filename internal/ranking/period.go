package ranking

import "time"

// Period is an inclusive UTC time window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// WeekWindow is the Monday to Sunday week holding now.
func WeekWindow(now time.Time) Period {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sinceMonday := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -sinceMonday)
	return Period{
		Start: start,
		End:   start.AddDate(0, 0, 7).Add(-time.Nanosecond),
	}
}

// MonthWindow is the calendar month holding now.
func MonthWindow(now time.Time) Period {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}
}

func windowFor(t LeaderboardType, now time.Time) *Period {
	var p Period
	switch t {
	case Weekly:
		p = WeekWindow(now)
	case Monthly:
		p = MonthWindow(now)
	default:
		return nil
	}
	return &p
}

func activeWithin(p Period, times []time.Time) bool {
	for _, t := range times {
		if p.Contains(t) {
			return true
		}
	}
	return false
}
