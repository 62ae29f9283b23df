package progress

import (
	"fmt"
	"sort"
	"time"
)

// StreakStatus describes where a user stands relative to today.
type StreakStatus string

const (
	StreakActive  StreakStatus = "active"  // logged today
	StreakWarning StreakStatus = "warning" // last log was yesterday
	StreakBroken  StreakStatus = "broken"
	StreakNew     StreakStatus = "new" // never logged
)

// Streak is the consecutive-day logging view of a user.
type Streak struct {
	Current        int          `json:"current_streak"`
	Max            int          `json:"max_streak"`
	LastLoggedDate *string      `json:"last_logged_date"`
	TodayHasLog    bool         `json:"today_has_log"`
	Status         StreakStatus `json:"status"`
	Message        string       `json:"message"`
}

// ComputeStreak derives streak counters from the distinct days a user logged
// meals. Dates after today are ignored. Current counts the run ending on the
// last logged day while that day is today or yesterday, and is 0 otherwise.
func ComputeStreak(dates []time.Time, today time.Time) Streak {
	today = Midnight(today)
	todayKey := DayKey(today)
	yesterdayKey := DayKey(today.AddDate(0, 0, -1))

	seen := map[string]bool{}
	var days []time.Time
	for _, d := range dates {
		k := DayKey(d)
		if k > todayKey || seen[k] {
			continue
		}
		seen[k] = true
		days = append(days, Midnight(d))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	if len(days) == 0 {
		return Streak{Status: StreakNew, Message: "Log your first meal today to start a streak!"}
	}

	run, best := 1, 1
	for i := 1; i < len(days); i++ {
		if DayKey(days[i-1].AddDate(0, 0, 1)) == DayKey(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}

	last := DayKey(days[len(days)-1])
	s := Streak{Max: best, LastLoggedDate: &last, TodayHasLog: last == todayKey}
	switch last {
	case todayKey:
		s.Current = run
		s.Status = StreakActive
		s.Message = fmt.Sprintf("%d days in a row, keep it up!", run)
	case yesterdayKey:
		s.Current = run
		s.Status = StreakWarning
		s.Message = "Nothing logged today yet. Keep your streak alive!"
	default:
		s.Status = StreakBroken
		s.Message = fmt.Sprintf("Streak broken. Last log: %s", last)
	}
	return s
}
