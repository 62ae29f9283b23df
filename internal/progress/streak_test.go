package progress

import (
	"testing"
	"time"
)

func TestComputeStreak(t *testing.T) {
	today := date(time.March, 10).Add(20 * time.Hour)
	days := func(ds ...int) []time.Time {
		out := make([]time.Time, len(ds))
		for i, d := range ds {
			out[i] = date(time.March, d)
		}
		return out
	}

	cases := []struct {
		name        string
		dates       []time.Time
		wantStatus  StreakStatus
		wantCurrent int
		wantMax     int
		wantLast    string
	}{
		{"never logged", nil, StreakNew, 0, 0, ""},
		{"logged today with duplicates", days(1, 2, 8, 9, 10, 10), StreakActive, 3, 3, "2024-03-10"},
		{"last log yesterday", days(5, 6, 7, 8, 9), StreakWarning, 5, 5, "2024-03-09"},
		{"broken keeps max", days(1, 2, 3, 4, 7), StreakBroken, 0, 4, "2024-03-07"},
		{"future dates ignored", days(10, 11, 12), StreakActive, 1, 1, "2024-03-10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := ComputeStreak(tc.dates, today)
			if s.Status != tc.wantStatus {
				t.Errorf("Status = %s, want %s", s.Status, tc.wantStatus)
			}
			if s.Current != tc.wantCurrent || s.Max != tc.wantMax {
				t.Errorf("Current/Max = %d/%d, want %d/%d", s.Current, s.Max, tc.wantCurrent, tc.wantMax)
			}
			last := ""
			if s.LastLoggedDate != nil {
				last = *s.LastLoggedDate
			}
			if last != tc.wantLast {
				t.Errorf("LastLoggedDate = %q, want %q", last, tc.wantLast)
			}
			if s.TodayHasLog != (tc.wantStatus == StreakActive) {
				t.Errorf("TodayHasLog = %v", s.TodayHasLog)
			}
			if s.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}
