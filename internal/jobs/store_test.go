package jobs

import (
	"testing"
	"time"

	"lg/nutri-coach-go-api/internal/metabolism"
)

func TestSnapshotArgs_DateIsDayKey(t *testing.T) {
	istanbul := time.FixedZone("+03", 3*60*60)
	snap := metabolism.Snapshot{
		Date:           time.Date(2024, 3, 9, 0, 0, 0, 0, istanbul),
		Steps:          6000,
		BMR:            1629,
		TDEE:           2240,
		TargetCalories: 2240,
	}

	args := snapshotArgs(42, snap)
	if got, ok := args["date"].(string); !ok || got != "2024-03-09" {
		t.Errorf("date arg = %#v, want \"2024-03-09\"", args["date"])
	}
	if args["user_id"] != 42 || args["steps"] != 6000 || args["target"] != 2240 {
		t.Errorf("args = %v", args)
	}
}
