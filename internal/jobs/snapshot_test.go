package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/metabolism"
)

type snapKey struct {
	user int
	date string
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu        sync.Mutex
	profiles  map[int]metabolism.BodyProfile
	goals     map[int]metabolism.GoalType
	snapshots map[snapKey]metabolism.Snapshot
	saves     int
	failUser  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:  map[int]metabolism.BodyProfile{},
		goals:     map[int]metabolism.GoalType{},
		snapshots: map[snapKey]metabolism.Snapshot{},
	}
}

func (s *fakeStore) UsersWithProfile(context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for id := range s.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) Profile(_ context.Context, userID int) (metabolism.BodyProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return p, ErrNoProfile
	}
	return p, nil
}

func (s *fakeStore) GoalType(_ context.Context, userID int) (metabolism.GoalType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.goals[userID]; ok {
		return g, nil
	}
	return metabolism.Maintain, nil
}

func (s *fakeStore) Snapshot(_ context.Context, userID int, date time.Time) (*metabolism.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.snapshots[snapKey{userID, date.Format("2006-01-02")}]; ok {
		return &snap, nil
	}
	return nil, nil
}

func (s *fakeStore) SaveSnapshot(_ context.Context, userID int, snap metabolism.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID == s.failUser {
		return errors.New("disk full")
	}
	s.saves++
	s.snapshots[snapKey{userID, snap.Date.Format("2006-01-02")}] = snap
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

var profile70 = metabolism.BodyProfile{HeightCM: 175, WeightKG: 70, Gender: metabolism.Male, BirthYear: 1990}

func TestPlan(t *testing.T) {
	date := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	snap, ok := Plan(profile70, metabolism.LoseWeight, nil, date)
	if !ok || snap.Steps != 0 || snap.BMR != 1629 || snap.TDEE != 1955 || snap.TargetCalories != 1555 {
		t.Errorf("no record: got %+v ok=%v, want sedentary 1629/1955/1555", snap, ok)
	}

	steps := &metabolism.Snapshot{Date: date, Steps: 9000}
	snap, ok = Plan(profile70, metabolism.LoseWeight, steps, date)
	if !ok || snap.Steps != 9000 || snap.TDEE != 2525 || snap.TargetCalories != 2125 {
		t.Errorf("steps only: got %+v ok=%v, want 9000 steps, 2525/2125", snap, ok)
	}

	frozen := &metabolism.Snapshot{Date: date, Steps: 9000, BMR: 1500, TDEE: 2300, TargetCalories: 1800}
	if _, ok := Plan(profile70, metabolism.LoseWeight, frozen, date); ok {
		t.Error("a record with metrics must not be recomputed")
	}
}

// TestPlan_AgeAtSnapshotDate pins that a snapshot's BMR uses the age in the
// snapshot's own year, not the current one.
func TestPlan_AgeAtSnapshotDate(t *testing.T) {
	lastYear := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	snap, ok := Plan(profile70, metabolism.Maintain, nil, lastYear)
	// Age 33: 700 + 1093.75 - 165 + 5 = 1633.75.
	if !ok || snap.BMR != 1634 {
		t.Errorf("BMR = %d ok=%v, want 1634 (age 33 in 2023)", snap.BMR, ok)
	}
}

func TestFreezer_Single(t *testing.T) {
	store := newFakeStore()
	store.profiles[1] = profile70
	f := NewFreezer(store, quietLogger(), 2)

	res, err := f.Handle(context.Background(), Message{Type: ProcessSingle, UserID: 1, Date: "2024-03-09"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res != (Result{Frozen: 1}) {
		t.Errorf("Result = %+v, want 1 frozen", res)
	}

	// Second run leaves the frozen row alone.
	res, _ = f.Handle(context.Background(), Message{Type: ProcessSingle, UserID: 1, Date: "2024-03-09"})
	if res != (Result{Skipped: 1}) || store.saves != 1 {
		t.Errorf("second run: Result = %+v, saves = %d", res, store.saves)
	}

	res, _ = f.Handle(context.Background(), Message{Type: ProcessSingle, UserID: 2, Date: "2024-03-09"})
	if res != (Result{Skipped: 1}) {
		t.Errorf("user without profile: Result = %+v, want skipped", res)
	}
}

func TestFreezer_All(t *testing.T) {
	store := newFakeStore()
	for id := 1; id <= 6; id++ {
		store.profiles[id] = profile70
	}
	store.snapshots[snapKey{3, "2024-03-09"}] = metabolism.Snapshot{Steps: 4000, BMR: 1600, TDEE: 1920, TargetCalories: 1920}
	store.failUser = 5

	f := NewFreezer(store, quietLogger(), 2)
	res, err := f.Handle(context.Background(), Message{Type: ProcessAll, Date: "2024-03-09"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res != (Result{Frozen: 4, Skipped: 1, Failed: 1}) {
		t.Errorf("Result = %+v, want 4 frozen, 1 skipped, 1 failed", res)
	}
}

func TestFreezer_DefaultsToYesterday(t *testing.T) {
	store := newFakeStore()
	store.profiles[1] = profile70
	f := NewFreezer(store, quietLogger(), 1)
	f.now = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC) }

	if _, err := f.Handle(context.Background(), Message{Type: ProcessSingle, UserID: 1}); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.snapshots[snapKey{1, "2024-03-09"}]; !ok {
		t.Errorf("expected a snapshot for 2024-03-09, have %v", store.snapshots)
	}
}

func TestFreezer_BadMessages(t *testing.T) {
	f := NewFreezer(newFakeStore(), quietLogger(), 1)
	cases := []Message{
		{Type: "SOME", UserID: 1, Date: "2024-03-09"},
		{Type: ProcessSingle, Date: "2024-03-09"},
		{Type: ProcessSingle, UserID: 1, Date: "09/03/2024"},
	}
	for _, m := range cases {
		if _, err := f.Handle(context.Background(), m); err == nil {
			t.Errorf("expected error for %+v", m)
		}
	}
}
