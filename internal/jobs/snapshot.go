// Package jobs freezes daily activity snapshots in the background. Once a
// day's BMR/TDEE/target are stored they no longer follow profile edits.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/progress"
)

const (
	ProcessSingle = "SINGLE"
	ProcessAll    = "ALL"
)

// ErrNoProfile is returned by Store.Profile when the user never saved body metrics.
var ErrNoProfile = errors.New("user has no profile")

// Message is the queue payload. Date is YYYY-MM-DD; empty means yesterday.
type Message struct {
	Type   string `json:"type"`
	UserID int    `json:"user_id,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Store is the persistence the freezer needs.
type Store interface {
	UsersWithProfile(ctx context.Context) ([]int, error)
	Profile(ctx context.Context, userID int) (metabolism.BodyProfile, error)
	GoalType(ctx context.Context, userID int) (metabolism.GoalType, error)
	// Snapshot returns nil, nil when no record exists for the date.
	Snapshot(ctx context.Context, userID int, date time.Time) (*metabolism.Snapshot, error)
	SaveSnapshot(ctx context.Context, userID int, snap metabolism.Snapshot) error
}

// Plan decides what to persist for one user and day. A record that already
// carries metrics is left alone (ok=false). Otherwise the metrics are computed
// from the recorded steps, or 0 steps when nothing was logged.
func Plan(p metabolism.BodyProfile, goal metabolism.GoalType, existing *metabolism.Snapshot, date time.Time) (metabolism.Snapshot, bool) {
	if existing != nil && existing.HasMetrics() {
		return metabolism.Snapshot{}, false
	}
	steps := 0
	if existing != nil {
		steps = existing.Steps
	}
	r := metabolism.FullCalculation(p, steps, goal, date.Year())
	return metabolism.SnapshotFrom(date, steps, r), true
}

// Result counts what a Handle call did.
type Result struct {
	Frozen  int `json:"frozen"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Freezer applies Plan for one user or for every user with a profile.
type Freezer struct {
	store       Store
	log         *logrus.Logger
	concurrency int
	now         func() time.Time
}

func NewFreezer(store Store, log *logrus.Logger, concurrency int) *Freezer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Freezer{store: store, log: log, concurrency: concurrency, now: time.Now}
}

// Handle processes one queue message.
func (f *Freezer) Handle(ctx context.Context, msg Message) (Result, error) {
	date, err := f.resolveDate(msg.Date)
	if err != nil {
		return Result{}, err
	}

	switch msg.Type {
	case ProcessSingle:
		if msg.UserID <= 0 {
			return Result{}, fmt.Errorf("SINGLE message needs a user_id")
		}
		var res Result
		f.tally(&res, f.freeze(ctx, msg.UserID, date))
		return res, nil

	case ProcessAll:
		ids, err := f.store.UsersWithProfile(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("list users: %w", err)
		}
		f.log.WithFields(logrus.Fields{"task": "snapshot", "date": progress.DayKey(date), "users": len(ids)}).Info("[Handle] freezing all users")

		var (
			res Result
			mu  sync.Mutex
			wg  sync.WaitGroup
		)
		sem := make(chan struct{}, f.concurrency)
		for _, id := range ids {
			sem <- struct{}{}
			wg.Add(1)
			go func(userID int) {
				defer func() {
					wg.Done()
					<-sem
				}()
				outcome := f.freeze(ctx, userID, date)
				mu.Lock()
				f.tally(&res, outcome)
				mu.Unlock()
			}(id)
		}
		wg.Wait()
		return res, nil
	}
	return Result{}, fmt.Errorf("unknown message type %q", msg.Type)
}

type outcome int

const (
	outcomeFrozen outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (f *Freezer) tally(r *Result, o outcome) {
	switch o {
	case outcomeFrozen:
		r.Frozen++
	case outcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

func (f *Freezer) freeze(ctx context.Context, userID int, date time.Time) outcome {
	entry := f.log.WithFields(logrus.Fields{"task": "snapshot", "user_id": userID, "date": progress.DayKey(date)})

	profile, err := f.store.Profile(ctx, userID)
	if errors.Is(err, ErrNoProfile) {
		entry.Info("[freeze] no profile, skipping")
		return outcomeSkipped
	}
	if err != nil {
		entry.WithError(err).Error("[freeze] load profile")
		return outcomeFailed
	}
	goal, err := f.store.GoalType(ctx, userID)
	if err != nil {
		entry.WithError(err).Error("[freeze] load goal")
		return outcomeFailed
	}
	existing, err := f.store.Snapshot(ctx, userID, date)
	if err != nil {
		entry.WithError(err).Error("[freeze] load snapshot")
		return outcomeFailed
	}

	snap, ok := Plan(profile, goal, existing, date)
	if !ok {
		entry.Debug("[freeze] already frozen")
		return outcomeSkipped
	}
	if err := f.store.SaveSnapshot(ctx, userID, snap); err != nil {
		entry.WithError(err).Error("[freeze] save snapshot")
		return outcomeFailed
	}
	entry.WithFields(logrus.Fields{"bmr": snap.BMR, "tdee": snap.TDEE}).Info("[freeze] snapshot stored")
	return outcomeFrozen
}

func (f *Freezer) resolveDate(s string) (time.Time, error) {
	if s == "" {
		return progress.Midnight(f.now()).AddDate(0, 0, -1), nil
	}
	d, err := time.Parse(progress.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
