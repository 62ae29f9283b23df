package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lg/nutri-coach-go-api/internal/metabolism"
	"lg/nutri-coach-go-api/internal/progress"
)

// PGStore is the Postgres-backed Store.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) UsersWithProfile(ctx context.Context) ([]int, error) {
	rows, err := s.db.Query(ctx, "SELECT user_id FROM user_profiles ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (s *PGStore) Profile(ctx context.Context, userID int) (metabolism.BodyProfile, error) {
	var (
		p      metabolism.BodyProfile
		gender string
	)
	err := s.db.QueryRow(ctx,
		"SELECT height_cm, weight_kg, gender, birth_year FROM user_profiles WHERE user_id = $1",
		userID).Scan(&p.HeightCM, &p.WeightKG, &gender, &p.BirthYear)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNoProfile
	}
	if err != nil {
		return p, err
	}
	p.Gender = metabolism.Gender(gender)
	return p, nil
}

// GoalType returns maintain for users who never saved goals.
func (s *PGStore) GoalType(ctx context.Context, userID int) (metabolism.GoalType, error) {
	var raw string
	err := s.db.QueryRow(ctx, "SELECT goal_type FROM user_goals WHERE user_id = $1", userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return metabolism.Maintain, nil
	}
	if err != nil {
		return "", err
	}
	g, _ := metabolism.ParseGoalType(raw)
	return g, nil
}

func (s *PGStore) Snapshot(ctx context.Context, userID int, date time.Time) (*metabolism.Snapshot, error) {
	snap := metabolism.Snapshot{Date: date}
	err := s.db.QueryRow(ctx,
		`SELECT steps, bmr, tdee, target_calories FROM activity_records
		 WHERE user_id = $1 AND activity_date = $2`,
		userID, progress.DayKey(date)).Scan(&snap.Steps, &snap.BMR, &snap.TDEE, &snap.TargetCalories)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveSnapshot inserts the day's record, or fills in metrics on an existing
// record that has none. Rows that already carry metrics are never changed.
func (s *PGStore) SaveSnapshot(ctx context.Context, userID int, snap metabolism.Snapshot) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO activity_records (user_id, activity_date, steps, bmr, tdee, target_calories)
		 VALUES (@user_id, @date, @steps, @bmr, @tdee, @target)
		 ON CONFLICT (user_id, activity_date) DO UPDATE
		 SET bmr = EXCLUDED.bmr, tdee = EXCLUDED.tdee, target_calories = EXCLUDED.target_calories, updated_at = now()
		 WHERE activity_records.bmr = 0 OR activity_records.tdee = 0`,
		snapshotArgs(userID, snap))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// snapshotArgs binds the date as its YYYY-MM-DD key so the stored day is the
// snapshot's calendar day whatever its location.
func snapshotArgs(userID int, snap metabolism.Snapshot) pgx.NamedArgs {
	return pgx.NamedArgs{
		"user_id": userID,
		"date":    progress.DayKey(snap.Date),
		"steps":   snap.Steps,
		"bmr":     snap.BMR,
		"tdee":    snap.TDEE,
		"target":  snap.TargetCalories,
	}
}
