package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/* ─── Fake transaction ───────────────────────────────────────────────── */

// fakeTx records what acceptAndLog does with its transaction. Methods the
// code under test does not call are left to the embedded nil pgx.Tx.
type fakeTx struct {
	pgx.Tx
	affected  int64
	execErr   error
	queryErr  error
	execs     int
	queries   int
	commits   int
	rollbacks int
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs++
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", f.affected)), nil
}

func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries++
	return nil, f.queryErr
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.commits++
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rollbacks++
	return nil
}

type fakeBeginner struct{ tx *fakeTx }

func (b fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) { return b.tx, nil }

/* ─── acceptAndLog ───────────────────────────────────────────────────── */

func TestAcceptAndLog_NothingCommittedOnFailure(t *testing.T) {
	req := acceptRequest{InteractionID: 3, MealID: 7}
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	logFailure := errors.New("meal_logs insert failed")

	cases := []struct {
		name        string
		tx          *fakeTx
		wantErr     error
		wantQueries int
	}{
		{"meal log insert fails", &fakeTx{affected: 1, queryErr: logFailure}, logFailure, 1},
		{"not a suggestion", &fakeTx{affected: 0}, errSuggestionNotFound, 0},
		{"acceptance insert fails", &fakeTx{execErr: logFailure}, logFailure, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := acceptAndLog(context.Background(), fakeBeginner{tc.tx}, 1, req, today)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.tx.commits != 0 {
				t.Errorf("commits = %d, want 0", tc.tx.commits)
			}
			if tc.tx.rollbacks == 0 {
				t.Error("expected the transaction to be rolled back")
			}
			if tc.tx.execs != 1 || tc.tx.queries != tc.wantQueries {
				t.Errorf("execs/queries = %d/%d, want 1/%d", tc.tx.execs, tc.tx.queries, tc.wantQueries)
			}
		})
	}
}
