package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Limiter. Use Redis when several API instances
// share quotas.
type Memory struct {
	limits Limits
	now    func() time.Time

	mu    sync.Mutex
	calls map[int][]time.Time
}

// NewMemory returns an in-memory limiter. now may be nil to use time.Now.
func NewMemory(l Limits, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{limits: l, now: now, calls: map[int][]time.Time{}}
}

func (m *Memory) Allow(_ context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stamps := m.prune(userID, now)
	if err := check(m.limits, stamps, now); err != nil {
		return err
	}
	m.calls[userID] = append(stamps, now)
	return nil
}

func (m *Memory) Remaining(_ context.Context, userID int) (Quota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	return quota(m.limits, m.prune(userID, now), now), nil
}

// prune drops calls older than an hour and returns what is left.
func (m *Memory) prune(userID int, now time.Time) []time.Time {
	hourAgo := now.Add(-time.Hour)
	stamps := m.calls[userID]
	i := 0
	for i < len(stamps) && !stamps[i].After(hourAgo) {
		i++
	}
	stamps = stamps[i:]
	if len(stamps) == 0 {
		delete(m.calls, userID)
		return nil
	}
	m.calls[userID] = stamps
	return stamps
}
