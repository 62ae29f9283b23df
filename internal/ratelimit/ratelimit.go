// Package ratelimit enforces per-user sliding-window quotas on AI calls.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLimited is wrapped by every *LimitError.
var ErrLimited = errors.New("rate limit exceeded")

// Window names one of the two sliding windows.
type Window string

const (
	Minute Window = "minute"
	Hour   Window = "hour"
)

func (w Window) duration() time.Duration {
	if w == Hour {
		return time.Hour
	}
	return time.Minute
}

// Limits is the per-user quota for each window.
type Limits struct {
	PerMinute int
	PerHour   int
}

// Quota reports how many calls a user has left.
type Quota struct {
	RemainingPerMinute int `json:"remaining_per_minute"`
	RemainingPerHour   int `json:"remaining_per_hour"`
	LimitPerMinute     int `json:"limit_per_minute"`
	LimitPerHour       int `json:"limit_per_hour"`
}

// LimitError is returned by Allow when a window is full.
type LimitError struct {
	Window     Window
	Limit      int
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	if e.Window == Hour {
		return fmt.Sprintf("AI hourly limit reached (%d/hour). Please try again later.", e.Limit)
	}
	return fmt.Sprintf("AI per-minute limit reached (%d/min). Please wait a minute.", e.Limit)
}

func (e *LimitError) Unwrap() error { return ErrLimited }

// Limiter is consumed by the HTTP layer. Allow records a call when it is
// permitted and returns an error wrapping ErrLimited when it is not.
type Limiter interface {
	Allow(ctx context.Context, userID int) error
	Remaining(ctx context.Context, userID int) (Quota, error)
}

// check applies the minute window before the hour window. stamps must be the
// calls within the last hour, oldest first.
func check(l Limits, stamps []time.Time, now time.Time) error {
	minuteAgo := now.Add(-time.Minute)
	inMinute := 0
	var oldestInMinute time.Time
	for _, ts := range stamps {
		if ts.After(minuteAgo) {
			if inMinute == 0 {
				oldestInMinute = ts
			}
			inMinute++
		}
	}
	if inMinute >= l.PerMinute {
		return &LimitError{Window: Minute, Limit: l.PerMinute, RetryAfter: retryAfter(oldestInMinute, Minute, now)}
	}
	if len(stamps) >= l.PerHour {
		return &LimitError{Window: Hour, Limit: l.PerHour, RetryAfter: retryAfter(stamps[0], Hour, now)}
	}
	return nil
}

func quota(l Limits, stamps []time.Time, now time.Time) Quota {
	minuteAgo := now.Add(-time.Minute)
	inMinute := 0
	for _, ts := range stamps {
		if ts.After(minuteAgo) {
			inMinute++
		}
	}
	return Quota{
		RemainingPerMinute: max(0, l.PerMinute-inMinute),
		RemainingPerHour:   max(0, l.PerHour-len(stamps)),
		LimitPerMinute:     l.PerMinute,
		LimitPerHour:       l.PerHour,
	}
}

func retryAfter(oldest time.Time, w Window, now time.Time) time.Duration {
	d := oldest.Add(w.duration()).Sub(now)
	if d < time.Second {
		return time.Second
	}
	return d.Truncate(time.Second)
}
