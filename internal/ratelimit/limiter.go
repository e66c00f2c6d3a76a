package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PKartavkin/slack-bot/internal/store"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

// Limiter enforces a sliding-window quota per (operation, tenant) pair,
// persisted through the store so every replica counts against the same
// window. It fails open: when the store is unreachable the request is
// allowed, on the theory that a storage outage should not also take the
// bot down.
type Limiter struct {
	// Operation namespaces the storage key, e.g. "openai_api".
	Operation string
	// Max requests allowed per Window.
	Max int
	// Window is the sliding interval, e.g. 24h.
	Window time.Duration

	store store.RateLimitStore
	now   func() time.Time
}

func NewLimiter(st store.RateLimitStore, operation string, max int, window time.Duration) *Limiter {
	return &Limiter{
		Operation: operation,
		Max:       max,
		Window:    window,
		store:     st,
		now:       time.Now,
	}
}

// Allowed records an attempt for teamID and reports whether it fits the
// quota. When denied, the second return value is a ready-to-post message
// telling the user how long to wait.
func (l *Limiter) Allowed(ctx context.Context, teamID string) (bool, string) {
	now := l.now()
	key := l.key(teamID)

	window, err := l.store.GetWindow(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if err := l.store.CreateWindow(ctx, key, teamID, now); err != nil {
				logger.Error().Err(err).Str("key", key).Msg("rate limit window create failed, allowing request")
			}
			return true, ""
		}
		logger.Error().Err(err).Str("key", key).Msg("rate limit read failed, allowing request")
		return true, ""
	}

	recent := l.prune(window.Requests, now)
	if len(recent) >= l.Max {
		oldest := recent[0]
		wait := l.Window - now.Sub(oldest)
		if wait < time.Minute {
			wait = time.Minute
		}
		return false, l.denialMessage(wait)
	}

	recent = append(recent, now)
	if err := l.store.SaveWindow(ctx, key, recent, now); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("rate limit save failed, allowing request")
	}
	return true, ""
}

// Remaining reports how many requests teamID can still make in the
// current window. Storage failures read as a full quota.
func (l *Limiter) Remaining(ctx context.Context, teamID string) int {
	window, err := l.store.GetWindow(ctx, l.key(teamID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error().Err(err).Str("team_id", teamID).Msg("rate limit read failed")
		}
		return l.Max
	}
	used := len(l.prune(window.Requests, l.now()))
	if used >= l.Max {
		return 0
	}
	return l.Max - used
}

func (l *Limiter) key(teamID string) string {
	return fmt.Sprintf("%s:%s", l.Operation, teamID)
}

// prune drops timestamps older than the window, keeping order.
func (l *Limiter) prune(requests []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-l.Window)
	recent := make([]time.Time, 0, len(requests))
	for _, t := range requests {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

func (l *Limiter) denialMessage(wait time.Duration) string {
	hours := int(wait.Hours())
	minutes := int(wait.Minutes()) % 60
	var when string
	switch {
	case hours > 0 && minutes > 0:
		when = fmt.Sprintf("%s and %s", plural(hours, "hour"), plural(minutes, "minute"))
	case hours > 0:
		when = plural(hours, "hour")
	default:
		when = plural(minutes, "minute")
	}
	return fmt.Sprintf(
		"You've reached the daily limit of %d AI requests. Please try again in %s. (Limit resets daily)",
		l.Max, when)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
