// Package streak implements the consecutive-day streak state machine as pure
// functions over StreakData. It performs no I/O; storage is the caller's
// concern.
package streak

import (
	"time"

	"fitweek/planner/internal/domain"
)

// Advance returns the streak state after recording a fully-completed day on
// completionDate. The input is never mutated.
//
// Transitions, with d = days between the last completed date and
// completionDate (date-only):
//
//	no previous date -> streak restarts at 1
//	d == 0           -> no-op, the day is already counted
//	d == 1           -> streak extends by 1
//	d  > 1           -> streak restarts at 1
//	d  < 0           -> no-op (clock skew / stale input)
//
// LongestStreak never decreases.
func Advance(prev domain.StreakData, completionDate time.Time) domain.StreakData {
	next := prev
	day := truncateToDay(completionDate)

	if prev.LastCompletedDate == nil {
		next.CurrentStreak = 1
		next.StreakStartDate = &day
	} else {
		switch delta := daysBetween(*prev.LastCompletedDate, day); {
		case delta == 0 || delta < 0:
			return prev
		case delta == 1:
			next.CurrentStreak = prev.CurrentStreak + 1
		default: // delta > 1, the chain is broken
			next.CurrentStreak = 1
			next.StreakStartDate = &day
		}
	}

	next.LastCompletedDate = &day
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	return next
}

// NeedsReset reports whether the streak has lapsed relative to now: more than
// one full day has passed since the last completed date without a completion.
// It is evaluated lazily (e.g. on application start), never by polling.
func NeedsReset(prev domain.StreakData, now time.Time) bool {
	if prev.LastCompletedDate == nil || prev.CurrentStreak == 0 {
		return false
	}
	return daysBetween(*prev.LastCompletedDate, truncateToDay(now)) > 1
}

// Reset zeroes the current streak while preserving the longest streak and
// the completion history fields.
func Reset(prev domain.StreakData) domain.StreakData {
	next := prev
	next.CurrentStreak = 0
	next.StreakStartDate = nil
	return next
}

// daysBetween counts whole calendar days from a to b; negative when b is
// before a.
func daysBetween(a, b time.Time) int {
	return int(truncateToDay(b).Sub(truncateToDay(a)).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
