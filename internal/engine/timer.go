package engine

import (
	"time"

	"daily-deck/internal/model"
)

// Timer state lives on deck entries as (TimerStartedAt, TimeSpentSec).
// Elapsed time is always re-derived from the start instant, never
// counted by ticks, so a suspended process resumes with the correct
// total.

// ElapsedSec returns the entry's tracked seconds as of now, including a
// running timer's in-flight span.
func ElapsedSec(e model.DeckEntry, now time.Time) int {
	total := e.TimeSpentSec
	if e.TimerStartedAt != nil {
		if delta := now.Sub(*e.TimerStartedAt); delta > 0 {
			total += int(delta / time.Second)
		}
	}
	return total
}

// StartTimer begins tracking on the entry at index. Starting an already
// running timer, or any timer on a completed entry, is a no-op.
func StartTimer(d Deck, index int, now time.Time) Deck {
	if index < 0 || index >= len(d) {
		return d
	}
	entry := d[index]
	if entry.Completed || entry.TimerStartedAt != nil {
		return d
	}
	next := d.Clone()
	start := now
	entry.TimerStartedAt = &start
	next[index] = entry
	return next
}

// StopTimer folds the running span into the accumulated total and clears
// the start instant. Stopping a stopped timer is a no-op, leaving the
// committed state untouched.
func StopTimer(d Deck, index int, now time.Time) Deck {
	if index < 0 || index >= len(d) {
		return d
	}
	entry := d[index]
	if entry.TimerStartedAt == nil {
		return d
	}
	next := d.Clone()
	entry.TimeSpentSec = ElapsedSec(entry, now)
	entry.TimerStartedAt = nil
	next[index] = entry
	return next
}
