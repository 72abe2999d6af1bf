package engine

import "time"

// FirstIncompleteIndex returns the index of the first deck entry that is
// not completed, or len(deck) when everything is done. The entry at this
// index is the natural "focused" card for a UI.
func FirstIncompleteIndex(d Deck) int {
	for i, e := range d {
		if !e.Completed {
			return i
		}
	}
	return len(d)
}

// CompletionUpdate carries the extra fields stamped alongside a
// completion toggle.
type CompletionUpdate struct {
	Now          time.Time
	TimeSpentSec int
	// MoveToBoundary reinserts a newly completed card right after the
	// completed run instead of leaving it in place.
	MoveToBoundary bool
}

// SetCompletion toggles the completion flag on the entry at index and
// keeps the completed/incomplete partition meaningful. Marking a card
// incomplete pulls it back to the front of the to-do run so it is next
// up, not buried among finished cards. Out-of-range indices return the
// deck unchanged.
func SetCompletion(d Deck, index int, completed bool, upd CompletionUpdate) Deck {
	if index < 0 || index >= len(d) {
		return d
	}

	next := d.Clone()
	entry := next[index]

	if completed {
		if entry.Completed {
			return d
		}
		now := upd.Now
		entry.Completed = true
		entry.CompletedAt = &now
		entry.TimerStartedAt = nil
		if upd.TimeSpentSec > 0 {
			entry.TimeSpentSec = upd.TimeSpentSec
		}

		if !upd.MoveToBoundary {
			next[index] = entry
			return next
		}
		// Boundary computed before removal; the entry being completed is
		// incomplete, so the boundary is at or before its index and the
		// removal cannot shift it.
		boundary := FirstIncompleteIndex(next)
		next = append(next[:index], next[index+1:]...)
		return insertEntry(next, boundary, entry)
	}

	if !entry.Completed {
		return d
	}
	entry.Completed = false
	entry.CompletedAt = nil
	next = append(next[:index], next[index+1:]...)
	return insertEntry(next, FirstIncompleteIndex(next), entry)
}
