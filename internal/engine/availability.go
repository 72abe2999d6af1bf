package engine

import (
	"time"

	"daily-deck/internal/model"
)

// Availability decides whether a catalog card may enter the deck today.
// It is the single predicate shared by the display path (filtering the
// catalog view) and the commit path (re-checking inside ApplyMove); the
// two must never diverge.
type Availability struct {
	clock *Clock
}

// NewAvailability wires the evaluator to a recurrence clock.
func NewAvailability(clock *Clock) *Availability {
	return &Availability{clock: clock}
}

// Available reports whether the card may be added to the deck at `now`.
// Pure over (card, deck); safe to call on every render pass.
func (a *Availability) Available(card model.Card, deck Deck, now time.Time) bool {
	switch card.Recurrence {
	case model.RecurrenceOnce:
		return deck.UsageCount(card.ID) == 0
	case model.RecurrenceLimited:
		return deck.UsageCount(card.ID) < card.MaxUsesOrDefault()
	case model.RecurrenceScheduled:
		// Once the rule fires for the day the card stays available
		// regardless of copies already in the deck; scheduled cards
		// carry no usage cap.
		return a.clock.OccursOn(card.Rule, card.RuleTimezone, now)
	default:
		// RecurrenceAlways, and any unrecognized value, is treated as
		// unlimited.
		return true
	}
}
