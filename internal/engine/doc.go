// Package engine implements the deck state engine: the rules that decide
// which catalog cards may enter today's deck, how move gestures transform
// the (catalog, deck) pair, how the completed/incomplete ordering is
// maintained, and how a finished day folds into the completion history
// and streak.
//
// The engine is pure: every operation takes snapshot values and returns
// new snapshot values. It never persists, never renders, and holds no
// locks; callers serialize operations through their own event dispatch
// and swap whole next-states atomically. Invalid input never panics and
// never leaves a half-mutated state; it degrades to "no change" plus a
// typed outcome the caller can surface.
//
// Identity rules:
//   - catalog cards are identified by Card.ID
//   - deck entries are identified by DeckEntry.InstanceID, minted at
//     insertion; positions order entries but never identify them
package engine
