package engine

import (
	"time"

	"github.com/google/uuid"

	"daily-deck/internal/model"
)

// MoveRequest is the abstract drop command produced by the gesture
// layer: where the drag started, where it ended, and which card was
// dragged. Locations are either LocationDeck or a category key.
type MoveRequest struct {
	Source           string
	Destination      string
	CardID           string
	SourceIndex      int
	DestinationIndex int
}

// NoOpReason categorizes why a move was rejected. Drag sources are racy
// by nature, so rejections are ordinary outcomes, not errors.
type NoOpReason string

const (
	// NoOpUnknownLocation means a location key named no known category.
	NoOpUnknownLocation NoOpReason = "UNKNOWN_LOCATION"
	// NoOpCardNotFound means the dragged card was not where the request
	// said it would be.
	NoOpCardNotFound NoOpReason = "CARD_NOT_FOUND"
	// NoOpIndexOutOfRange means a source index fell outside the sequence.
	NoOpIndexOutOfRange NoOpReason = "INDEX_OUT_OF_RANGE"
	// NoOpUnavailable means the commit-time availability re-check failed.
	NoOpUnavailable NoOpReason = "CARD_UNAVAILABLE"
	// NoOpSamePosition means source and destination were identical.
	NoOpSamePosition NoOpReason = "SAME_POSITION"
)

// MoveOutcome reports what a move did. Changed is false for every
// rejection, with Reason saying why.
type MoveOutcome struct {
	Changed bool
	Reason  NoOpReason
}

var moved = MoveOutcome{Changed: true}

func rejected(reason NoOpReason) MoveOutcome {
	return MoveOutcome{Reason: reason}
}

// Engine applies move requests to (catalog, deck) snapshots.
type Engine struct {
	avail *Availability
	now   func() time.Time
	newID func() string
}

// Option customizes an Engine; used by tests to pin time and ids.
type Option func(*Engine)

// WithNow overrides the engine's time source.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides instance-id minting.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// New creates an Engine using the given recurrence clock.
func New(clock *Clock, opts ...Option) *Engine {
	e := &Engine{
		avail: NewAvailability(clock),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Availability exposes the shared predicate so the display path filters
// with exactly the evaluator the commit path enforces.
func (e *Engine) Availability() *Availability {
	return e.avail
}

// ApplyMove consumes a move request and produces the next state. Every
// invalid request returns the input state untouched with a reason; the
// state is never partially mutated.
func (e *Engine) ApplyMove(st State, req MoveRequest) (State, MoveOutcome) {
	srcDeck := req.Source == LocationDeck
	dstDeck := req.Destination == LocationDeck

	if !srcDeck && !st.Catalog.Has(req.Source) {
		return st, rejected(NoOpUnknownLocation)
	}
	if !dstDeck && !st.Catalog.Has(req.Destination) {
		return st, rejected(NoOpUnknownLocation)
	}

	switch {
	case srcDeck && dstDeck:
		return e.reorderDeck(st, req)
	case !srcDeck && dstDeck:
		return e.addToDeck(st, req)
	case srcDeck && !dstDeck:
		return e.returnToCatalog(st, req)
	default:
		return e.reclassify(st, req)
	}
}

// reorderDeck moves an entry to a new position within the deck.
func (e *Engine) reorderDeck(st State, req MoveRequest) (State, MoveOutcome) {
	if req.SourceIndex < 0 || req.SourceIndex >= len(st.Deck) {
		return st, rejected(NoOpIndexOutOfRange)
	}
	if req.SourceIndex == req.DestinationIndex {
		return st, rejected(NoOpSamePosition)
	}
	if st.Deck[req.SourceIndex].CardID != req.CardID {
		return st, rejected(NoOpCardNotFound)
	}

	next := st.Clone()
	entry := next.Deck[req.SourceIndex]
	next.Deck = append(next.Deck[:req.SourceIndex], next.Deck[req.SourceIndex+1:]...)
	at := clampIndex(req.DestinationIndex, len(next.Deck))
	next.Deck = insertEntry(next.Deck, at, entry)
	return next, moved
}

// addToDeck copies a catalog card into the deck. Availability is
// re-checked against the current deck here, at commit time: a stale
// filtered view upstream must not be able to push a card past its cap.
func (e *Engine) addToDeck(st State, req MoveRequest) (State, MoveOutcome) {
	card, ok := findInCategory(st.Catalog.Cards[req.Source], req.CardID)
	if !ok {
		return st, rejected(NoOpCardNotFound)
	}
	if !e.avail.Available(card, st.Deck, e.now()) {
		return st, rejected(NoOpUnavailable)
	}

	next := st.Clone()
	entry := model.DeckEntry{
		InstanceID:     e.newID(),
		UserID:         card.UserID,
		CardID:         card.ID,
		SourceCategory: req.Source,
		Title:          card.Title,
		Duration:       card.Duration,
		CreatedAt:      e.now(),
	}
	at := clampIndex(req.DestinationIndex, len(next.Deck))
	next.Deck = insertEntry(next.Deck, at, entry)
	return next, moved
}

// returnToCatalog discards a deck entry. The catalog is untouched:
// catalog cards are the template, copies are disposable.
func (e *Engine) returnToCatalog(st State, req MoveRequest) (State, MoveOutcome) {
	if req.SourceIndex < 0 || req.SourceIndex >= len(st.Deck) {
		return st, rejected(NoOpIndexOutOfRange)
	}
	if st.Deck[req.SourceIndex].CardID != req.CardID {
		return st, rejected(NoOpCardNotFound)
	}

	next := st.Clone()
	next.Deck = append(next.Deck[:req.SourceIndex], next.Deck[req.SourceIndex+1:]...)
	return next, moved
}

// reclassify moves a card between catalog categories and retargets the
// SourceCategory tag on any deck copies so "return to stack" keeps
// routing to the right bucket.
func (e *Engine) reclassify(st State, req MoveRequest) (State, MoveOutcome) {
	srcCards := st.Catalog.Cards[req.Source]
	pos := indexOfCard(srcCards, req.CardID)
	if pos < 0 {
		return st, rejected(NoOpCardNotFound)
	}
	if req.Source == req.Destination && pos == req.DestinationIndex {
		return st, rejected(NoOpSamePosition)
	}

	next := st.Clone()
	card := next.Catalog.Cards[req.Source][pos]
	next.Catalog.Cards[req.Source] = append(
		next.Catalog.Cards[req.Source][:pos],
		next.Catalog.Cards[req.Source][pos+1:]...,
	)
	card.Category = req.Destination
	dst := next.Catalog.Cards[req.Destination]
	at := clampIndex(req.DestinationIndex, len(dst))
	next.Catalog.Cards[req.Destination] = insertCard(dst, at, card)

	if req.Source != req.Destination {
		for i := range next.Deck {
			if next.Deck[i].CardID == card.ID {
				next.Deck[i].SourceCategory = req.Destination
			}
		}
	}
	return next, moved
}

func findInCategory(cards []model.Card, cardID string) (model.Card, bool) {
	for _, c := range cards {
		if c.ID == cardID {
			return c, true
		}
	}
	return model.Card{}, false
}

func indexOfCard(cards []model.Card, cardID string) int {
	for i, c := range cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

func insertEntry(d Deck, at int, entry model.DeckEntry) Deck {
	d = append(d, model.DeckEntry{})
	copy(d[at+1:], d[at:])
	d[at] = entry
	return d
}

func insertCard(cards []model.Card, at int, card model.Card) []model.Card {
	cards = append(cards, model.Card{})
	copy(cards[at+1:], cards[at:])
	cards[at] = card
	return cards
}
