package engine

import "daily-deck/internal/model"

// LocationDeck is the move-request location key for the deck; every
// other key names a catalog category.
const LocationDeck = "deck"

// Catalog maps category keys to ordered card sequences. Order is display
// order and survives every transition.
type Catalog struct {
	Order []string
	Cards map[string][]model.Card
}

// Has reports whether key names a recognized category.
func (c Catalog) Has(key string) bool {
	_, ok := c.Cards[key]
	return ok
}

// Find returns the card with the given id and the category it lives in.
func (c Catalog) Find(cardID string) (model.Card, string, bool) {
	for _, key := range c.Order {
		for _, card := range c.Cards[key] {
			if card.ID == cardID {
				return card, key, true
			}
		}
	}
	return model.Card{}, "", false
}

// Clone deep-copies the catalog so transitions can build a next-state
// without touching the input.
func (c Catalog) Clone() Catalog {
	out := Catalog{
		Order: append([]string(nil), c.Order...),
		Cards: make(map[string][]model.Card, len(c.Cards)),
	}
	for key, cards := range c.Cards {
		out.Cards[key] = append([]model.Card(nil), cards...)
	}
	return out
}

// Deck is today's ordered working set of card copies.
type Deck []model.DeckEntry

// Clone copies the deck slice.
func (d Deck) Clone() Deck {
	return append(Deck(nil), d...)
}

// UsageCount returns how many deck entries reference the given card.
func (d Deck) UsageCount(cardID string) int {
	n := 0
	for _, e := range d {
		if e.CardID == cardID {
			n++
		}
	}
	return n
}

// State is the (catalog, deck) pair a transition consumes and produces.
type State struct {
	Catalog Catalog
	Deck    Deck
}

// Clone deep-copies the state.
func (s State) Clone() State {
	return State{Catalog: s.Catalog.Clone(), Deck: s.Deck.Clone()}
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}
