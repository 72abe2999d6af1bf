package engine

import (
	"fmt"
	"time"

	"daily-deck/internal/model"
)

// Shared fixtures for engine tests. Time is pinned to Monday 2024-01-01
// and instance ids are minted sequentially so every test is
// deterministic.

var testNow = time.Date(2024, time.January, 1, 9, 30, 0, 0, time.UTC)

func newTestEngine() *Engine {
	n := 0
	return New(
		NewClock(time.UTC, nil),
		WithNow(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("inst-%d", n)
		}),
	)
}

func card(id, category string, rec model.RecurrenceType) model.Card {
	return model.Card{
		ID:         id,
		Category:   category,
		Title:      "Card " + id,
		Recurrence: rec,
	}
}

func limitedCard(id, category string, maxUses int) model.Card {
	c := card(id, category, model.RecurrenceLimited)
	c.MaxUses = &maxUses
	return c
}

func scheduledCard(id, category, rule string) model.Card {
	c := card(id, category, model.RecurrenceScheduled)
	c.Rule = rule
	return c
}

func entry(instanceID, cardID, category string) model.DeckEntry {
	return model.DeckEntry{
		InstanceID:     instanceID,
		CardID:         cardID,
		SourceCategory: category,
		Title:          "Card " + cardID,
	}
}

func completedEntry(instanceID, cardID, category string, timeSec int) model.DeckEntry {
	e := entry(instanceID, cardID, category)
	e.Completed = true
	at := testNow
	e.CompletedAt = &at
	e.TimeSpentSec = timeSec
	return e
}

func testState(deck Deck, cards ...model.Card) State {
	catalog := Catalog{
		Order: []string{"morning", "focus", "body", "evening"},
		Cards: map[string][]model.Card{
			"morning": {}, "focus": {}, "body": {}, "evening": {},
		},
	}
	for _, c := range cards {
		catalog.Cards[c.Category] = append(catalog.Cards[c.Category], c)
	}
	return State{Catalog: catalog, Deck: deck}
}
