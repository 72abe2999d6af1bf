package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-deck/internal/model"
)

func TestApplyMove_DeckReorder(t *testing.T) {
	e := newTestEngine()
	st := testState(Deck{
		entry("i1", "a", "morning"),
		entry("i2", "b", "morning"),
		entry("i3", "c", "focus"),
	})

	next, out := e.ApplyMove(st, MoveRequest{
		Source: LocationDeck, Destination: LocationDeck,
		CardID: "a", SourceIndex: 0, DestinationIndex: 2,
	})

	assert.True(t, out.Changed)
	assert.Equal(t, []string{"i2", "i3", "i1"}, instanceIDs(next.Deck))
	assert.Equal(t, []string{"i1", "i2", "i3"}, instanceIDs(st.Deck), "input state untouched")
}

func TestApplyMove_DeckReorder_SamePositionNoOp(t *testing.T) {
	e := newTestEngine()
	st := testState(Deck{entry("i1", "a", "morning"), entry("i2", "b", "focus")})

	next, out := e.ApplyMove(st, MoveRequest{
		Source: LocationDeck, Destination: LocationDeck,
		CardID: "a", SourceIndex: 0, DestinationIndex: 0,
	})

	assert.False(t, out.Changed)
	assert.Equal(t, NoOpSamePosition, out.Reason)
	assert.Equal(t, st, next, "no-op returns a structurally equal state")
}

func TestApplyMove_CategoryToDeck(t *testing.T) {
	e := newTestEngine()
	c := card("plan", "morning", model.RecurrenceAlways)
	st := testState(Deck{entry("i0", "x", "focus")}, c)

	next, out := e.ApplyMove(st, MoveRequest{
		Source: "morning", Destination: LocationDeck,
		CardID: "plan", DestinationIndex: 0,
	})

	require.True(t, out.Changed)
	require.Len(t, next.Deck, 2)
	added := next.Deck[0]
	assert.Equal(t, "plan", added.CardID)
	assert.Equal(t, "morning", added.SourceCategory)
	assert.NotEmpty(t, added.InstanceID)
	assert.Len(t, next.Catalog.Cards["morning"], 1, "catalog card is never consumed")
}

func TestApplyMove_CategoryToDeck_RaceSafety(t *testing.T) {
	// A deck already at a limited card's cap rejects the add even when a
	// stale upstream filter said "available".
	e := newTestEngine()
	c := limitedCard("stretch", "body", 2)
	st := testState(Deck{
		entry("i1", "stretch", "body"),
		entry("i2", "stretch", "body"),
	}, c)

	next, out := e.ApplyMove(st, MoveRequest{
		Source: "body", Destination: LocationDeck,
		CardID: "stretch", DestinationIndex: 2,
	})

	assert.False(t, out.Changed)
	assert.Equal(t, NoOpUnavailable, out.Reason)
	assert.Equal(t, st, next)
}

func TestApplyMove_DeckToCategory(t *testing.T) {
	e := newTestEngine()
	st := testState(Deck{entry("i1", "a", "morning"), entry("i2", "b", "focus")})

	next, out := e.ApplyMove(st, MoveRequest{
		Source: LocationDeck, Destination: "morning",
		CardID: "a", SourceIndex: 0, DestinationIndex: 0,
	})

	assert.True(t, out.Changed)
	assert.Equal(t, []string{"i2"}, instanceIDs(next.Deck))
	assert.Empty(t, next.Catalog.Cards["morning"], "discard does not touch the catalog")
}

func TestApplyMove_CategoryToCategory_RetagsDeckCopies(t *testing.T) {
	e := newTestEngine()
	c := card("gym", "body", model.RecurrenceAlways)
	st := testState(Deck{
		entry("i1", "gym", "body"),
		entry("i2", "other", "focus"),
		entry("i3", "gym", "body"),
	}, c)

	next, out := e.ApplyMove(st, MoveRequest{
		Source: "body", Destination: "morning",
		CardID: "gym", DestinationIndex: 0,
	})

	require.True(t, out.Changed)
	assert.Empty(t, next.Catalog.Cards["body"])
	require.Len(t, next.Catalog.Cards["morning"], 1)
	assert.Equal(t, "morning", next.Catalog.Cards["morning"][0].Category)

	assert.Equal(t, "morning", next.Deck[0].SourceCategory, "deck copy retagged")
	assert.Equal(t, "focus", next.Deck[1].SourceCategory, "unrelated copy untouched")
	assert.Equal(t, "morning", next.Deck[2].SourceCategory, "every copy retagged")
}

func TestApplyMove_UnknownLocation(t *testing.T) {
	e := newTestEngine()
	st := testState(Deck{entry("i1", "a", "morning")})

	for _, req := range []MoveRequest{
		{Source: "attic", Destination: LocationDeck, CardID: "a"},
		{Source: LocationDeck, Destination: "attic", CardID: "a", SourceIndex: 0},
	} {
		next, out := e.ApplyMove(st, req)
		assert.False(t, out.Changed)
		assert.Equal(t, NoOpUnknownLocation, out.Reason)
		assert.Equal(t, st, next)
	}
}

func TestApplyMove_MissingCard(t *testing.T) {
	e := newTestEngine()
	st := testState(Deck{entry("i1", "a", "morning")})

	next, out := e.ApplyMove(st, MoveRequest{
		Source: "morning", Destination: LocationDeck, CardID: "ghost",
	})

	assert.False(t, out.Changed)
	assert.Equal(t, NoOpCardNotFound, out.Reason)
	assert.Equal(t, st, next)
}

func TestApplyMove_IndexOutOfRange(t *testing.T) {
	e := newTestEngine()
	st := testState(Deck{entry("i1", "a", "morning")})

	next, out := e.ApplyMove(st, MoveRequest{
		Source: LocationDeck, Destination: LocationDeck,
		CardID: "a", SourceIndex: 5, DestinationIndex: 0,
	})

	assert.False(t, out.Changed)
	assert.Equal(t, NoOpIndexOutOfRange, out.Reason)
	assert.Equal(t, st, next)
}

func TestApplyMove_DestinationIndexClamped(t *testing.T) {
	e := newTestEngine()
	c := card("plan", "morning", model.RecurrenceAlways)
	st := testState(Deck{entry("i1", "x", "focus")}, c)

	next, out := e.ApplyMove(st, MoveRequest{
		Source: "morning", Destination: LocationDeck,
		CardID: "plan", DestinationIndex: 99,
	})

	require.True(t, out.Changed)
	assert.Equal(t, "plan", next.Deck[len(next.Deck)-1].CardID, "overshooting index appends")
}

func instanceIDs(d Deck) []string {
	ids := make([]string, 0, len(d))
	for _, e := range d {
		ids = append(ids, e.InstanceID)
	}
	return ids
}
