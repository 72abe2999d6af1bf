package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-deck/internal/model"
)

func TestTemplateRoundTrip(t *testing.T) {
	e := newTestEngine()
	a := card("a", "morning", model.RecurrenceAlways)
	b := card("b", "focus", model.RecurrenceAlways)
	c := card("c", "body", model.RecurrenceAlways)
	st := testState(Deck{
		entry("i1", "a", "morning"),
		entry("i2", "c", "body"),
		entry("i3", "b", "focus"),
	}, a, b, c)

	refs := TemplateFromDeck(st.Deck)
	deck, dropped := e.BuildDeckFromTemplate(st.Catalog, refs, testNow)

	assert.Zero(t, dropped)
	require.Len(t, deck, 3)
	for i := range st.Deck {
		assert.Equal(t, st.Deck[i].CardID, deck[i].CardID)
		assert.Equal(t, st.Deck[i].SourceCategory, deck[i].SourceCategory)
		assert.NotEqual(t, st.Deck[i].InstanceID, deck[i].InstanceID, "fresh instance ids on reload")
	}
}

func TestBuildDeckFromTemplate_DropsDanglingReferences(t *testing.T) {
	e := newTestEngine()
	a := card("a", "morning", model.RecurrenceAlways)
	st := testState(Deck{}, a)

	refs := []model.TemplateCard{
		{CardID: "a", SourceCategory: "morning", Position: 0},
		{CardID: "deleted", SourceCategory: "focus", Position: 1},
	}

	deck, dropped := e.BuildDeckFromTemplate(st.Catalog, refs, testNow)

	assert.Equal(t, 1, dropped)
	require.Len(t, deck, 1)
	assert.Equal(t, "a", deck[0].CardID)
}

func TestBuildDeckFromTemplate_FollowsCurrentCategory(t *testing.T) {
	// The card moved from morning to evening after the template was
	// saved; the reload tags the copy with its current bucket.
	e := newTestEngine()
	a := card("a", "evening", model.RecurrenceAlways)
	st := testState(Deck{}, a)

	refs := []model.TemplateCard{{CardID: "a", SourceCategory: "morning", Position: 0}}
	deck, dropped := e.BuildDeckFromTemplate(st.Catalog, refs, testNow)

	assert.Zero(t, dropped)
	require.Len(t, deck, 1)
	assert.Equal(t, "evening", deck[0].SourceCategory)
}

func TestBuildDeckFromTemplate_EnforcesAvailability(t *testing.T) {
	e := newTestEngine()
	once := card("once", "focus", model.RecurrenceOnce)
	st := testState(Deck{}, once)

	refs := []model.TemplateCard{
		{CardID: "once", SourceCategory: "focus", Position: 0},
		{CardID: "once", SourceCategory: "focus", Position: 1},
	}

	deck, dropped := e.BuildDeckFromTemplate(st.Catalog, refs, testNow)

	assert.Equal(t, 1, dropped, "a second copy of a once card cannot load")
	require.Len(t, deck, 1)
}

func TestBuildDeckFromTemplate_OrderedByPosition(t *testing.T) {
	e := newTestEngine()
	a := card("a", "morning", model.RecurrenceAlways)
	b := card("b", "focus", model.RecurrenceAlways)
	st := testState(Deck{}, a, b)

	refs := []model.TemplateCard{
		{CardID: "b", SourceCategory: "focus", Position: 1},
		{CardID: "a", SourceCategory: "morning", Position: 0},
	}

	deck, _ := e.BuildDeckFromTemplate(st.Catalog, refs, testNow)

	require.Len(t, deck, 2)
	assert.Equal(t, "a", deck[0].CardID)
	assert.Equal(t, "b", deck[1].CardID)
}
