package engine

import (
	"sort"
	"time"

	"daily-deck/internal/model"
)

// BuildDeckFromTemplate replays a template against the current catalog.
// Each reference is re-resolved by card id, so catalog edits since the
// template was saved are picked up; a card that moved category is tagged
// with its current bucket. References to deleted cards, and cards whose
// recurrence policy no longer admits another copy, are dropped silently
// and counted for caller-side messaging; template drift is not an
// error.
func (e *Engine) BuildDeckFromTemplate(catalog Catalog, refs []model.TemplateCard, now time.Time) (Deck, int) {
	ordered := append([]model.TemplateCard(nil), refs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	deck := Deck{}
	dropped := 0
	for _, ref := range ordered {
		card, category, ok := catalog.Find(ref.CardID)
		if !ok {
			dropped++
			continue
		}
		if !e.avail.Available(card, deck, now) {
			dropped++
			continue
		}
		deck = append(deck, model.DeckEntry{
			InstanceID:     e.newID(),
			UserID:         card.UserID,
			CardID:         card.ID,
			SourceCategory: category,
			Title:          card.Title,
			Duration:       card.Duration,
			CreatedAt:      now,
		})
	}
	return deck, dropped
}

// TemplateFromDeck captures the current deck composition as template
// references. Content is not snapshotted; only (card, category) pairs.
func TemplateFromDeck(d Deck) []model.TemplateCard {
	refs := make([]model.TemplateCard, 0, len(d))
	for i, e := range d {
		refs = append(refs, model.TemplateCard{
			CardID:         e.CardID,
			SourceCategory: e.SourceCategory,
			Position:       i,
		})
	}
	return refs
}
