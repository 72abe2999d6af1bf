package model

import "time"

// RecurrenceType controls how often a catalog card may enter the deck.
type RecurrenceType string

const (
	// RecurrenceAlways cards can be added any number of times.
	RecurrenceAlways RecurrenceType = "always"
	// RecurrenceOnce cards can appear in the deck at most once.
	RecurrenceOnce RecurrenceType = "once"
	// RecurrenceLimited cards can appear up to MaxUses times.
	RecurrenceLimited RecurrenceType = "limited"
	// RecurrenceScheduled cards are only available on days their
	// recurrence rule fires.
	RecurrenceScheduled RecurrenceType = "scheduled"
)

// Card is a catalog task definition. Execution state (completion, time
// spent) never lives here; it belongs to DeckEntry copies.
type Card struct {
	ID          string `gorm:"primaryKey"`
	UserID      uint   `gorm:"index"`
	Category    string `gorm:"index"` // catalog bucket key
	Position    int    // display order within the category
	Title       string
	Description string
	Duration    *int           // estimated minutes, optional
	Recurrence  RecurrenceType `gorm:"default:always"`
	// Rule is an RFC 5545 recurrence rule string, set iff Recurrence is
	// RecurrenceScheduled. RuleTimezone optionally overrides the
	// evaluation timezone.
	Rule         string
	RuleTimezone string
	// MaxUses caps deck copies for limited cards; nil means 1.
	MaxUses   *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaxUsesOrDefault returns the effective cap for a limited card.
func (c Card) MaxUsesOrDefault() int {
	if c.MaxUses == nil || *c.MaxUses < 1 {
		return 1
	}
	return *c.MaxUses
}
