package model

import "time"

// DeckEntry is a working copy of a catalog card inside today's deck.
// It references the catalog card by CardID and carries the per-instance
// execution state the catalog original never holds. InstanceID identifies
// the entry independently of its position, so reorders cannot confuse
// identity.
type DeckEntry struct {
	InstanceID string `gorm:"primaryKey"`
	UserID     uint   `gorm:"index"`
	CardID     string `gorm:"index"`
	// SourceCategory records which catalog bucket the copy came from; it
	// is retargeted when the catalog card changes category.
	SourceCategory string
	Position       int // ordering only, never identity
	Title          string
	Duration       *int
	Completed      bool
	CompletedAt    *time.Time
	// TimeSpentSec accumulates tracked seconds across timer stop events.
	TimeSpentSec int
	// TimerStartedAt is set while a timer runs; elapsed time is derived
	// from it rather than counted, so suspends cannot drift the total.
	TimerStartedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
