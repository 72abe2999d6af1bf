package model

import "time"

// DayCompletion records the outcome of one finished day. The (UserID,
// Date) pair is unique: completing the same day twice replaces the prior
// record instead of duplicating it.
type DayCompletion struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         uint   `gorm:"index:idx_user_day,unique"`
	Date           string `gorm:"index:idx_user_day,unique"` // YYYY-MM-DD
	TotalCards     int
	CompletedCards int
	TotalTimeSec   int
	// Breakdown and CompletedList hold JSON payloads produced by the
	// engine summary (per-category stats and completed-card descriptors).
	Breakdown     string
	CompletedList string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserStreak is derived state, recomputed from the full set of
// DayCompletion dates every time a day is completed.
type UserStreak struct {
	UserID             uint `gorm:"primaryKey"`
	CurrentStreak      int
	LongestStreak      int
	LastCompletionDate string
	UpdatedAt          time.Time
}
