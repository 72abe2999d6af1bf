package model

import "time"

// Category is one catalog bucket. Every user gets the default set on
// first contact; the key is what move requests and deck entries refer to.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_user_category_key,unique"`
	Key       string `gorm:"index:idx_user_category_key,unique"`
	Name      string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultCategories seeds the catalog buckets for a new user.
var DefaultCategories = []Category{
	{Key: "morning", Name: "Morning", Position: 0},
	{Key: "focus", Name: "Focus", Position: 1},
	{Key: "body", Name: "Body", Position: 2},
	{Key: "evening", Name: "Evening", Position: 3},
}
