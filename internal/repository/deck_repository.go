package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-deck/internal/model"
)

// DeckRepository persists the current working set. The deck is always
// written as a whole next-state snapshot: the engine computes complete
// decks and the replace swaps them atomically.
type DeckRepository struct {
	db *gorm.DB
}

func NewDeckRepository(db *gorm.DB) *DeckRepository {
	return &DeckRepository{db: db}
}

// LoadDeck returns the user's deck in position order.
func (r *DeckRepository) LoadDeck(ctx context.Context, userID uint) ([]model.DeckEntry, error) {
	var entries []model.DeckEntry
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplaceDeck swaps the stored deck for the given snapshot.
func (r *DeckRepository) ReplaceDeck(ctx context.Context, userID uint, entries []model.DeckEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.DeckEntry{}).Error; err != nil {
			return err
		}
		for pos := range entries {
			entries[pos].UserID = userID
			entries[pos].Position = pos
			if err := tx.Create(&entries[pos]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace deck: %w", err)
	}
	return nil
}

// Clear empties the user's deck; used at the day-rollover boundary.
func (r *DeckRepository) Clear(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Delete(&model.DeckEntry{}).Error; err != nil {
		return fmt.Errorf("clear deck: %w", err)
	}
	return nil
}
