package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-deck/internal/model"
)

// CardRepository handles CRUD for catalog cards.
type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, card *model.Card) error {
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

// ListByUser returns the full catalog ordered by category and position.
func (r *CardRepository) ListByUser(ctx context.Context, userID uint) ([]model.Card, error) {
	var cards []model.Card
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("category ASC, position ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *CardRepository) FindByID(ctx context.Context, userID uint, cardID string) (*model.Card, error) {
	var card model.Card
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, cardID).
		First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *CardRepository) Delete(ctx context.Context, userID uint, cardID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, cardID).
		Delete(&model.Card{}).Error; err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

// SaveCatalog writes the category and position of every card in the
// next-state catalog, in one transaction, so a reorder or reclassify is
// never half-persisted.
func (r *CardRepository) SaveCatalog(ctx context.Context, userID uint, order []string, cards map[string][]model.Card) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range order {
			for pos, card := range cards[key] {
				updates := map[string]interface{}{
					"category": key,
					"position": pos,
				}
				if err := tx.Model(&model.Card{}).
					Where("user_id = ? AND id = ?", userID, card.ID).
					Updates(updates).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}
