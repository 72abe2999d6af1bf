package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-deck/internal/model"
)

// CategoryRepository manages catalog buckets.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// EnsureDefaults seeds the default bucket set for a user who has none.
func (r *CategoryRepository) EnsureDefaults(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.Category{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, c := range model.DefaultCategories {
		c.UserID = userID
		if err := db.Create(&c).Error; err != nil {
			return fmt.Errorf("seed category %q: %w", c.Key, err)
		}
	}
	return nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("position ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) FindByKey(ctx context.Context, userID uint, key string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("user_id = ? AND key = ?", userID, key).
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
