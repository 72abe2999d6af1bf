package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"daily-deck/internal/model"
)

// TemplateRepository stores named deck compositions.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, template *model.Template) error {
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) ListByUser(ctx context.Context, userID uint) ([]model.Template, error) {
	var templates []model.Template
	if err := r.db.WithContext(ctx).
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ?", userID).
		Order("created_at ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// FindByID loads a template with its card references in saved order.
func (r *TemplateRepository) FindByID(ctx context.Context, userID uint, templateID string) (*model.Template, error) {
	var template model.Template
	if err := r.db.WithContext(ctx).
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ? AND id = ?", userID, templateID).
		First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) Delete(ctx context.Context, userID uint, templateID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, templateID).
		Delete(&model.Template{}).Error; err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
