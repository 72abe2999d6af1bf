package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"daily-deck/internal/model"
)

// CompletionRepository stores day-completion records and the derived
// streak.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// SaveDayCompletion writes the record for (user, date), replacing any
// existing record for that date. Completing the same day twice
// overwrites; it never duplicates.
func (r *CompletionRepository) SaveDayCompletion(ctx context.Context, record *model.DayCompletion) error {
	db := r.db.WithContext(ctx)

	var existing model.DayCompletion
	err := db.Where("user_id = ? AND date = ?", record.UserID, record.Date).First(&existing).Error
	switch {
	case err == nil:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first completion for this date
	default:
		return fmt.Errorf("find day completion: %w", err)
	}

	if err := db.Save(record).Error; err != nil {
		return fmt.Errorf("save day completion: %w", err)
	}
	return nil
}

// ListDates returns all completion date keys for a user, ascending.
func (r *CompletionRepository) ListDates(ctx context.Context, userID uint) ([]string, error) {
	var dates []string
	if err := r.db.WithContext(ctx).Model(&model.DayCompletion{}).
		Where("user_id = ?", userID).Order("date ASC").
		Pluck("date", &dates).Error; err != nil {
		return nil, err
	}
	return dates, nil
}

func (r *CompletionRepository) FindByDate(ctx context.Context, userID uint, date string) (*model.DayCompletion, error) {
	var record model.DayCompletion
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveStreak upserts the derived streak row for a user.
func (r *CompletionRepository) SaveStreak(ctx context.Context, userID uint, current, longest int, lastDate string) error {
	streak := model.UserStreak{
		UserID:             userID,
		CurrentStreak:      current,
		LongestStreak:      longest,
		LastCompletionDate: lastDate,
		UpdatedAt:          time.Now(),
	}
	if err := r.db.WithContext(ctx).Save(&streak).Error; err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

func (r *CompletionRepository) GetStreak(ctx context.Context, userID uint) (*model.UserStreak, error) {
	var streak model.UserStreak
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.UserStreak{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}
