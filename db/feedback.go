package db

import (
	"context"
	"errors"
	"fmt"

	"feedbacklens/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a feedback id does not exist.
var ErrNotFound = errors.New("feedback not found")

// Columns that CountGrouped accepts. Guards the interpolated GROUP BY.
var groupableColumns = map[string]bool{
	"source":    true,
	"sentiment": true,
	"urgency":   true,
}

// FeedbackStore handles all reads and writes against the feedback table.
type FeedbackStore struct {
	db *gorm.DB
}

func NewFeedbackStore(db *gorm.DB) (*FeedbackStore, error) {
	if err := db.AutoMigrate(&models.Feedback{}); err != nil {
		return nil, fmt.Errorf("failed to create feedback table: %w", err)
	}
	return &FeedbackStore{db: db}, nil
}

// Create inserts a new feedback entry and fills in its assigned id.
func (fs *FeedbackStore) Create(ctx context.Context, feedback *models.Feedback) error {
	if err := fs.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}
	return nil
}

// GetByID fetches a single entry. Returns ErrNotFound for unknown ids.
func (fs *FeedbackStore) GetByID(ctx context.Context, id uint) (*models.Feedback, error) {
	var feedback models.Feedback
	err := fs.db.WithContext(ctx).First(&feedback, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feedback %d: %w", id, err)
	}
	return &feedback, nil
}

// List returns up to limit entries, most recent first.
func (fs *FeedbackStore) List(ctx context.Context, limit int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := fs.db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&feedbacks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedbacks, nil
}

// ListAnalyzed returns every entry carrying a label triple, most recent first.
func (fs *FeedbackStore) ListAnalyzed(ctx context.Context) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := fs.db.WithContext(ctx).
		Where("sentiment IS NOT NULL").
		Order("created_at DESC, id ASC").
		Find(&feedbacks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analyzed feedback: %w", err)
	}
	return feedbacks, nil
}

// ListUnanalyzed returns up to limit entries that have no labels yet.
func (fs *FeedbackStore) ListUnanalyzed(ctx context.Context, limit int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := fs.db.WithContext(ctx).
		Where("sentiment IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&feedbacks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed feedback: %w", err)
	}
	return feedbacks, nil
}

// ListRecentUrgent returns up to limit high-urgency entries, most recent first.
func (fs *FeedbackStore) ListRecentUrgent(ctx context.Context, limit int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := fs.db.WithContext(ctx).
		Where("urgency = ?", models.UrgencyHigh).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&feedbacks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list urgent feedback: %w", err)
	}
	return feedbacks, nil
}

// UpdateLabels sets the full label triple on one entry. The three fields are
// always written together so a row is never partially labeled.
func (fs *FeedbackStore) UpdateLabels(ctx context.Context, id uint, sentiment, themes, urgency string) error {
	result := fs.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sentiment": sentiment,
			"themes":    themes,
			"urgency":   urgency,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update labels for feedback %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAll returns the total number of feedback entries.
func (fs *FeedbackStore) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := fs.db.WithContext(ctx).Model(&models.Feedback{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return total, nil
}

// CountGrouped returns per-value counts for one of the groupable columns.
// NULL values are excluded.
func (fs *FeedbackStore) CountGrouped(ctx context.Context, column string) (map[string]int64, error) {
	if !groupableColumns[column] {
		return nil, fmt.Errorf("cannot group by column %q", column)
	}

	var rows []struct {
		Value string
		Count int64
	}
	err := fs.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Select(column+" AS value, COUNT(*) AS count").
		Where(column + " IS NOT NULL").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count by %s: %w", column, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Value] = row.Count
	}
	return counts, nil
}
