package feed

import (
	"context"
	"fmt"
	"strings"

	"feedbacklens/cache"
	"feedbacklens/insights"
	"feedbacklens/models"
)

// DefaultListLimit bounds list responses.
const DefaultListLimit = 100

// ValidationError marks a rejected submission. The caller renders it as a
// 4xx, everything else as a 5xx.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s must not be empty", e.Field)
}

// Store is the slice of the feedback store the feed service needs.
type Store interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	List(ctx context.Context, limit int) ([]models.Feedback, error)
}

// Service handles feedback submission and listing.
type Service struct {
	store Store
	cache cache.Cache
}

func NewService(store Store, c cache.Cache) *Service {
	return &Service{store: store, cache: c}
}

// ListFeedback returns up to limit entries, most recent first. A limit
// outside (0, DefaultListLimit] falls back to the default.
func (s *Service) ListFeedback(ctx context.Context, limit int) ([]models.Feedback, error) {
	if limit < 1 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.store.List(ctx, limit)
}

// SubmitFeedback validates and stores a new unanalyzed entry, then drops
// both derived caches. No store write happens on validation failure.
func (s *Service) SubmitFeedback(ctx context.Context, source, text string) (*models.Feedback, error) {
	source = strings.TrimSpace(source)
	text = strings.TrimSpace(text)
	if source == "" {
		return nil, &ValidationError{Field: "source"}
	}
	if text == "" {
		return nil, &ValidationError{Field: "text"}
	}

	feedback := &models.Feedback{Source: source, Text: text}
	if err := s.store.Create(ctx, feedback); err != nil {
		return nil, err
	}

	insights.Invalidate(s.cache)
	return feedback, nil
}
