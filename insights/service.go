package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"feedbacklens/cache"
)

// Cache keys for the two derived artifacts. Every write path invalidates
// both together; stats and insights are both functions of the full
// feedback set.
const (
	CacheKeyStats    = "stats"
	CacheKeyInsights = "insights"

	cacheTTL = 300 * time.Second
)

const emptyStateMessage = "No analyzed feedback yet. Submit feedback and run analysis to generate insights."

// Service serves the cached derived artifacts, recomputing on miss.
type Service struct {
	store Store
	cache cache.Cache
}

func NewService(store Store, c cache.Cache) *Service {
	return &Service{store: store, cache: c}
}

// GetStats returns the serialized AggregatedStats, from cache when fresh.
// A miss recomputes from the store and repopulates the cache before
// returning.
func (s *Service) GetStats(ctx context.Context) ([]byte, error) {
	if data, ok := s.cache.Get(CacheKeyStats); ok {
		return data, nil
	}

	stats, err := ComputeStats(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize stats: %w", err)
	}

	s.cache.Put(CacheKeyStats, data, cacheTTL)
	return data, nil
}

// GetInsights returns the serialized insights report, from cache when
// fresh. With no analyzed feedback the payload is the empty-state sentinel.
func (s *Service) GetInsights(ctx context.Context) ([]byte, error) {
	if data, ok := s.cache.Get(CacheKeyInsights); ok {
		return data, nil
	}

	entries, err := s.store.ListAnalyzed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load analyzed feedback: %w", err)
	}

	var payload interface{}
	if report := ComputeInsights(entries); report != nil {
		payload = report
	} else {
		payload = EmptyState{Message: emptyStateMessage}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize insights: %w", err)
	}

	s.cache.Put(CacheKeyInsights, data, cacheTTL)
	return data, nil
}

// Invalidate drops both derived artifacts. Called on every store mutation.
func Invalidate(c cache.Cache) {
	c.Delete(CacheKeyStats)
	c.Delete(CacheKeyInsights)
}
