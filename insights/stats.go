package insights

import (
	"context"
	"time"

	"feedbacklens/models"

	"golang.org/x/sync/errgroup"
)

const recentUrgentLimit = 5

// Store is the slice of the feedback store the engines read from.
type Store interface {
	CountAll(ctx context.Context) (int64, error)
	CountGrouped(ctx context.Context, column string) (map[string]int64, error)
	ListRecentUrgent(ctx context.Context, limit int) ([]models.Feedback, error)
	ListAnalyzed(ctx context.Context) ([]models.Feedback, error)
}

// AggregatedStats is the dashboard summary, recomputed on every cache miss.
type AggregatedStats struct {
	Total        int64             `json:"total"`
	BySource     map[string]int64  `json:"by_source"`
	BySentiment  map[string]int64  `json:"by_sentiment"`
	ByUrgency    map[string]int64  `json:"by_urgency"`
	RecentUrgent []models.Feedback `json:"recent_urgent"`
	GeneratedAt  time.Time         `json:"timestamp"`
}

// ComputeStats aggregates current store contents. The five reads are
// independent and issued concurrently; any failure fails the whole
// computation.
func ComputeStats(ctx context.Context, store Store) (*AggregatedStats, error) {
	stats := &AggregatedStats{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := store.CountAll(ctx)
		stats.Total = total
		return err
	})
	g.Go(func() error {
		counts, err := store.CountGrouped(ctx, "source")
		stats.BySource = counts
		return err
	})
	g.Go(func() error {
		counts, err := store.CountGrouped(ctx, "sentiment")
		stats.BySentiment = counts
		return err
	})
	g.Go(func() error {
		counts, err := store.CountGrouped(ctx, "urgency")
		stats.ByUrgency = counts
		return err
	})
	g.Go(func() error {
		urgent, err := store.ListRecentUrgent(ctx, recentUrgentLimit)
		stats.RecentUrgent = urgent
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if stats.RecentUrgent == nil {
		stats.RecentUrgent = []models.Feedback{}
	}
	stats.GeneratedAt = time.Now().UTC()
	return stats, nil
}
