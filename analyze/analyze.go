package analyze

import (
	"context"
	"fmt"
	"log"
	"sync"

	"feedbacklens/cache"
	"feedbacklens/classify"
	"feedbacklens/insights"
	"feedbacklens/models"
)

const (
	// batchLimit caps how many unanalyzed rows one AnalyzeAll call picks up.
	batchLimit = 50
	// groupSize bounds concurrent classifier calls. Groups run sequentially;
	// items within a group run in parallel.
	groupSize = 5
)

// Item statuses in a batch result.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Store is the slice of the feedback store the analyzer needs.
type Store interface {
	GetByID(ctx context.Context, id uint) (*models.Feedback, error)
	ListUnanalyzed(ctx context.Context, limit int) ([]models.Feedback, error)
	UpdateLabels(ctx context.Context, id uint, sentiment, themes, urgency string) error
}

// Classifier labels feedback text. Classify never fails; degraded results
// carry defaults plus a reason.
type Classifier interface {
	Classify(ctx context.Context, text string) classify.Result
}

// ItemResult reports the outcome for one entry in a batch.
type ItemResult struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BatchResult summarizes one AnalyzeAll run. AnalyzedCount counts successes;
// Results has one element per selected row.
type BatchResult struct {
	AnalyzedCount int          `json:"analyzed_count"`
	Results       []ItemResult `json:"results"`
}

// Analyzer runs classification over stored feedback and persists the labels.
type Analyzer struct {
	store      Store
	classifier Classifier
	cache      cache.Cache
}

func NewAnalyzer(store Store, classifier Classifier, c cache.Cache) *Analyzer {
	return &Analyzer{store: store, classifier: classifier, cache: c}
}

// AnalyzeOne classifies a single entry by id and persists its labels.
// Returns db.ErrNotFound (unwrapped) when the id does not exist.
func (a *Analyzer) AnalyzeOne(ctx context.Context, id uint) (*models.Feedback, error) {
	feedback, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := a.classifier.Classify(ctx, feedback.Text)
	labels := res.Labels
	if err := a.store.UpdateLabels(ctx, id, labels.Sentiment, labels.Themes, labels.Urgency); err != nil {
		return nil, fmt.Errorf("failed to persist labels: %w", err)
	}

	insights.Invalidate(a.cache)
	return a.store.GetByID(ctx, id)
}

// AnalyzeAll classifies up to batchLimit unanalyzed entries in sequential
// groups of groupSize, classifying the members of each group concurrently.
// One item's failure never aborts its group or the batch: a degraded
// classification still persists the default triple, and both it and a
// persistence failure are recorded as that item's failure. The derived
// caches are invalidated exactly once, after all groups finish.
func (a *Analyzer) AnalyzeAll(ctx context.Context) (*BatchResult, error) {
	pending, err := a.store.ListUnanalyzed(ctx, batchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to select unanalyzed feedback: %w", err)
	}

	result := &BatchResult{Results: []ItemResult{}}
	if len(pending) == 0 {
		log.Println("No unanalyzed feedback to process")
		return result, nil
	}
	log.Printf("Analyzing %d feedback entries in groups of %d", len(pending), groupSize)

	for start := 0; start < len(pending); start += groupSize {
		end := start + groupSize
		if end > len(pending) {
			end = len(pending)
		}
		group := pending[start:end]

		items := make([]ItemResult, len(group))
		var wg sync.WaitGroup
		for i := range group {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				items[i] = a.analyzeItem(ctx, &group[i])
			}(i)
		}
		wg.Wait()

		for _, item := range items {
			if item.Status == StatusOK {
				result.AnalyzedCount++
			}
			result.Results = append(result.Results, item)
		}
	}

	insights.Invalidate(a.cache)
	log.Printf("Batch analysis complete: %d/%d succeeded", result.AnalyzedCount, len(pending))
	return result, nil
}

// analyzeItem classifies and persists one entry. Each invocation owns its
// row; concurrent siblings never share state.
func (a *Analyzer) analyzeItem(ctx context.Context, entry *models.Feedback) ItemResult {
	item := ItemResult{ID: entry.ID, Status: StatusOK}

	res := a.classifier.Classify(ctx, entry.Text)
	if res.Degraded {
		item.Status = StatusFailed
		item.Error = res.Reason
	}

	labels := res.Labels
	if err := a.store.UpdateLabels(ctx, entry.ID, labels.Sentiment, labels.Themes, labels.Urgency); err != nil {
		item.Status = StatusFailed
		item.Error = err.Error()
	}
	return item
}
