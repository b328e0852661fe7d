package analyze

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"feedbacklens/classify"
	"feedbacklens/db"
	"feedbacklens/insights"
	"feedbacklens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store safe for the analyzer's concurrent writes.
type memStore struct {
	mu         sync.Mutex
	entries    map[uint]*models.Feedback
	order      []uint
	failUpdate map[uint]bool
}

func newMemStore(unanalyzed int) *memStore {
	s := &memStore{entries: make(map[uint]*models.Feedback), failUpdate: make(map[uint]bool)}
	for i := 1; i <= unanalyzed; i++ {
		id := uint(i)
		s.entries[id] = &models.Feedback{ID: id, Source: "Email", Text: fmt.Sprintf("feedback %d", id)}
		s.order = append(s.order, id)
	}
	return s
}

func (s *memStore) GetByID(_ context.Context, id uint) (*models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (s *memStore) ListUnanalyzed(_ context.Context, limit int) ([]models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []models.Feedback
	for _, id := range s.order {
		if s.entries[id].Sentiment == nil && len(pending) < limit {
			pending = append(pending, *s.entries[id])
		}
	}
	return pending, nil
}

func (s *memStore) UpdateLabels(_ context.Context, id uint, sentiment, themes, urgency string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate[id] {
		return fmt.Errorf("simulated write failure for %d", id)
	}
	entry, ok := s.entries[id]
	if !ok {
		return db.ErrNotFound
	}
	entry.Sentiment = &sentiment
	entry.Themes = &themes
	entry.Urgency = &urgency
	return nil
}

// fakeClassifier tracks concurrency and degrades selected texts.
type fakeClassifier struct {
	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
	delay       time.Duration
	failTexts   map[string]bool
}

func (f *fakeClassifier) Classify(_ context.Context, text string) classify.Result {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.failTexts[text] {
		return classify.Result{Labels: classify.DefaultLabels(), Degraded: true, Reason: "simulated outage"}
	}
	return classify.Result{Labels: classify.Labels{
		Sentiment: models.SentimentNegative,
		Themes:    "bug",
		Urgency:   models.UrgencyHigh,
	}}
}

// countingCache records deletions per key.
type countingCache struct {
	mu      sync.Mutex
	deletes map[string]int
}

func newCountingCache() *countingCache {
	return &countingCache{deletes: make(map[string]int)}
}

func (c *countingCache) Get(string) ([]byte, bool) { return nil, false }

func (c *countingCache) Put(string, []byte, time.Duration) {}

func (c *countingCache) Delete(key string) {
	c.mu.Lock()
	c.deletes[key]++
	c.mu.Unlock()
}

func TestAnalyzeAllGroupedFanOut(t *testing.T) {
	store := newMemStore(12)
	classifier := &fakeClassifier{delay: 20 * time.Millisecond}
	analyzer := NewAnalyzer(store, classifier, newCountingCache())

	result, err := analyzer.AnalyzeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, result.AnalyzedCount)
	assert.Len(t, result.Results, 12)
	assert.Equal(t, 12, classifier.calls)

	// Concurrency is bounded by the group size, and members of a group do
	// run in parallel.
	assert.LessOrEqual(t, classifier.maxInFlight, groupSize)
	assert.GreaterOrEqual(t, classifier.maxInFlight, 2)

	// Every row ended up labeled.
	pending, err := store.ListUnanalyzed(context.Background(), batchLimit)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAnalyzeAllRespectsBatchLimit(t *testing.T) {
	store := newMemStore(55)
	classifier := &fakeClassifier{}
	analyzer := NewAnalyzer(store, classifier, newCountingCache())

	result, err := analyzer.AnalyzeAll(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Results, batchLimit)
	assert.Equal(t, batchLimit, classifier.calls)

	pending, err := store.ListUnanalyzed(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, pending, 5)
}

func TestAnalyzeAllDegradedClassification(t *testing.T) {
	store := newMemStore(12)
	classifier := &fakeClassifier{failTexts: map[string]bool{"feedback 7": true}}
	analyzer := NewAnalyzer(store, classifier, newCountingCache())

	result, err := analyzer.AnalyzeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 11, result.AnalyzedCount)

	var failed []ItemResult
	for _, item := range result.Results {
		if item.Status == StatusFailed {
			failed = append(failed, item)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, uint(7), failed[0].ID)
	assert.Contains(t, failed[0].Error, "simulated outage")

	// The degraded row still carries the default triple.
	entry, err := store.GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, entry.Sentiment)
	assert.Equal(t, models.SentimentNeutral, *entry.Sentiment)
	require.NotNil(t, entry.Themes)
	assert.Equal(t, models.ThemeFallback, *entry.Themes)

	// No row was left unanalyzed.
	pending, err := store.ListUnanalyzed(context.Background(), batchLimit)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAnalyzeAllPersistenceFailure(t *testing.T) {
	store := newMemStore(7)
	store.failUpdate[3] = true
	classifier := &fakeClassifier{}
	analyzer := NewAnalyzer(store, classifier, newCountingCache())

	result, err := analyzer.AnalyzeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, result.AnalyzedCount)
	assert.Len(t, result.Results, 7)
	for _, item := range result.Results {
		if item.ID == 3 {
			assert.Equal(t, StatusFailed, item.Status)
			assert.Contains(t, item.Error, "simulated write failure")
		} else {
			assert.Equal(t, StatusOK, item.Status)
		}
	}
}

func TestAnalyzeAllInvalidatesCacheOnce(t *testing.T) {
	store := newMemStore(12)
	c := newCountingCache()
	analyzer := NewAnalyzer(store, &fakeClassifier{}, c)

	_, err := analyzer.AnalyzeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, c.deletes[insights.CacheKeyStats])
	assert.Equal(t, 1, c.deletes[insights.CacheKeyInsights])
}

func TestAnalyzeAllEmptyBacklog(t *testing.T) {
	store := newMemStore(0)
	c := newCountingCache()
	analyzer := NewAnalyzer(store, &fakeClassifier{}, c)

	result, err := analyzer.AnalyzeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.AnalyzedCount)
	assert.Empty(t, result.Results)

	// Nothing changed, so the caches were left alone.
	assert.Empty(t, c.deletes)
}

func TestAnalyzeOne(t *testing.T) {
	store := newMemStore(3)
	c := newCountingCache()
	analyzer := NewAnalyzer(store, &fakeClassifier{}, c)

	entry, err := analyzer.AnalyzeOne(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, entry.Sentiment)
	assert.Equal(t, models.SentimentNegative, *entry.Sentiment)
	require.NotNil(t, entry.Urgency)
	assert.Equal(t, models.UrgencyHigh, *entry.Urgency)

	assert.Equal(t, 1, c.deletes[insights.CacheKeyStats])
	assert.Equal(t, 1, c.deletes[insights.CacheKeyInsights])
}

func TestAnalyzeOneNotFound(t *testing.T) {
	store := newMemStore(1)
	analyzer := NewAnalyzer(store, &fakeClassifier{}, newCountingCache())

	_, err := analyzer.AnalyzeOne(context.Background(), 42)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
