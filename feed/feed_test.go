package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"feedbacklens/insights"
	"feedbacklens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records writes and serves a canned list.
type fakeStore struct {
	created []models.Feedback
	listed  []models.Feedback
	lastLim int
}

func (f *fakeStore) Create(_ context.Context, feedback *models.Feedback) error {
	feedback.ID = uint(len(f.created) + 1)
	feedback.CreatedAt = time.Now().UTC()
	f.created = append(f.created, *feedback)
	return nil
}

func (f *fakeStore) List(_ context.Context, limit int) ([]models.Feedback, error) {
	f.lastLim = limit
	return f.listed, nil
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

func TestSubmitFeedback(t *testing.T) {
	store := &fakeStore{}
	c := newCountingCache()
	svc := NewService(store, c)

	entry, err := svc.SubmitFeedback(context.Background(), "GitHub", "export drops rows")
	require.NoError(t, err)

	assert.NotZero(t, entry.ID)
	assert.Equal(t, "GitHub", entry.Source)
	assert.Equal(t, "export drops rows", entry.Text)
	assert.Nil(t, entry.Sentiment)
	assert.Nil(t, entry.Themes)
	assert.Nil(t, entry.Urgency)
	assert.False(t, entry.CreatedAt.IsZero())

	// Both derived caches were dropped.
	assert.Equal(t, 1, c.deletes[insights.CacheKeyStats])
	assert.Equal(t, 1, c.deletes[insights.CacheKeyInsights])
}

func TestSubmitFeedbackTrimsFields(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, newCountingCache())

	entry, err := svc.SubmitFeedback(context.Background(), "  Email ", "  too slow  ")
	require.NoError(t, err)
	assert.Equal(t, "Email", entry.Source)
	assert.Equal(t, "too slow", entry.Text)
}

func TestSubmitFeedbackValidation(t *testing.T) {
	tests := []struct {
		name   string
		source string
		text   string
	}{
		{"empty source", "", "x"},
		{"empty text", "x", ""},
		{"whitespace source", "   ", "x"},
		{"whitespace text", "x", "   "},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			c := newCountingCache()
			svc := NewService(store, c)

			_, err := svc.SubmitFeedback(context.Background(), tt.source, tt.text)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			// No write and no invalidation on a rejected submission.
			assert.Empty(t, store.created)
			assert.Empty(t, c.deletes)
		})
	}
}

func TestListFeedback(t *testing.T) {
	store := &fakeStore{listed: []models.Feedback{{ID: 1}, {ID: 2}}}
	svc := NewService(store, newCountingCache())

	entries, err := svc.ListFeedback(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 10, store.lastLim)
}

func TestListFeedbackLimitFallback(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, newCountingCache())

	_, err := svc.ListFeedback(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, store.lastLim)

	_, err = svc.ListFeedback(context.Background(), 5000)
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, store.lastLim)
}
