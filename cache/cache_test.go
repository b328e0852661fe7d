package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c := NewMemory()

	_, ok := c.Get("stats")
	assert.False(t, ok)

	c.Put("stats", []byte(`{"total":3}`), time.Minute)
	data, ok := c.Get("stats")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"total":3}`), data)
}

func TestExpiry(t *testing.T) {
	c := NewMemory()
	c.Put("stats", []byte("x"), 10*time.Millisecond)

	_, ok := c.Get("stats")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("stats")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c := NewMemory()
	c.Put("stats", []byte("x"), time.Minute)
	c.Put("insights", []byte("y"), time.Minute)

	c.Delete("stats")
	_, ok := c.Get("stats")
	assert.False(t, ok)

	data, ok := c.Get("insights")
	require.True(t, ok)
	assert.Equal(t, []byte("y"), data)

	// Deleting an absent key is a no-op.
	c.Delete("stats")
}

func TestPutReplaces(t *testing.T) {
	c := NewMemory()
	c.Put("stats", []byte("old"), 10*time.Millisecond)
	c.Put("stats", []byte("new"), time.Minute)

	time.Sleep(20 * time.Millisecond)
	data, ok := c.Get("stats")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), data)
}
