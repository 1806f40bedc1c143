package patternstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_GetPut(t *testing.T) {
	c := newLRU(2)
	c.Put("a", 1)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRU(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a", the least recently touched

	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	c := newLRU(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // touch "a" so "b" becomes the eviction candidate
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRUCache_Delete(t *testing.T) {
	c := newLRU(2)
	c.Put("a", 1)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := newLRU(4)
	c.Put("kb1\x00pat1", 1)
	c.Put("kb1\x00pat2", 2)
	c.Put("kb2\x00pat1", 3)

	c.DeletePrefix("kb1\x00")

	_, ok := c.Get("kb1\x00pat1")
	assert.False(t, ok)
	_, ok = c.Get("kb1\x00pat2")
	assert.False(t, ok)
	_, ok = c.Get("kb2\x00pat1")
	assert.True(t, ok)
}

func TestNewLRU_NonPositiveCapacityDefaultsToOne(t *testing.T) {
	c := newLRU(0)
	c.Put("a", 1)
	c.Put("b", 2)

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}
