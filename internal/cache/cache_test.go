package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshRequiresMatchingKeyAndFile(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "main.css")
	key := NewHasher().String("body{}").Bool(false).Sum()

	assert.False(t, c.Fresh(dest, key), "unknown output")

	c.Store(dest, key)
	assert.False(t, c.Fresh(dest, key), "output missing on disk")

	require.NoError(t, os.WriteFile(dest, []byte("body{}"), 0o644))
	assert.True(t, c.Fresh(dest, key))
	assert.False(t, c.Fresh(dest, key+1), "inputs changed")

	c.Invalidate(dest)
	assert.False(t, c.Fresh(dest, key))

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(4), misses)
}

func TestHasherSeparatesChunks(t *testing.T) {
	a := NewHasher().String("ab").String("c").Sum()
	b := NewHasher().String("a").String("bc").Sum()
	assert.NotEqual(t, a, b)

	prod := NewHasher().String("x").Bool(true).Sum()
	dev := NewHasher().String("x").Bool(false).Sum()
	assert.NotEqual(t, prod, dev)

	assert.Equal(t, NewHasher().String("same").Sum(), NewHasher().String("same").Sum())
}

func TestHasherFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(p, []byte("one"), 0o644))

	h1 := NewHasher()
	require.NoError(t, h1.File(p))

	require.NoError(t, os.WriteFile(p, []byte("two"), 0o644))
	h2 := NewHasher()
	require.NoError(t, h2.File(p))

	assert.NotEqual(t, h1.Sum(), h2.Sum())
	assert.Error(t, NewHasher().File(filepath.Join(t.TempDir(), "missing")))
}

func TestEviction(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	c.Store("a", 1)
	c.Store("b", 2)
	c.Store("c", 3)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestNilCache(t *testing.T) {
	var c *Cache
	assert.False(t, c.Fresh("x", 1))
	c.Store("x", 1)
	c.Purge()
	assert.Equal(t, 0, c.Len())
}
