// Package cache remembers which build outputs are current.
//
// Each output path maps to a 64-bit xxhash of everything that produced it:
// source bytes, mode flags, options. A task asks Fresh before regenerating
// an output and calls Store after writing it. An entry is only fresh while
// the output file still exists, so removing the build directory invalidates
// everything without touching the cache.
package cache

import (
	"os"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the number of tracked outputs.
const DefaultSize = 4096

// Cache maps output paths to the digest of their inputs.
type Cache struct {
	entries *lru.Cache[string, uint64]
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a cache holding at most size entries.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, uint64](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Hasher accumulates the inputs of one output.
type Hasher struct {
	d *xxhash.Digest
}

func NewHasher() *Hasher {
	return &Hasher{d: xxhash.New()}
}

// Bytes adds a length-prefixed chunk, so that ("ab","c") and ("a","bc")
// differ.
func (h *Hasher) Bytes(b []byte) *Hasher {
	_, _ = h.d.WriteString(strconv.Itoa(len(b)))
	_, _ = h.d.WriteString(":")
	_, _ = h.d.Write(b)
	return h
}

func (h *Hasher) String(s string) *Hasher {
	return h.Bytes([]byte(s))
}

func (h *Hasher) Bool(b bool) *Hasher {
	if b {
		return h.String("1")
	}
	return h.String("0")
}

// File adds the path and the contents of a file.
func (h *Hasher) File(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	h.String(path).Bytes(data)
	return nil
}

func (h *Hasher) Sum() uint64 {
	return h.d.Sum64()
}

// Fresh reports whether dest was produced from inputs with the given digest
// and still exists. A nil cache is never fresh.
func (c *Cache) Fresh(dest string, key uint64) bool {
	if c == nil {
		return false
	}
	if v, ok := c.entries.Get(dest); ok && v == key {
		if _, err := os.Stat(dest); err == nil {
			c.hits.Add(1)
			return true
		}
	}
	c.misses.Add(1)
	return false
}

// Store records that dest was produced from inputs with the given digest.
func (c *Cache) Store(dest string, key uint64) {
	if c == nil {
		return
	}
	c.entries.Add(dest, key)
}

func (c *Cache) Invalidate(dest string) {
	if c == nil {
		return
	}
	c.entries.Remove(dest)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Stats returns the hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}
