// Package cache makes AI-backed features resilient: it serves stored results,
// writes through successful live results and substitutes fallback content
// when the backend fails.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// KeyPrefix namespaces every entry written by this package.
const KeyPrefix = "macrosync"

// Feature identifies an AI-backed feature.
type Feature string

const (
	FeatureFoodAnalysis Feature = "food_analysis"
	FeatureWorkout      Feature = "workout"
	FeatureMealPlan     Feature = "meal_plan"
)

// Source tells where a returned value came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Key is the store key of (feature, contextKey).
func Key(feature Feature, contextKey string) string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, feature, contextKey)
}

// Token identifies one live fetch for a key. Only the most recently issued
// token of a key may write to the store.
type Token struct {
	key string
	seq uint64
}

// Stats counts cache outcomes since start.
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Live       int64 `json:"live"`
	Fallbacks  int64 `json:"fallbacks"`
	SelfHeals  int64 `json:"selfHeals"`
	Superseded int64 `json:"superseded"`
}

// Cache coordinates reads and writes of feature results over a Store.
type Cache struct {
	store Store

	mu     sync.Mutex
	tokens map[string]uint64
	locks  map[string]*sync.Mutex

	hits, misses, live, fallbacks, selfHeals, superseded atomic.Int64
}

// New creates a Cache over store.
func New(store Store) *Cache {
	return &Cache{
		store:  store,
		tokens: make(map[string]uint64),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Store returns the underlying store.
func (c *Cache) Store() Store {
	return c.store
}

// Begin issues a new token for (feature, contextKey), superseding every
// earlier token of that key.
func (c *Cache) Begin(feature Feature, contextKey string) Token {
	key := Key(feature, contextKey)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key]++
	return Token{key: key, seq: c.tokens[key]}
}

// IsLatest reports whether t is the most recently issued token of its key.
func (c *Cache) IsLatest(t Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens[t.key] == t.seq
}

// Lock serializes read-modify-write sequences on one key. Callers must not
// hold it across a backend call.
func (c *Cache) Lock(feature Feature, contextKey string) (unlock func()) {
	key := Key(feature, contextKey)
	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Live:       c.live.Load(),
		Fallbacks:  c.fallbacks.Load(),
		SelfHeals:  c.selfHeals.Load(),
		Superseded: c.superseded.Load(),
	}
}
