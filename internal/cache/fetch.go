package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pageza/macrosync/backend/internal/aierr"
)

// validator is implemented by values that can check their own shape.
type validator interface {
	Validate() error
}

// Request selects the entry a Fetch reads and writes.
type Request struct {
	Feature      Feature
	ContextKey   string
	ForceRefresh bool
}

// Result is the outcome of a Fetch. Err and Kind are set only when Source is
// SourceFallback.
type Result[T any] struct {
	Value  T
	Source Source
	Kind   aierr.Kind
	Err    error
	// Superseded is set when a newer fetch for the same key was started
	// before this one finished; its value was not stored.
	Superseded bool
}

// Producer computes a fresh value, usually by calling the AI gateway.
type Producer[T any] func(ctx context.Context) (T, error)

// Fetch returns the stored value for req unless ForceRefresh is set,
// otherwise calls producer. A successful live value is stored; a failure
// returns fallback and leaves the store untouched.
func Fetch[T any](ctx context.Context, c *Cache, req Request, producer Producer[T], fallback T) Result[T] {
	if !req.ForceRefresh {
		if v, ok := Load[T](ctx, c, req.Feature, req.ContextKey); ok {
			c.hits.Add(1)
			return Result[T]{Value: v, Source: SourceCache}
		}
		c.misses.Add(1)
	}

	token := c.Begin(req.Feature, req.ContextKey)
	v, err := producer(ctx)

	if err != nil {
		stale := !c.IsLatest(token)
		if stale {
			c.superseded.Add(1)
		}
		kind := aierr.Classify(err)
		c.fallbacks.Add(1)
		log.Warn().
			Err(err).
			Str("feature", string(req.Feature)).
			Str("context_key", req.ContextKey).
			Str("kind", string(kind)).
			Msg("serving fallback")
		return Result[T]{Value: fallback, Source: SourceFallback, Kind: kind, Err: err, Superseded: stale}
	}

	c.live.Add(1)

	// The token check and the write share the key lock so a newer fetch
	// cannot store its value between them.
	unlock := c.Lock(req.Feature, req.ContextKey)
	defer unlock()

	if !c.IsLatest(token) {
		c.superseded.Add(1)
		log.Info().
			Str("feature", string(req.Feature)).
			Str("context_key", req.ContextKey).
			Msg("discarding superseded response")
		return Result[T]{Value: v, Source: SourceLive, Superseded: true}
	}

	if err := Save(ctx, c, req.Feature, req.ContextKey, v); err != nil {
		log.Warn().Err(err).Str("feature", string(req.Feature)).Msg("failed to store live result")
	}
	return Result[T]{Value: v, Source: SourceLive}
}

// Load reads and decodes the entry for (feature, contextKey). An entry that
// cannot be decoded or fails validation is deleted and reported as missing.
func Load[T any](ctx context.Context, c *Cache, feature Feature, contextKey string) (T, bool) {
	var zero T
	key := Key(feature, contextKey)

	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return zero, false
	}

	var v T
	if err := decode(raw, &v); err != nil {
		c.selfHeals.Add(1)
		log.Info().Err(err).Str("key", key).Msg("removing corrupt cache entry")
		if delErr := c.store.Delete(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("failed to remove corrupt cache entry")
		}
		return zero, false
	}
	return v, true
}

// Save encodes v and replaces the entry for (feature, contextKey).
func Save[T any](ctx context.Context, c *Cache, feature Feature, contextKey string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s entry: %w", feature, err)
	}
	return c.store.Set(ctx, Key(feature, contextKey), string(data))
}

// Invalidate removes the entry for (feature, contextKey).
func (c *Cache) Invalidate(ctx context.Context, feature Feature, contextKey string) error {
	return c.store.Delete(ctx, Key(feature, contextKey))
}

func decode[T any](raw string, v *T) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return err
	}
	if val, ok := any(v).(validator); ok {
		return val.Validate()
	}
	return nil
}
