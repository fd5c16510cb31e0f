package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// Cache key names of the non-snapshot reads.
const (
	eventsCacheName = "events"
	surveyCacheName = "survey"
)

// cachedSnapshots returns the raw rows of a dataset, reading through the fetch cache.
func cachedSnapshots(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager, dataset string, mapping schema.DatasetMapping) ([]schema.RawSnapshot, error) {
	key := func() string { return generateCacheKey(src, dataset, mapping) }
	return cachedFetch(cfg, mgr, key, func() ([]schema.RawSnapshot, error) {
		return src.FetchSnapshots(ctx, dataset)
	})
}

// cachedEvents returns the calendar events, reading through the fetch cache.
func cachedEvents(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) ([]schema.CalendarEvent, error) {
	key := func() string { return generateCacheKey(src, eventsCacheName, schema.DatasetMapping{}) }
	return cachedFetch(cfg, mgr, key, func() ([]schema.CalendarEvent, error) {
		return src.FetchEvents(ctx)
	})
}

// cachedSurvey returns every survey response, reading through the fetch cache.
func cachedSurvey(ctx context.Context, cfg *contract.Config, src contract.SnapshotSource, mgr contract.CacheManager) ([]schema.SurveyResponse, error) {
	key := func() string { return generateCacheKey(src, surveyCacheName, schema.DatasetMapping{}) }
	return cachedFetch(cfg, mgr, key, func() ([]schema.SurveyResponse, error) {
		return src.FetchSurvey(ctx)
	})
}

// cachedFetch serves rows from the cache store when a fresh entry exists,
// and otherwise fetches them and stores the result.
func cachedFetch[T any](cfg *contract.Config, mgr contract.CacheManager, cacheKey func() string, fetch func() (T, error)) (T, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetCacheStore()
	}
	if store == nil {
		// Fallback to a direct read
		return fetch()
	}
	key := cacheKey()

	// Check for cache hit
	if result, ok := checkCacheHit[T](store, key, cfg.CacheTTL); ok {
		return result, nil
	}

	// Cache miss: fetch and store
	return fetchAndStore(store, key, fetch)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit[T any](store contract.CacheStore, key string, ttl time.Duration) (T, bool) {
	var result T
	data, version, ts, err := store.Get(key)
	if err != nil {
		return result, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion {
		return result, false
	}
	if ttl > 0 && time.Since(time.Unix(ts, 0)) > ttl {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

// fetchAndStore reads from the source and stores the rows in the cache.
// A failed fetch is never cached.
func fetchAndStore[T any](store contract.CacheStore, key string, fetch func() (T, error)) (T, error) {
	result, err := fetch()
	if err != nil {
		return result, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to write fetch cache", err)
		}
	}
	return result, nil
}

// generateCacheKey creates a unique key from the upstream location and the dataset layout
func generateCacheKey(src contract.SnapshotSource, dataset string, mapping schema.DatasetMapping) string {
	key := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s:%s:%s:%s:%s",
		src.Name(),
		src.Fingerprint(),
		dataset,
		mapping.Table,
		mapping.Entity,
		mapping.Value,
		mapping.Time,
		mapping.Seq,
		mapping.Name,
		mapping.ID,
		mapping.Published,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
