// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package geocode resolves photo GPS coordinates into display strings
// through an external reverse-geocoding service, with a persistent
// on-disk cache and a hard one-lookup-per-second rate limit. Negative
// results are cached too, so an ocean photo is not retried forever.
package geocode

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"
	"golang.org/x/time/rate"

	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/metrics"
)

// Place is the structured result from the external geocoding service.
type Place struct {
	City        string
	State       string // two-letter state for US results
	Country     string
	CountryCode string // ISO 3166-1 alpha-2
}

// ReverseGeocoder is the external collaborator contract. A nil Place with
// nil error means "no name for these coordinates" and is cached as a
// negative result.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*Place, error)
}

// saveEvery is how many new cache entries accumulate before a write.
const saveEvery = 10

// CachingGeocoder wraps a ReverseGeocoder with the rate limit and the
// persistent cache. Constructed once during lifecycle init and shared;
// it has its own mutex, independent of the catalog lock.
type CachingGeocoder struct {
	provider ReverseGeocoder
	limiter  *rate.Limiter
	path     string

	mu      sync.Mutex
	cache   map[string]*string // formatted place, nil for negative results
	unsaved int
}

// New loads (or initializes) the cache at path. A missing file starts
// empty; an unreadable one is logged and replaced on the next save.
func New(path string, provider ReverseGeocoder) *CachingGeocoder {
	g := &CachingGeocoder{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(1), 1),
		path:     path,
		cache:    make(map[string]*string),
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(raw, &g.cache); err != nil {
			logging.Warn().Str("path", path).Err(err).Msg("geocode cache unreadable, starting empty")
			g.cache = make(map[string]*string)
		}
	}
	return g
}

// Lookup resolves coordinates to a display string. found is false when
// the location has no name (cached negative) or the provider failed.
func (g *CachingGeocoder) Lookup(ctx context.Context, lat, lon float64) (name string, found bool, err error) {
	key := cacheKey(lat, lon)

	g.mu.Lock()
	cached, ok := g.cache[key]
	g.mu.Unlock()
	if ok {
		if cached == nil {
			metrics.GeocodeLookups.WithLabelValues("negative").Inc()
			return "", false, nil
		}
		metrics.GeocodeLookups.WithLabelValues("hit").Inc()
		return *cached, true, nil
	}

	if g.provider == nil {
		return "", false, nil
	}

	// The external service allows at most one request per second.
	if err := g.limiter.Wait(ctx); err != nil {
		return "", false, err
	}

	place, err := g.provider.Reverse(ctx, lat, lon)
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return "", false, err
	}
	metrics.GeocodeLookups.WithLabelValues("miss").Inc()

	var value *string
	if place != nil {
		formatted := FormatPlace(place)
		value = &formatted
	}
	g.store(key, value)

	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

// store caches a result (negative included) and saves periodically.
func (g *CachingGeocoder) store(key string, value *string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[key] = value
	g.unsaved++
	if g.unsaved >= saveEvery {
		if err := g.saveLocked(); err != nil {
			logging.Warn().Err(err).Msg("failed to save geocode cache")
		}
	}
}

// Close flushes the cache on orderly shutdown.
func (g *CachingGeocoder) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsaved == 0 {
		return nil
	}
	return g.saveLocked()
}

// saveLocked atomically replaces the cache file. Lock must be held.
func (g *CachingGeocoder) saveLocked() error {
	raw, err := json.MarshalIndent(g.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal geocode cache: %w", err)
	}
	if err := renameio.WriteFile(g.path, raw, 0o644); err != nil {
		return fmt.Errorf("write geocode cache: %w", err)
	}
	g.unsaved = 0
	return nil
}

// FormatPlace renders a place for the overlay: US results as "City, ST",
// international as "City, Country".
func FormatPlace(p *Place) string {
	switch {
	case p == nil:
		return ""
	case p.CountryCode == "US" && p.City != "" && p.State != "":
		return p.City + ", " + p.State
	case p.City != "" && p.Country != "":
		return p.City + ", " + p.Country
	case p.City != "":
		return p.City
	default:
		return p.Country
	}
}

// cacheKey rounds coordinates to three decimal places (about 110 m),
// collapsing GPS jitter from the same spot into one lookup.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lon)
}
