// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package source

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/models"
)

// RemoteAlbumInspector is the contract with the external web-page
// inspector (the DOM-scraping component, out of scope here). Given an
// album URL it eventually yields the canonical base URIs on the page,
// and can resolve per-URI late-bound metadata by opening detail views.
type RemoteAlbumInspector interface {
	// Inventory returns every canonical media URI in the album.
	Inventory(ctx context.Context, albumURL string, progress ProgressFunc) ([]string, error)

	// FetchMetadata opens the detail view of each requested URI and
	// streams the classified metadata back via each.
	FetchMetadata(ctx context.Context, albumURL string, uris []string, each func(RemoteMetadata)) error
}

// RemoteAdapter exposes a public web album as a source. Inspector calls
// run behind a per-source circuit breaker so a dead browser backend stops
// being hammered on every cycle; breaker-open is reported as an ordinary
// per-source error.
type RemoteAdapter struct {
	name      string
	albumURL  string
	inspector RemoteAlbumInspector
	cb        *gobreaker.CircuitBreaker[[]string]
}

// NewRemoteAdapter creates an adapter for one album URL.
func NewRemoteAdapter(name, albumURL string, inspector RemoteAlbumInspector) *RemoteAdapter {
	cb := gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:        "inspector-" + name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     10 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", cbName).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("inspector circuit breaker state change")
		},
	})
	return &RemoteAdapter{name: name, albumURL: albumURL, inspector: inspector, cb: cb}
}

// Name returns the source label.
func (a *RemoteAdapter) Name() string { return a.name }

// Inventory runs the inspector's bulk phase. A hard inspector error fails
// the whole source; a partially-empty inventory is never returned
// silently.
func (a *RemoteAdapter) Inventory(ctx context.Context, progress ProgressFunc) ([]Item, error) {
	if a.inspector == nil {
		return nil, &SourceError{Source: a.name, Err: fmt.Errorf("no album inspector available")}
	}

	uris, err := a.cb.Execute(func() ([]string, error) {
		return a.inspector.Inventory(ctx, a.albumURL, progress)
	})
	if err != nil {
		return nil, &SourceError{Source: a.name, Err: err}
	}

	items := make([]Item, 0, len(uris))
	for _, uri := range uris {
		// Albums only expose photos through the bulk phase today; video
		// support rides on the same URI shape when the inspector yields it.
		items = append(items, Item{
			URI:        uri,
			Kind:       models.KindPhoto,
			AlbumLabel: a.name,
		})
	}
	logging.Debug().Str("source", a.name).Int("items", len(items)).Msg("remote inventory complete")
	return items, nil
}

// FetchMetadata runs the inspector's follow-up phase for the given URIs.
func (a *RemoteAdapter) FetchMetadata(ctx context.Context, uris []string, each func(RemoteMetadata)) error {
	if a.inspector == nil || len(uris) == 0 {
		return nil
	}
	_, err := a.cb.Execute(func() ([]string, error) {
		return nil, a.inspector.FetchMetadata(ctx, a.albumURL, uris, each)
	})
	if err != nil {
		return &SourceError{Source: a.name, Err: err}
	}
	return nil
}
