// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package geocode

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type fakeProvider struct {
	place *Place
	err   error
	calls int
}

func (f *fakeProvider) Reverse(_ context.Context, _, _ float64) (*Place, error) {
	f.calls++
	return f.place, f.err
}

func TestLookupCachesResults(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{place: &Place{City: "Lisbon", Country: "Portugal", CountryCode: "PT"}}
	g := New(filepath.Join(t.TempDir(), "geocode.json"), provider)

	name, found, err := g.Lookup(context.Background(), 38.7223, -9.1393)
	if err != nil || !found {
		t.Fatalf("Lookup() = (%q, %v, %v)", name, found, err)
	}
	if name != "Lisbon, Portugal" {
		t.Errorf("name = %q, want %q", name, "Lisbon, Portugal")
	}

	// Same spot with GPS jitter inside the rounding radius: cache hit.
	name, found, err = g.Lookup(context.Background(), 38.72231, -9.13928)
	if err != nil || !found || name != "Lisbon, Portugal" {
		t.Fatalf("cached Lookup() = (%q, %v, %v)", name, found, err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestLookupCachesNegativeResults(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{} // nil place, nil error: unnamed waters
	g := New(filepath.Join(t.TempDir(), "geocode.json"), provider)

	if _, found, err := g.Lookup(context.Background(), 0, -30); err != nil || found {
		t.Fatalf("ocean lookup found a name: found=%v err=%v", found, err)
	}
	if _, found, _ := g.Lookup(context.Background(), 0, -30); found {
		t.Fatal("negative result not cached")
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestLookupProviderErrorNotCached(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: errors.New("service unavailable")}
	g := New(filepath.Join(t.TempDir(), "geocode.json"), provider)

	if _, _, err := g.Lookup(context.Background(), 1, 1); err == nil {
		t.Fatal("Lookup() swallowed the provider error")
	}

	// After the provider recovers the same coordinates resolve.
	provider.err = nil
	provider.place = &Place{City: "Berlin", Country: "Germany", CountryCode: "DE"}
	name, found, err := g.Lookup(context.Background(), 1, 1)
	if err != nil || !found || name != "Berlin, Germany" {
		t.Errorf("recovered Lookup() = (%q, %v, %v)", name, found, err)
	}
}

func TestLookupNilProvider(t *testing.T) {
	t.Parallel()

	g := New(filepath.Join(t.TempDir(), "geocode.json"), nil)
	name, found, err := g.Lookup(context.Background(), 10, 20)
	if err != nil || found || name != "" {
		t.Errorf("Lookup() without provider = (%q, %v, %v), want empty miss", name, found, err)
	}
}

func TestCachePersistsAcrossRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "geocode.json")
	provider := &fakeProvider{place: &Place{City: "Kyoto", Country: "Japan", CountryCode: "JP"}}

	g := New(path, provider)
	if _, _, err := g.Lookup(context.Background(), 35.0116, 135.7681); err != nil {
		t.Fatal(err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// A fresh instance reads the saved cache and never calls out.
	reopened := New(path, provider)
	name, found, err := reopened.Lookup(context.Background(), 35.0116, 135.7681)
	if err != nil || !found || name != "Kyoto, Japan" {
		t.Fatalf("reopened Lookup() = (%q, %v, %v)", name, found, err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times across restart, want 1", provider.calls)
	}
}

func TestFormatPlace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		place *Place
		want  string
	}{
		{"us city", &Place{City: "Portland", State: "OR", Country: "United States", CountryCode: "US"}, "Portland, OR"},
		{"international", &Place{City: "Lisbon", Country: "Portugal", CountryCode: "PT"}, "Lisbon, Portugal"},
		{"city only", &Place{City: "Atlantis"}, "Atlantis"},
		{"country only", &Place{Country: "Iceland", CountryCode: "IS"}, "Iceland"},
		{"us without state", &Place{City: "Houston", Country: "United States", CountryCode: "US"}, "Houston, United States"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatPlace(tt.place); got != tt.want {
				t.Errorf("FormatPlace() = %q, want %q", got, tt.want)
			}
		})
	}
}
