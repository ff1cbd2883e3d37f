// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package control

import (
	"testing"

	"github.com/photoloop/photoloop/internal/config"
)

func seedSources() []config.SourceConfig {
	return []config.SourceConfig{
		{Name: "Family Album", Type: "remote_album", URL: "https://photos.example.com/share/abc", Enabled: true},
		{Name: "USB Stick", Type: "local", Path: "/media/usb", Enabled: true},
		{Name: "Archive", Type: "local", Path: "/media/archive", Enabled: false},
	}
}

func TestRegistryAdapters(t *testing.T) {
	t.Parallel()

	r := NewRegistry(seedSources(), nil)
	adapters := r.Adapters()
	if len(adapters) != 2 {
		t.Fatalf("Adapters() = %d, want 2 (disabled source excluded)", len(adapters))
	}

	names := map[string]bool{}
	for _, a := range adapters {
		names[a.Name()] = true
	}
	if !names["Family Album"] || !names["USB Stick"] {
		t.Errorf("adapter names = %v", names)
	}
}

func TestRegistryLocalRoots(t *testing.T) {
	t.Parallel()

	r := NewRegistry(seedSources(), nil)
	roots := r.LocalRoots()
	if len(roots) != 1 || roots[0] != "/media/usb" {
		t.Errorf("LocalRoots() = %v, want only the enabled local path", roots)
	}
}

func TestRegistryEnabledNames(t *testing.T) {
	t.Parallel()

	r := NewRegistry(seedSources(), nil)
	names := r.EnabledNames()
	if len(names) != 2 || names[0] != "Family Album" || names[1] != "USB Stick" {
		t.Errorf("EnabledNames() = %v, want the two enabled sources", names)
	}

	if err := r.SetEnabled("USB Stick", false); err != nil {
		t.Fatal(err)
	}
	names = r.EnabledNames()
	if len(names) != 1 || names[0] != "Family Album" {
		t.Errorf("EnabledNames() = %v after disabling", names)
	}
}

func TestRegistryAddValidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source config.SourceConfig
		ok     bool
	}{
		{"valid local", config.SourceConfig{Name: "New", Type: "local", Path: "/p"}, true},
		{"valid remote", config.SourceConfig{Name: "New", Type: "remote_album", URL: "https://x.example.com"}, true},
		{"empty name", config.SourceConfig{Name: "  ", Type: "local", Path: "/p"}, false},
		{"local without path", config.SourceConfig{Name: "New", Type: "local"}, false},
		{"remote without url", config.SourceConfig{Name: "New", Type: "remote_album"}, false},
		{"remote bad scheme", config.SourceConfig{Name: "New", Type: "remote_album", URL: "ftp://x"}, false},
		{"unknown type", config.SourceConfig{Name: "New", Type: "ftp", Path: "/p"}, false},
		{"duplicate name", config.SourceConfig{Name: "USB Stick", Type: "local", Path: "/p"}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRegistry(seedSources(), nil)
			err := r.Add(tt.source)
			if (err == nil) != tt.ok {
				t.Errorf("Add(%+v) error = %v, want ok=%v", tt.source, err, tt.ok)
			}
		})
	}
}

func TestRegistryToggleAndRemove(t *testing.T) {
	t.Parallel()

	r := NewRegistry(seedSources(), nil)

	if err := r.SetEnabled("Archive", true); err != nil {
		t.Fatal(err)
	}
	if got := len(r.Adapters()); got != 3 {
		t.Errorf("Adapters() after enable = %d, want 3", got)
	}

	if err := r.Remove("Family Album"); err != nil {
		t.Fatal(err)
	}
	if got := len(r.List()); got != 2 {
		t.Errorf("List() after remove = %d, want 2", got)
	}
	if err := r.Remove("Family Album"); err == nil {
		t.Error("removing a missing source succeeded")
	}
	if err := r.SetEnabled("Family Album", true); err == nil {
		t.Error("toggling a missing source succeeded")
	}

	if !r.HasEnabled() {
		t.Error("HasEnabled() = false with enabled sources present")
	}
}

func TestRegistryRename(t *testing.T) {
	t.Parallel()

	r := NewRegistry(seedSources(), nil)

	if err := r.Rename("USB Stick", "Kitchen Frame USB"); err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, s := range r.List() {
		names[s.Name] = true
	}
	if !names["Kitchen Frame USB"] || names["USB Stick"] {
		t.Errorf("names after rename = %v", names)
	}

	if err := r.Rename("Archive", "Family Album"); err == nil {
		t.Error("rename onto an existing name succeeded")
	}
	if err := r.Rename("Nope", "Whatever"); err == nil {
		t.Error("renaming a missing source succeeded")
	}
	if err := r.Rename("Archive", "  "); err == nil {
		t.Error("renaming to blank succeeded")
	}
}
