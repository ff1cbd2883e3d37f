// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package control

import (
	"fmt"
	"strings"
	"sync"

	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/source"
)

// Registry is the runtime source list. It is seeded from the config file
// and mutated by control operations; the sync coordinator asks it for
// adapters at the start of every cycle, so changes take effect on the
// next sync without a restart. Runtime changes live in memory only; the
// config file remains the source of truth across restarts.
type Registry struct {
	inspector source.RemoteAlbumInspector

	mu      sync.Mutex
	sources []config.SourceConfig
}

// NewRegistry seeds the registry from the configured sources. inspector
// may be nil; remote sources then fail per-cycle until one is available.
func NewRegistry(sources []config.SourceConfig, inspector source.RemoteAlbumInspector) *Registry {
	cp := make([]config.SourceConfig, len(sources))
	copy(cp, sources)
	return &Registry{inspector: inspector, sources: cp}
}

// Adapters builds adapters for every enabled source.
func (r *Registry) Adapters() []source.Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()

	var adapters []source.Adapter
	for _, s := range r.sources {
		if !s.Enabled {
			continue
		}
		switch s.Type {
		case "local":
			adapters = append(adapters, source.NewLocalAdapter(s.Name, s.Path))
		case "remote_album":
			adapters = append(adapters, source.NewRemoteAdapter(s.Name, s.URL, r.inspector))
		}
	}
	return adapters
}

// List returns a copy of all configured sources, enabled or not.
func (r *Registry) List() []config.SourceConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]config.SourceConfig, len(r.sources))
	copy(cp, r.sources)
	return cp
}

// LocalRoots returns the paths of all enabled local sources.
func (r *Registry) LocalRoots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var roots []string
	for _, s := range r.sources {
		if s.Enabled && s.Type == "local" {
			roots = append(roots, s.Path)
		}
	}
	return roots
}

// EnabledNames returns the names of all enabled sources.
func (r *Registry) EnabledNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, s := range r.sources {
		if s.Enabled {
			names = append(names, s.Name)
		}
	}
	return names
}

// HasEnabled reports whether any source is enabled.
func (r *Registry) HasEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		if s.Enabled {
			return true
		}
	}
	return false
}

// Add registers a new source. The name must be unique and the
// type-specific field present.
func (r *Registry) Add(s config.SourceConfig) error {
	if err := validateSource(s); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sources {
		if existing.Name == s.Name {
			return fmt.Errorf("source %q already exists", s.Name)
		}
	}
	r.sources = append(r.sources, s)
	return nil
}

// Remove drops a source by name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sources {
		if s.Name == name {
			r.sources = append(r.sources[:i], r.sources[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no source named %q", name)
}

// SetEnabled toggles a source.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sources {
		if r.sources[i].Name == name {
			r.sources[i].Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("no source named %q", name)
}

// Rename changes a source's label. The caller relabels catalog entries.
func (r *Registry) Rename(oldName, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return fmt.Errorf("source name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i := range r.sources {
		if r.sources[i].Name == newName {
			return fmt.Errorf("source %q already exists", newName)
		}
		if r.sources[i].Name == oldName {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("no source named %q", oldName)
	}
	r.sources[idx].Name = newName
	return nil
}

func validateSource(s config.SourceConfig) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("source name must not be empty")
	}
	switch s.Type {
	case "local":
		if s.Path == "" {
			return fmt.Errorf("local source %q needs a path", s.Name)
		}
	case "remote_album":
		if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
			return fmt.Errorf("remote source %q needs an http(s) url", s.Name)
		}
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	return nil
}
