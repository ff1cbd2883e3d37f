// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/photoloop/photoloop/internal/logging"
)

// LocalAdapter indexes a directory tree as a media source. Files are
// referenced in place (never copied) as file:// URIs.
//
// Walk rules: names starting with "." are skipped, symbolic links are
// followed, and visited directory identities (dev,inode) are tracked so
// link cycles terminate. Unreadable or missing directories produce an
// empty inventory plus a warning, not a failed source: a frame whose USB
// stick is unplugged should keep showing its other sources.
type LocalAdapter struct {
	name string
	root string
}

// NewLocalAdapter creates an adapter for the directory tree at root.
func NewLocalAdapter(name, root string) *LocalAdapter {
	return &LocalAdapter{name: name, root: root}
}

// Name returns the source label.
func (a *LocalAdapter) Name() string { return a.name }

// Inventory recursively walks the root directory.
func (a *LocalAdapter) Inventory(ctx context.Context, progress ProgressFunc) ([]Item, error) {
	root, err := filepath.Abs(a.root)
	if err != nil {
		root = a.root
	}

	if _, err := os.Stat(root); err != nil {
		logging.Warn().Str("source", a.name).Str("path", root).Err(err).
			Msg("local source unavailable, yielding empty inventory")
		return nil, nil
	}

	w := &walker{
		ctx:     ctx,
		label:   a.name,
		visited: make(map[dirIdentity]bool),
	}
	w.walk(root, 0)

	if progress != nil {
		progress("scanning", len(w.items), len(w.items))
	}
	logging.Debug().Str("source", a.name).Int("items", len(w.items)).Msg("local inventory complete")
	return w.items, nil
}

// FetchMetadata is a no-op for local sources; embedded metadata is
// extracted at indexing time.
func (a *LocalAdapter) FetchMetadata(_ context.Context, _ []string, _ func(RemoteMetadata)) error {
	return nil
}

// dirIdentity identifies a directory across symlinks.
type dirIdentity struct {
	dev uint64
	ino uint64
}

// maxWalkDepth bounds runaway trees that the inode guard cannot catch
// (bind mounts repeating a subtree).
const maxWalkDepth = 32

type walker struct {
	ctx     context.Context
	label   string
	visited map[dirIdentity]bool
	items   []Item
}

// walk descends into dir, appending matching files to w.items.
func (w *walker) walk(dir string, depth int) {
	if w.ctx.Err() != nil || depth > maxWalkDepth {
		return
	}

	if id, ok := identityOf(dir); ok {
		if w.visited[id] {
			return
		}
		w.visited[id] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn().Str("source", w.label).Str("path", dir).Err(err).Msg("unreadable directory skipped")
		return
	}

	for _, de := range entries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(dir, name)

		// Resolve symlinks so linked albums are indexed too.
		info, err := os.Stat(full)
		if err != nil {
			logging.Debug().Str("path", full).Err(err).Msg("stat failed, skipping")
			continue
		}

		if info.IsDir() {
			w.walk(full, depth+1)
			continue
		}
		kind, ok := ClassifyPath(name)
		if !ok {
			continue
		}
		w.items = append(w.items, Item{
			URI:        "file://" + full,
			Kind:       kind,
			AlbumLabel: w.label,
		})
	}
}

// identityOf returns the (device, inode) pair for a directory.
func identityOf(path string) (dirIdentity, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return dirIdentity{}, false
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return dirIdentity{}, false
	}
	return dirIdentity{dev: uint64(st.Dev), ino: st.Ino}, true
}
