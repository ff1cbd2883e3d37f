// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package models defines the shared value types of the media library:
// catalog entries, display parameters, sync progress and statistics.
//
// Types here are plain data with JSON tags matching the persisted catalog
// document. Behavior lives in the owning packages (catalog, syncer,
// display); models only carries the small derivations that belong to the
// data itself, such as media ID computation and date fallback chains.
package models
