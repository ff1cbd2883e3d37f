// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package models

import "time"

// SyncStage names the phase a sync cycle is in.
type SyncStage string

// Sync stages, in cycle order.
const (
	StageIdle             SyncStage = "idle"
	StageScraping         SyncStage = "scraping"
	StageDownloading      SyncStage = "downloading"
	StageFetchingMetadata SyncStage = "fetching_metadata"
	StageComplete         SyncStage = "complete"
	StageError            SyncStage = "error"
)

// SyncProgress is the observable state of the current (or most recent)
// sync cycle. The web layer polls it; the sync coordinator is the only
// writer. Pure data, no logic.
type SyncProgress struct {
	IsSyncing     bool      `json:"is_syncing"`
	Stage         SyncStage `json:"stage"`
	CycleID       string    `json:"cycle_id,omitempty"`
	SourceName    string    `json:"source_name,omitempty"`
	SourcesDone   int       `json:"sources_done"`
	SourcesTotal  int       `json:"sources_total"`
	ItemsFound    int       `json:"items_found"`
	AcquiredDone  int       `json:"acquired_done"`
	AcquiredTotal int       `json:"acquired_total"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	StartedAt     time.Time `json:"started_at,omitzero"`
	CompletedAt   time.Time `json:"completed_at,omitzero"`
}

// SyncStats summarizes the outcome of one sync cycle.
type SyncStats struct {
	New             int `json:"new"`
	Updated         int `json:"updated"`
	Deleted         int `json:"deleted"`
	Unchanged       int `json:"unchanged"`
	Errors          int `json:"errors"`
	MetadataUpdated int `json:"metadata_updated"`
}

// SettingsFingerprint is the canonical summary of the settings that
// influence stored artifacts. Each component is an opaque string; the
// catalog compares them on load to decide what to invalidate.
//
//   - Acquisition changed: all cached remote files are re-acquired and the
//     catalog is emptied.
//   - Faces changed: cached_faces and display_params are cleared.
//   - Scaling changed: only display_params are cleared.
type SettingsFingerprint struct {
	Acquisition string `json:"acquisition"`
	Scaling     string `json:"scaling"`
	Faces       string `json:"faces"`
}
