// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package metrics exposes Prometheus instrumentation for the media
// library: sync cycles, acquisition, catalog size, display-parameter
// computation and geocoding. Collectors are registered on the default
// registry via promauto; the daemon serves them on the optional metrics
// listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync cycle metrics.

	SyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoloop_sync_cycles_total",
			Help: "Completed sync cycles by result",
		},
		[]string{"result"}, // "complete", "error", "busy"
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photoloop_sync_duration_seconds",
			Help:    "Duration of full sync cycles in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoloop_source_errors_total",
			Help: "Per-source adapter failures during sync",
		},
		[]string{"source"},
	)

	ItemsAcquired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoloop_items_acquired_total",
			Help: "Media items acquired by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	ItemsTombstoned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoloop_items_tombstoned_total",
			Help: "Entries tombstoned by reconciliation",
		},
	)

	ItemsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoloop_items_evicted_total",
			Help: "Entries destroyed by cache-size enforcement",
		},
	)

	DeletionGateSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoloop_deletion_gate_skips_total",
			Help: "Sync cycles whose deletion phase was skipped by the safety gate",
		},
	)

	// Catalog metrics.

	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoloop_catalog_entries",
			Help: "Catalog records including tombstones",
		},
	)

	CatalogActiveEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoloop_catalog_active_entries",
			Help: "Active (displayable) catalog records",
		},
	)

	CacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoloop_cache_bytes",
			Help: "Bytes on disk across active entries",
		},
	)

	// Playlist metrics.

	PlaylistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoloop_playlist_size",
			Help: "Items in the current playlist",
		},
	)

	PlaylistRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoloop_playlist_rebuilds_total",
			Help: "Playlist rebuilds",
		},
	)

	// Display-parameter engine metrics.

	DisplayParamsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoloop_display_params_total",
			Help: "Display-parameter resolutions by outcome",
		},
		[]string{"outcome"}, // "memoized", "computed", "fallback"
	)

	DisplayComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photoloop_display_compute_seconds",
			Help:    "Duration of display-parameter computation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FaceDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoloop_face_detections_total",
			Help: "Face detector invocations by outcome",
		},
		[]string{"outcome"}, // "ok", "error", "cached"
	)

	// Geocoding metrics.

	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoloop_geocode_lookups_total",
			Help: "Reverse geocode lookups by outcome",
		},
		[]string{"outcome"}, // "hit", "miss", "negative", "error"
	)
)
