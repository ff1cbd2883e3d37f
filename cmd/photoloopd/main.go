// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Command photoloopd runs the photo-frame engine: source sync, catalog,
// playlist, schedule and the display tick loop, all under one supervisor
// tree. The renderer, album inspector, face detector and geocoding
// provider are external collaborators; this binary wires whatever
// implementations the build provides (see collaborators.go) and runs
// headless without them.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/photoloop/photoloop/internal/annotate"
	"github.com/photoloop/photoloop/internal/catalog"
	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/control"
	"github.com/photoloop/photoloop/internal/display"
	"github.com/photoloop/photoloop/internal/geocode"
	"github.com/photoloop/photoloop/internal/ingest"
	"github.com/photoloop/photoloop/internal/lifecycle"
	"github.com/photoloop/photoloop/internal/logging"
	"github.com/photoloop/photoloop/internal/metadata"
	"github.com/photoloop/photoloop/internal/metrics"
	"github.com/photoloop/photoloop/internal/playlist"
	"github.com/photoloop/photoloop/internal/schedule"
	"github.com/photoloop/photoloop/internal/source"
	"github.com/photoloop/photoloop/internal/supervisor"
	"github.com/photoloop/photoloop/internal/syncer"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: search photoloop.yaml, /etc/photoloop/)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		logging.Fatal().Str("dir", cfg.Cache.Dir).Err(err).Msg("failed to create cache directory")
	}

	store, err := catalog.Open(cfg.CatalogPath(), cfg.Fingerprint())
	if err != nil {
		if errors.Is(err, catalog.ErrCorrupt) {
			logging.Warn().Err(err).Msg("catalog was corrupt, starting with an empty library")
		} else {
			logging.Fatal().Err(err).Msg("failed to open catalog")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// External collaborators; each may be absent in a headless build.
	renderer := newRenderer(cfg)
	inspector := newAlbumInspector(cfg)
	detector := newFaceDetector(cfg)
	saliency, aesthetic := newCropAdvisors(cfg)

	var geocoder *geocode.CachingGeocoder
	if cfg.Geocode.Enabled && cfg.Overlay.ShowLocation {
		geocoder = geocode.New(cfg.GeocodeCachePath(), newReverseGeocoder(cfg))
	}

	annotator := annotate.New(store, detector, geocoder, cfg.Faces.MinConfidence, renderer.NotifyEntryUpdated)
	acquirer := ingest.New(cfg.Acquisition, cfg.Cache.Dir, metadata.NewImagemetaExtractor())
	registry := control.NewRegistry(cfg.Sources, inspector)
	pl := playlist.NewEngine(store, cfg.Playlist)
	pl.SetSourceFilter(registry.EnabledNames)
	disp := display.NewEngine(store, annotator, saliency, aesthetic, cfg)
	enforcer := syncer.NewEnforcer(store, cfg.Cache.MaxBytes)
	coordinator := syncer.NewCoordinator(store, acquirer, pl, enforcer, registry.Adapters)
	sched := schedule.NewEngine(cfg.Schedule)
	orchestrator := lifecycle.NewOrchestrator(store, pl, disp, sched, annotator, renderer, registry.HasEnabled)
	watcher := source.NewWatcher(registry.LocalRoots())
	syncScheduler := lifecycle.NewSyncScheduler(coordinator, watcher, cfg.Sync)

	svc := control.NewService(ctx, store, registry, coordinator, orchestrator, sched, pl, disp, *configPath)
	go reloadOnSIGHUP(ctx, svc)

	// The library survives restarts; show it before the first sync lands.
	pl.Rebuild()

	tree := supervisor.NewTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	tree.AddMediaService(syncScheduler)
	tree.AddMediaService(watcher)
	tree.AddDisplayService(orchestrator)
	if cfg.Metrics.Enabled {
		tree.AddDisplayService(metrics.NewServer(cfg.Metrics.Listen))
	}

	logging.Info().Int("sources", len(cfg.Sources)).Str("cache", cfg.Cache.Dir).Msg("photoloop started")
	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree exited")
	}

	if geocoder != nil {
		if err := geocoder.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to flush geocode cache")
		}
	}
	if err := store.Flush(); err != nil {
		logging.Warn().Err(err).Msg("failed to flush catalog on shutdown")
	}
	logging.Info().Msg("photoloop stopped")
}

// reloadOnSIGHUP applies config changes on SIGHUP, the conventional
// reload signal for a long-lived daemon.
func reloadOnSIGHUP(ctx context.Context, svc *control.Service) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := svc.Control(ctx, "reload_config"); err != nil {
				logging.Warn().Err(err).Msg("config reload failed")
			}
		}
	}
}
