// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Command server runs the feed engine: config, adapters, feed services,
// bridge, HTTP API, and the supervision tree, shut down together on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/boonware/boonscroll/internal/api"
	"github.com/boonware/boonscroll/internal/bridge"
	"github.com/boonware/boonscroll/internal/config"
	"github.com/boonware/boonscroll/internal/detail"
	"github.com/boonware/boonscroll/internal/feed"
	"github.com/boonware/boonscroll/internal/logging"
	"github.com/boonware/boonscroll/internal/source"
	"github.com/boonware/boonscroll/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Bool("bridge", cfg.Bridge.Enabled).
		Msg("starting boonscroll")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, resolver, err := buildSources(cfg)
	if err != nil {
		return err
	}

	scroll := config.NewScrollLoader(cfg.Scroll, cfg.Users.Dir)
	pools := feed.NewPoolManager(registry, cfg.Fetch)
	feedSvc := feed.NewService(scroll, pools, registry, cfg.Fetch)

	bridgeSvc, err := buildBridge(ctx, cfg)
	if err != nil {
		return err
	}
	detailSvc := detail.NewAssembler(resolver, bridgeSvc, cfg.Bridge.Eager)

	handlers := api.NewHandlers(feedSvc, detailSvc, bridgeSvc, resolver, scroll, registry)
	router := api.NewRouter(handlers, cfg.API)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(
		slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		supervisor.DefaultTreeConfig(),
	)
	tree.Add(&supervisor.HTTPService{Server: server, ShutdownTimeout: cfg.Server.Timeout})
	tree.Add(&supervisor.SessionEvictor{
		Evict:    pools.EvictIdle,
		IdleTTL:  cfg.Sessions.IdleTTL,
		Interval: cfg.Sessions.SweepInterval,
	})
	if bridgeSvc.Enabled() {
		tree.Add(&supervisor.CacheJanitor{
			Name:     "bridge-stats",
			Sweep:    bridgeSvc.SweepStats,
			Interval: cfg.Bridge.StatsTTL,
		})
	}

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("shutdown complete")
	return nil
}

// buildSources registers every adapter and builds the id resolver over
// them. Local-store adapters read their file locations from the default
// scroll policy's source params.
func buildSources(cfg *config.Config) (*source.Registry, *source.Resolver, error) {
	registry := source.NewRegistry(source.GuardConfig{
		FetchTimeout:      cfg.Fetch.Timeout,
		RequestsPerSecond: 5,
	})

	collections := source.NewCollection(source.CollectionConfig{
		Dir: scrollParam(cfg, "collection", "dir"),
	})

	adapters := []source.Adapter{
		source.NewReddit(source.RedditConfig{}),
		source.NewHackerNews(source.HackerNewsConfig{}),
		source.NewYouTube(source.YouTubeConfig{}),
		source.NewFreshRSS(),
		source.NewImmich(),
		source.NewJournal(source.JournalConfig{Path: scrollParam(cfg, "journal", "path")}),
		source.NewTasks(source.TasksConfig{Path: scrollParam(cfg, "tasks", "path")}),
		source.NewHabits(source.HabitsConfig{Path: scrollParam(cfg, "habits", "path")}),
		source.NewScripture(source.ScriptureConfig{Dir: scrollParam(cfg, "scripture", "dir")}),
		collections,
	}
	for _, a := range adapters {
		if err := registry.Register(a); err != nil {
			return nil, nil, fmt.Errorf("register %s: %w", a.SourceType(), err)
		}
	}

	// Bare numeric ids read naturally as Hacker News stories; everything
	// else without a prefix stays unresolved.
	fallbacks := []source.FallbackPattern{
		{Regex: regexp.MustCompile(`^\d+$`), SourceType: "hackernews"},
	}
	resolver, err := source.NewResolver(registry, fallbacks, "")
	if err != nil {
		return nil, nil, fmt.Errorf("build resolver: %w", err)
	}
	collections.SetResolver(resolver)

	return registry, resolver, nil
}

// buildBridge picks the relay backing: a relay pool when relays are
// configured, the in-process store otherwise (single-machine mode).
func buildBridge(ctx context.Context, cfg *config.Config) (*bridge.Service, error) {
	var relay bridge.Relay
	if cfg.Bridge.Enabled && len(cfg.Bridge.Relays) > 0 {
		relay = bridge.NewPoolRelay(ctx, cfg.Bridge.Relays)
	} else {
		relay = bridge.NewMemoryRelay()
	}
	svc, err := bridge.NewService(relay, cfg.Bridge)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func scrollParam(cfg *config.Config, sourceID, key string) string {
	if s, ok := cfg.Scroll.Sources[sourceID]; ok {
		return s.Params[key]
	}
	return ""
}
