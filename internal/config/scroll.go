// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/boonware/boonscroll/internal/logging"
	"github.com/boonware/boonscroll/internal/models"
)

// ScrollLoader serves merged per-user scroll configurations: the engine
// defaults overlaid with the user's own "<users.dir>/<user>.yaml" file.
//
// Loaded configs are cached per user and re-read when the overlay file's
// mtime changes. That gives hot reload without a watcher: a stat per Load
// call, a parse only on change.
type ScrollLoader struct {
	defaults ScrollFileConfig
	dir      string

	mu    sync.Mutex
	cache map[string]*scrollCacheEntry
}

type scrollCacheEntry struct {
	config  *models.ScrollConfig
	modTime time.Time
	// missing marks users with no overlay file, so defaults are served
	// without re-stating every request path.
	missing bool
}

// NewScrollLoader builds a loader over the given defaults and user dir.
func NewScrollLoader(defaults ScrollFileConfig, dir string) *ScrollLoader {
	return &ScrollLoader{
		defaults: defaults,
		dir:      dir,
		cache:    make(map[string]*scrollCacheEntry),
	}
}

// Load returns the merged scroll config for user. The returned config is
// shared and must be treated as immutable by callers.
func (l *ScrollLoader) Load(user string) (*models.ScrollConfig, error) {
	path := l.overlayPath(user)

	l.mu.Lock()
	defer l.mu.Unlock()

	info, statErr := os.Stat(path)
	if cached, ok := l.cache[user]; ok {
		switch {
		case statErr != nil && cached.missing:
			return cached.config, nil
		case statErr == nil && !cached.missing && info.ModTime().Equal(cached.modTime):
			return cached.config, nil
		}
	}

	merged, err := l.merge(user, path, statErr == nil)
	if err != nil {
		return nil, err
	}

	entry := &scrollCacheEntry{config: merged, missing: statErr != nil}
	if statErr == nil {
		entry.modTime = info.ModTime()
	}
	l.cache[user] = entry
	return merged, nil
}

// SaveOverlay validates and writes the user's scroll overlay file, then
// drops the cached merge so the next Load sees it.
func (l *ScrollLoader) SaveOverlay(user string, fc *ScrollFileConfig) error {
	if err := validateScroll(fc); err != nil {
		return fmt.Errorf("scroll overlay for %s: %w", user, err)
	}
	k := koanf.New(".")
	if err := k.Load(structs.Provider(fc, "koanf"), nil); err != nil {
		return fmt.Errorf("scroll overlay for %s: %w", user, err)
	}
	raw, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("scroll overlay for %s: %w", user, err)
	}
	path := l.overlayPath(user)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("scroll overlay dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("scroll overlay %s: %w", path, err)
	}
	l.Invalidate(user)
	return nil
}

// Invalidate drops the cached config for user (nocache=1 path).
func (l *ScrollLoader) Invalidate(user string) {
	l.mu.Lock()
	delete(l.cache, user)
	l.mu.Unlock()
}

func (l *ScrollLoader) overlayPath(user string) string {
	// filepath.Base guards against path traversal in the user name.
	return filepath.Join(l.dir, filepath.Base(user)+".yaml")
}

func (l *ScrollLoader) merge(user, path string, overlayExists bool) (*models.ScrollConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(&l.defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("scroll defaults for %s: %w", user, err)
	}
	if overlayExists {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("scroll overlay %s: %w", path, err)
		}
		logging.Debug().Str("user", user).Str("path", path).Msg("loaded scroll overlay")
	}

	fileCfg := ScrollFileConfig{}
	if err := k.Unmarshal("", &fileCfg); err != nil {
		return nil, fmt.Errorf("scroll config for %s: %w", user, err)
	}
	if err := validateScroll(&fileCfg); err != nil {
		return nil, fmt.Errorf("scroll config for %s: %w", user, err)
	}
	return flattenScroll(&fileCfg), nil
}

// flattenScroll converts the on-disk shape into the runtime ScrollConfig,
// folding the grounding section into per-source tier overrides.
func flattenScroll(fc *ScrollFileConfig) *models.ScrollConfig {
	sc := &models.ScrollConfig{
		BatchSize:        fc.Algorithm.BatchSize,
		WireDecayBatches: fc.Algorithm.WireDecayBatches,
		Tiers:            make(map[models.Tier]models.TierConfig, len(fc.Tiers)),
		Sources:          make(map[string]models.SourceSettings, len(fc.Sources)),
		Aliases:          fc.Aliases,
		Queries:          fc.Queries,
		Extra:            fc.Extra,
	}
	for name, tc := range fc.Tiers {
		if tier, ok := models.ParseTier(name); ok {
			sc.Tiers[tier] = tc
		}
	}
	for id, src := range fc.Sources {
		sc.Sources[id] = src
	}
	for id, tierName := range fc.Grounding {
		tier, ok := models.ParseTier(tierName)
		if !ok {
			continue
		}
		src := sc.Sources[id]
		src.Tier = tier
		sc.Sources[id] = src
	}
	return sc
}

// ExtractColors builds the palette handed to the client on every scroll
// response: tier name to display color.
func ExtractColors(sc *models.ScrollConfig) map[string]string {
	colors := make(map[string]string, len(sc.Tiers))
	for tier, tc := range sc.Tiers {
		if tc.Color != "" {
			colors[string(tier)] = tc.Color
		}
	}
	return colors
}
