// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boonware/boonscroll/internal/models"
)

func newTestLoader(t *testing.T) (*ScrollLoader, string) {
	t.Helper()
	dir := t.TempDir()
	defaults := DefaultConfig().Scroll
	defaults.Aliases = map[string]string{"hn": "hackernews"}
	return NewScrollLoader(defaults, dir), dir
}

func TestScrollLoaderDefaults(t *testing.T) {
	l, _ := newTestLoader(t)

	sc, err := l.Load("boone")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.BatchSize != 10 || sc.WireDecayBatches != 10 {
		t.Errorf("algorithm = %d/%d, want defaults 10/10", sc.BatchSize, sc.WireDecayBatches)
	}
	if len(sc.Tiers) != 4 {
		t.Errorf("%d tiers, want 4", len(sc.Tiers))
	}
	if sc.Aliases["hn"] != "hackernews" {
		t.Errorf("aliases = %v", sc.Aliases)
	}

	// No overlay file: the merged config is cached and shared.
	again, err := l.Load("boone")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again != sc {
		t.Error("defaults-only config not served from cache")
	}
}

func TestScrollLoaderOverlay(t *testing.T) {
	l, dir := newTestLoader(t)
	overlay := `algorithm:
  batch_size: 6
aliases:
  verses: morning-verses
grounding:
  freshrss: library
sources:
  freshrss:
    enabled: true
`
	path := filepath.Join(dir, "boone.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	sc, err := l.Load("boone")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.BatchSize != 6 {
		t.Errorf("batch size %d, want overlay value 6", sc.BatchSize)
	}
	// Untouched algorithm keys keep their defaults.
	if sc.WireDecayBatches != 10 {
		t.Errorf("decay horizon %d, want default 10", sc.WireDecayBatches)
	}
	if sc.Aliases["verses"] != "morning-verses" {
		t.Errorf("aliases = %v", sc.Aliases)
	}
	// The grounding section folds into the source's tier override.
	src, ok := sc.Sources["freshrss"]
	if !ok || !src.Enabled || src.Tier != models.TierLibrary {
		t.Errorf("freshrss settings = %+v", src)
	}

	// Same mtime serves the cached merge.
	again, err := l.Load("boone")
	if err != nil {
		t.Fatalf("cached Load: %v", err)
	}
	if again != sc {
		t.Error("unchanged overlay not served from cache")
	}

	// A touched overlay is re-read.
	if err := os.WriteFile(path, []byte("algorithm:\n  batch_size: 7\n"), 0o644); err != nil {
		t.Fatalf("rewrite overlay: %v", err)
	}
	if err := os.Chtimes(path, time.Now(), time.Now().Add(2*time.Second)); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	updated, err := l.Load("boone")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if updated.BatchSize != 7 {
		t.Errorf("batch size %d after rewrite, want 7", updated.BatchSize)
	}
}

func TestScrollLoaderRejectsBadOverlay(t *testing.T) {
	l, dir := newTestLoader(t)
	overlay := "tiers:\n  firehose:\n    allocation: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "boone.yaml"), []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	if _, err := l.Load("boone"); err == nil {
		t.Fatal("unknown tier in overlay accepted")
	}
}

func TestSaveOverlayRoundTrip(t *testing.T) {
	l, dir := newTestLoader(t)

	fc := &ScrollFileConfig{
		Algorithm: AlgorithmConfig{BatchSize: 8, WireDecayBatches: 5},
		Aliases:   map[string]string{"mix": "collection"},
	}
	if err := l.SaveOverlay("boone", fc); err != nil {
		t.Fatalf("SaveOverlay: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "boone.yaml")); err != nil {
		t.Fatalf("overlay file: %v", err)
	}

	sc, err := l.Load("boone")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.BatchSize != 8 || sc.WireDecayBatches != 5 {
		t.Errorf("algorithm = %d/%d, want saved 8/5", sc.BatchSize, sc.WireDecayBatches)
	}
	if sc.Aliases["mix"] != "collection" {
		t.Errorf("aliases = %v", sc.Aliases)
	}

	// Invalid overlays never reach disk.
	bad := &ScrollFileConfig{Algorithm: AlgorithmConfig{WireDecayBatches: 0}}
	if err := l.SaveOverlay("boone", bad); err == nil {
		t.Fatal("invalid overlay saved")
	}
}

func TestOverlayPathIgnoresTraversal(t *testing.T) {
	l, dir := newTestLoader(t)
	got := l.overlayPath("../../etc/passwd")
	if got != filepath.Join(dir, "passwd.yaml") {
		t.Errorf("overlay path %q escapes the user dir", got)
	}
}

func TestExtractColors(t *testing.T) {
	l, _ := newTestLoader(t)
	sc, err := l.Load("boone")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	colors := ExtractColors(sc)
	if colors["wire"] != "#d94f4f" || colors["compass"] != "#4fd98e" {
		t.Errorf("colors = %v", colors)
	}
}
