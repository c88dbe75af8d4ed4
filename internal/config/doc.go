// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package config loads engine configuration with Koanf v2 layered sources
// (struct defaults < YAML file < environment variables) and serves merged
// per-user scroll configurations.
//
// The scroll configuration drives tier assembly: per-tier allocations,
// enabled sources, wire decay horizon, aliases, and named queries. User
// overlays live as YAML files under users.dir and are re-read when their
// mtime changes (pull-on-read hot reload, no watcher).
package config
