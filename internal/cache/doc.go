// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package cache provides the small in-process caches the engine relies on:
// a TTL map used for bridge stats and detail responses, and an LRU used for
// duplicate-id suppression during pool refills.
//
// Both are safe for concurrent use. Neither persists anything; the engine
// is stateless beyond in-memory sessions.
package cache
