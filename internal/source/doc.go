// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package source defines the SourceAdapter contract and its registry, the
// compound-id resolver, and the adapter implementations that normalize
// external and personal origins into FeedItems.
//
// Adapters are registered once at startup. Registration wraps each adapter
// in a guard that applies the per-call fetch timeout, an upstream rate
// limit, and a circuit breaker, so a failing origin degrades to zero items
// instead of stalling batch assembly.
//
// Adapters are shared across users and hold no per-user state; everything
// user-specific arrives in the FetchQuery.
package source
