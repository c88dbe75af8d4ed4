// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package feed assembles the scroll: per-user candidate pools with fair
// paging across sources, the four-tier allocation policy with wire decay,
// filtered single-source views, and the batch orchestration behind
// GET /feed/scroll.
package feed
