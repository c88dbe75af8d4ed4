// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package metrics defines the Prometheus collectors the engine exposes on
// /metrics: adapter fetch behavior, pool and session state, batch
// assembly, HTTP latency, and bridge activity.
package metrics
