// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package logging provides centralized zerolog-based logging for the feed
// engine.
//
// All components log through this package rather than instantiating their
// own loggers, so output format, level, and context propagation stay
// uniform:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("source", "reddit").Msg("pool refill complete")
//	logging.Ctx(ctx).Warn().Err(err).Msg("adapter fetch failed")
//
// Ctx attaches the request id carried in the context so one request's log
// lines correlate across the assembly pipeline.
package logging
