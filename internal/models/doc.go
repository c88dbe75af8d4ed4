// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package models defines the data types shared across the feed engine:
// the universal FeedItem card, the tagged Meta value map, interaction
// descriptors, detail sections, and the per-user scroll configuration.
//
// Types in this package are plain data carriers. They hold no behavior
// beyond construction, validation, and JSON shaping; all assembly logic
// lives in the feed, source, and bridge packages.
package models
