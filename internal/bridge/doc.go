// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package bridge anchors external feed items on Nostr so comments can
// thread across sources. An anchor is a public kind-1 note quoting the
// item, tagged so any other instance can discover it; comments are
// NIP-10 replies under the anchor.
package bridge
