// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package models

import (
	"fmt"
	"strings"
	"time"
)

// Tier classifies a card by how grounding it is. Batch assembly allocates
// slots per tier and decays wire over the life of a scrolling session.
type Tier string

const (
	// TierWire is external novelty: news, link aggregators, fresh uploads.
	TierWire Tier = "wire"
	// TierLibrary is curated deep content: saved channels, passages, collections.
	TierLibrary Tier = "library"
	// TierScrapbook is personal memory: photos, journal entries, on-this-day.
	TierScrapbook Tier = "scrapbook"
	// TierCompass is grounding action: tasks, habit checks, reflections.
	TierCompass Tier = "compass"
)

// Tiers lists the four canonical tiers in interleave order.
var Tiers = []Tier{TierWire, TierLibrary, TierScrapbook, TierCompass}

// ParseTier returns the canonical tier for s, or false if s is not one of
// the four tier names. Matching is case-insensitive.
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToLower(s)) {
	case TierWire:
		return TierWire, true
	case TierLibrary:
		return TierLibrary, true
	case TierScrapbook:
		return TierScrapbook, true
	case TierCompass:
		return TierCompass, true
	default:
		return "", false
	}
}

// Valid reports whether t is one of the four canonical tiers.
func (t Tier) Valid() bool {
	_, ok := ParseTier(string(t))
	return ok
}

// FeedItem is the universal card. Every adapter normalizes its native
// records into this shape; the assembler never sees adapter-native types.
//
// ID is the compound id "{source}:{localId}" and is stable across requests:
// the same id always names the same underlying entity within a session.
type FeedItem struct {
	ID          string       `json:"id"`
	Source      string       `json:"source"`
	Tier        Tier         `json:"tier"`
	Title       string       `json:"title"`
	Body        string       `json:"body,omitempty"`
	Image       string       `json:"image,omitempty"`
	Link        string       `json:"link,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
	Priority    int          `json:"priority"`
	Meta        Meta         `json:"meta,omitempty"`
	Interaction *Interaction `json:"interaction,omitempty"`

	// Sections is populated only on detail responses, never on list items.
	Sections []DetailSection `json:"sections,omitempty"`
}

// CompoundID joins a source type and local id into the canonical item id.
func CompoundID(source, localID string) string {
	return source + ":" + localID
}

// SplitCompoundID splits a compound id on the first colon. ok is false when
// the id contains no colon.
func SplitCompoundID(id string) (source, localID string, ok bool) {
	idx := strings.Index(id, ":")
	if idx < 0 {
		return "", "", false
	}
	return id[:idx], id[idx+1:], true
}

// Validate checks the normalization contract every adapter must honor:
// compound id prefixed by the source, a canonical tier, and a timestamp.
func (it *FeedItem) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("feed item: empty id")
	}
	src, _, ok := SplitCompoundID(it.ID)
	if !ok || src != it.Source {
		return fmt.Errorf("feed item %q: id is not prefixed by source %q", it.ID, it.Source)
	}
	if !it.Tier.Valid() {
		return fmt.Errorf("feed item %q: invalid tier %q", it.ID, it.Tier)
	}
	if it.Timestamp.IsZero() {
		return fmt.Errorf("feed item %q: zero timestamp", it.ID)
	}
	return nil
}

// Clone returns a copy whose Meta map is independent of the receiver.
// Assembled items must not be mutated after assembly; callers that need to
// stamp meta (query names, bridge stats) clone first.
func (it *FeedItem) Clone() *FeedItem {
	out := *it
	out.Meta = it.Meta.Clone()
	return &out
}
