// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package detail turns a compound item id into a complete detail view:
// the owning adapter's card and sections, a synthesized fallback when
// the adapter has no richer view, and bridge stats for externally
// linked items. A detail response is whole or an error, never partial.
package detail

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/boonware/boonscroll/internal/bridge"
	"github.com/boonware/boonscroll/internal/logging"
	"github.com/boonware/boonscroll/internal/models"
	"github.com/boonware/boonscroll/internal/source"
)

// Assembler builds detail views.
type Assembler struct {
	resolver *source.Resolver
	bridge   *bridge.Service

	// eager creates bridge anchors at detail time instead of on first
	// comment (bridge.eager).
	eager bool
}

// NewAssembler creates the assembler. bridgeSvc may be disabled; detail
// views then simply carry no bridge section.
func NewAssembler(resolver *source.Resolver, bridgeSvc *bridge.Service, eager bool) *Assembler {
	return &Assembler{resolver: resolver, bridge: bridgeSvc, eager: eager}
}

// GetDetail resolves the id and assembles the card plus the full
// section list. meta is an optional hint for adapters whose items are
// not individually addressable upstream; when absent, the card's own
// meta serves.
func (a *Assembler) GetDetail(ctx context.Context, itemID string, meta models.Meta) (*models.FeedItem, []models.DetailSection, error) {
	resolved, err := a.resolver.Resolve(itemID)
	if err != nil {
		return nil, nil, err
	}
	canonicalID := models.CompoundID(resolved.Adapter.SourceType(), resolved.LocalID)

	item, itemErr := resolved.Adapter.GetItem(ctx, resolved.LocalID)
	if itemErr != nil && !errors.Is(itemErr, source.ErrNotFound) {
		return nil, nil, fmt.Errorf("detail %s: %w", itemID, itemErr)
	}
	if len(meta) == 0 && item != nil {
		meta = item.Meta
	}

	sections, err := resolved.Adapter.GetDetail(ctx, resolved.LocalID, meta)
	switch {
	case errors.Is(err, source.ErrNotFound) && item != nil:
		// No richer view: synthesize from the list card.
		sections = source.FallbackDetail(item)
	case err != nil:
		return nil, nil, fmt.Errorf("detail %s: %w", itemID, err)
	}

	if item == nil {
		// The card is gone upstream but the detail view still resolved
		// (meta-backed adapters). Serve a skeleton card.
		item = &models.FeedItem{
			ID:     canonicalID,
			Source: resolved.Adapter.SourceType(),
			Tier:   resolved.Adapter.DefaultTier(),
			Title:  meta.GetString("title"),
			Meta:   meta,
		}
	}

	if a.eager {
		a.ensureBridge(ctx, item)
	}
	if stats, bridgeSection, ok := a.bridgeStats(ctx, item); ok {
		item = item.Clone()
		if item.Meta == nil {
			item.Meta = models.Meta{}
		}
		item.Meta[models.MetaBridgeOK] = models.MetaBool(true)
		item.Meta[models.MetaBridgeCount] = models.MetaInt(int64(stats.CommentCount))
		sections = append(sections, bridgeSection)
	}
	return item, sections, nil
}

// ensureBridge creates the item's anchor at detail time. Failures
// degrade to the lazy first-comment path.
func (a *Assembler) ensureBridge(ctx context.Context, item *models.FeedItem) {
	if a.bridge == nil || !a.bridge.Enabled() {
		return
	}
	if _, err := a.bridge.GetOrCreateBridge(ctx, item); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("item", item.ID).Msg("eager bridge create failed")
	}
}

// bridgeStats builds the bridge summary section. Bridge failures
// degrade to no section; the view still serves.
func (a *Assembler) bridgeStats(ctx context.Context, item *models.FeedItem) (bridge.Stats, models.DetailSection, bool) {
	if a.bridge == nil || !a.bridge.Enabled() {
		return bridge.Stats{}, models.DetailSection{}, false
	}

	stats, err := a.bridge.GetBridgeStats(ctx, item)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("item", item.ID).Msg("bridge stats unavailable")
		return bridge.Stats{}, models.DetailSection{}, false
	}
	if !stats.Exists {
		return bridge.Stats{}, models.DetailSection{}, false
	}

	entries := []models.LabeledValue{
		{Label: "Bridge comments", Value: strconv.Itoa(stats.CommentCount)},
	}
	if stats.LastActivity != nil {
		entries = append(entries, models.LabeledValue{
			Label: "Last activity",
			Value: stats.LastActivity.Format("2006-01-02 15:04"),
		})
	}
	entries = append(entries, models.LabeledValue{Label: "Anchor", Value: stats.AnchorID})
	return stats, models.DetailSection{Kind: models.SectionStats, Entries: entries}, true
}
