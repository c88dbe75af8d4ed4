// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
service.go - batch orchestration

GetNextBatch is the engine's single feed entry point. A request either
takes the filtered path (one tier/source/query, timestamp order, no
tier assembly) or the tier path (pool refill, wire decay, interleave).
An unresolvable filter falls through to the tier path rather than
erroring; the scroll keeps scrolling.
*/

package feed

import (
	"context"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/boonware/boonscroll/internal/config"
	"github.com/boonware/boonscroll/internal/logging"
	"github.com/boonware/boonscroll/internal/metrics"
	"github.com/boonware/boonscroll/internal/models"
	"github.com/boonware/boonscroll/internal/source"
)

// BatchOptions carries the optional request knobs of GET /feed/scroll.
type BatchOptions struct {
	// Cursor continues a session; empty or "start" resets it.
	Cursor string

	// Limit overrides the configured batch size, capped at MaxBatch.
	Limit int

	// Filter narrows the batch to one tier, source, or named query.
	Filter string

	// Focus narrows the tier path to a single tier without bypassing
	// assembly order.
	Focus string

	// Sources narrows the tier path to the named sources.
	Sources []string

	// NoCache discards the session before serving.
	NoCache bool
}

// Batch is one served scroll page.
type Batch struct {
	Items   []*models.FeedItem `json:"items"`
	HasMore bool               `json:"hasMore"`
	Colors  map[string]string  `json:"colors,omitempty"`
	Cursor  string             `json:"cursor"`
}

// Service orchestrates scroll batches.
type Service struct {
	scroll    *config.ScrollLoader
	pools     *PoolManager
	assembler *TierAssembler
	registry  *source.Registry
	maxBatch  int
}

// NewService creates the feed service.
func NewService(scroll *config.ScrollLoader, pools *PoolManager, registry *source.Registry, fetchCfg config.FetchConfig) *Service {
	return &Service{
		scroll:    scroll,
		pools:     pools,
		assembler: NewTierAssembler(),
		registry:  registry,
		maxBatch:  fetchCfg.MaxBatch,
	}
}

// GetNextBatch serves the next scroll page for a user.
func (s *Service) GetNextBatch(ctx context.Context, user string, opts BatchOptions) (*Batch, error) {
	start := time.Now()
	defer func() { metrics.BatchAssemblyDuration.Observe(time.Since(start).Seconds()) }()

	sc, err := s.scroll.Load(user)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = sc.BatchSize
	}
	if limit > s.maxBatch {
		limit = s.maxBatch
	}

	if opts.NoCache {
		s.pools.Reset(user)
	}
	c, hasCursor := decodeCursor(opts.Cursor)
	if hasCursor && !s.pools.SessionMatches(user, c.Session) {
		// Stale cursor: the session it names is gone. Start over rather
		// than serving a counter from someone else's scroll.
		hasCursor = false
	}

	if f := s.resolveFilter(sc, opts.Filter); f != nil {
		return s.filteredBatch(ctx, user, sc, f, limit, hasCursor)
	}
	if opts.Filter != "" {
		logging.Ctx(ctx).Debug().Str("filter", opts.Filter).Msg("unresolvable filter ignored")
	}
	return s.tierBatch(ctx, user, sc, opts, limit, hasCursor)
}

// resolveFilter builds the per-request resolver over the user's config
// and resolves the expression.
func (s *Service) resolveFilter(sc *models.ScrollConfig, expression string) *Filter {
	if expression == "" {
		return nil
	}
	queryNames := make([]string, 0, len(sc.Queries))
	for name := range sc.Queries {
		queryNames = append(queryNames, name)
	}
	resolver := NewFilterResolver(s.registry.SourceTypes(), queryNames, sc.Aliases)
	return resolver.Resolve(expression)
}

// filteredBatch serves the filtered path: fresh pool, predicate,
// timestamp order, slice, mark seen. Filtered views bypass tier
// assembly and do not advance the batch counter.
func (s *Service) filteredBatch(ctx context.Context, user string, sc *models.ScrollConfig, f *Filter, limit int, hasCursor bool) (*Batch, error) {
	if !hasCursor {
		s.pools.Reset(user)
	}

	pool, err := s.pools.FilteredPool(ctx, user, sc, f)
	if err != nil {
		return nil, err
	}

	items := applyFilter(pool, f)
	if f.SourceType != PseudoEntropy {
		sort.SliceStable(items, func(a, b int) bool {
			if !items[a].Timestamp.Equal(items[b].Timestamp) {
				return items[a].Timestamp.After(items[b].Timestamp)
			}
			return items[a].ID < items[b].ID
		})
	}
	if len(items) > limit {
		items = items[:limit]
	}

	s.finishBatch(ctx, user, items)
	metrics.BatchesAssembled.WithLabelValues("filtered").Inc()

	sessionID, batch := s.pools.Snapshot(user)
	return &Batch{
		Items:   items,
		HasMore: s.pools.HasMore(user, sc),
		Colors:  config.ExtractColors(sc),
		Cursor:  encodeCursor(sessionID, batch),
	}, nil
}

// applyFilter evaluates the filter predicate, including the two
// pseudo-sources: headlines rolls up the wire tier, entropy samples the
// pool uniformly.
func applyFilter(pool []*models.FeedItem, f *Filter) []*models.FeedItem {
	if f.Type == FilterSource {
		switch f.SourceType {
		case PseudoHeadlines:
			wire := &Filter{Type: FilterTier, Tier: models.TierWire}
			return applyFilter(pool, wire)
		case PseudoEntropy:
			sampled := make([]*models.FeedItem, len(pool))
			copy(sampled, pool)
			rand.Shuffle(len(sampled), func(a, b int) {
				sampled[a], sampled[b] = sampled[b], sampled[a]
			})
			return sampled
		}
	}
	out := make([]*models.FeedItem, 0, len(pool))
	for _, item := range pool {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// tierBatch serves the tier path: pool, decayed allocations, interleave.
func (s *Service) tierBatch(ctx context.Context, user string, sc *models.ScrollConfig, opts BatchOptions, limit int, hasCursor bool) (*Batch, error) {
	if !hasCursor {
		s.pools.Reset(user)
	}

	pool, err := s.pools.GetPool(ctx, user, sc)
	if err != nil {
		return nil, err
	}
	pool = narrowPool(pool, opts)

	batchNumber := s.pools.GetBatchNumber(user)
	items := s.assembler.Assemble(pool, sc, batchNumber, limit)

	if len(items) > 0 {
		s.pools.AdvanceBatch(user)
	}
	s.finishBatch(ctx, user, items)

	metrics.BatchesAssembled.WithLabelValues("tier").Inc()
	observeBatchTiers(items)
	logging.Ctx(ctx).Debug().
		Str("user", user).
		Int("batch", batchNumber).
		Int("items", len(items)).
		Float64("decay", DecayFactor(batchNumber, sc.WireDecayBatches)).
		Msg("tier batch assembled")

	sessionID, batch := s.pools.Snapshot(user)
	return &Batch{
		Items:   items,
		HasMore: s.pools.HasMore(user, sc),
		Colors:  config.ExtractColors(sc),
		Cursor:  encodeCursor(sessionID, batch),
	}, nil
}

// finishBatch marks served items seen and fans out consumption to
// opted-in adapters.
func (s *Service) finishBatch(ctx context.Context, user string, items []*models.FeedItem) {
	if len(items) == 0 {
		return
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	s.pools.MarkSeen(user, ids)
	s.pools.MarkConsumed(ctx, user, ids)
}

// narrowPool applies the focus/sources request knobs before assembly.
func narrowPool(pool []*models.FeedItem, opts BatchOptions) []*models.FeedItem {
	focus := models.Tier(opts.Focus)
	if !focus.Valid() && len(opts.Sources) == 0 {
		return pool
	}
	allowed := make(map[string]bool, len(opts.Sources))
	for _, src := range opts.Sources {
		allowed[src] = true
	}
	out := make([]*models.FeedItem, 0, len(pool))
	for _, item := range pool {
		if focus.Valid() && item.Tier != focus {
			continue
		}
		if len(allowed) > 0 && !allowed[item.Source] {
			continue
		}
		out = append(out, item)
	}
	return out
}

func observeBatchTiers(items []*models.FeedItem) {
	counts := make(map[models.Tier]int, len(models.Tiers))
	for _, item := range items {
		counts[item.Tier]++
	}
	for _, tier := range models.Tiers {
		metrics.BatchItems.WithLabelValues(string(tier)).Observe(float64(counts[tier]))
	}
}

// HandleResponse dispatches a POST /feed/respond interaction to the
// owning adapter.
func (s *Service) HandleResponse(ctx context.Context, user, itemID, response string, reqContext map[string]string) (map[string]interface{}, error) {
	st, localID, ok := models.SplitCompoundID(itemID)
	if !ok {
		return nil, source.ErrUnresolved
	}
	adapter, registered := s.registry.Get(st)
	if !registered {
		return nil, source.ErrUnresolved
	}
	responder, accepts := source.AsResponder(adapter)
	if !accepts {
		return nil, source.ErrNotFound
	}
	result, err := responder.HandleResponse(ctx, user, localID, response, reqContext)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = map[string]interface{}{}
	}
	result["itemId"] = itemID
	return result, nil
}
