// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
pool.go - per-user candidate pool with fair paging

The pool manager owns scroll sessions. A refill tick requests at most
one page per fetch unit (a configured source, or a named query on a
source), so a high-volume source cannot monopolize the pool. Fetches
fan out in parallel; results append in deterministic unit order. A
failing unit contributes nothing, is marked degraded for the session,
and is not retried within the tick.

Calls for the same user serialize on the session lock. Calls for
different users share nothing but the sessions map.
*/

package feed

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/boonware/boonscroll/internal/config"
	"github.com/boonware/boonscroll/internal/logging"
	"github.com/boonware/boonscroll/internal/metrics"
	"github.com/boonware/boonscroll/internal/models"
	"github.com/boonware/boonscroll/internal/source"
)

// PoolManager maintains per-user scroll sessions and their candidate
// pools.
type PoolManager struct {
	registry *source.Registry
	cfg      config.FetchConfig

	mu       sync.Mutex
	sessions map[string]*sessionHandle

	now func() time.Time
}

// sessionHandle pairs a session with its serialization lock. The handle
// lock is held for the whole of a pool operation, including upstream
// fetches, which is what serializes overlapping batches for one user.
type sessionHandle struct {
	mu sync.Mutex
	s  *session
}

// NewPoolManager creates the pool manager.
func NewPoolManager(registry *source.Registry, cfg config.FetchConfig) *PoolManager {
	return &PoolManager{
		registry: registry,
		cfg:      cfg,
		sessions: make(map[string]*sessionHandle),
		now:      time.Now,
	}
}

// fetchUnit is one pageable stream: a configured source, or a named
// query against a source.
type fetchUnit struct {
	key       string
	adapter   source.Adapter
	settings  models.SourceSettings
	query     *models.QuerySettings
	queryName string
}

const queryUnitPrefix = "query:"

// units derives the fetch units for a scroll config in deterministic
// order: enabled sources sorted by id, then named queries sorted by
// name. Units whose adapter is not registered are dropped.
func (pm *PoolManager) units(sc *models.ScrollConfig) []fetchUnit {
	var out []fetchUnit

	sourceIDs := sc.EnabledSources()
	sort.Strings(sourceIDs)
	for _, id := range sourceIDs {
		adapter, ok := pm.registry.Get(id)
		if !ok {
			continue
		}
		out = append(out, fetchUnit{
			key:      id,
			adapter:  adapter,
			settings: sc.Sources[id],
		})
	}

	queryNames := make([]string, 0, len(sc.Queries))
	for name := range sc.Queries {
		queryNames = append(queryNames, name)
	}
	sort.Strings(queryNames)
	for _, name := range queryNames {
		q := sc.Queries[name]
		adapter, ok := pm.registry.Get(q.Source)
		if !ok {
			continue
		}
		out = append(out, fetchUnit{
			key:       queryUnitPrefix + name,
			adapter:   adapter,
			settings:  sc.Sources[q.Source],
			query:     &q,
			queryName: name,
		})
	}
	return out
}

// GetPool returns the user's current unseen candidates, refilling from
// sources when the pool is below the refill threshold.
func (pm *PoolManager) GetPool(ctx context.Context, user string, sc *models.ScrollConfig) ([]*models.FeedItem, error) {
	return pm.pool(ctx, user, sc, pm.cfg.PageSize, nil)
}

// FilteredPool returns a pool for a filtered view: the same machinery
// with a larger page-size hint, narrowed to the units the filter can
// match so unrelated sources are not paged.
func (pm *PoolManager) FilteredPool(ctx context.Context, user string, sc *models.ScrollConfig, f *Filter) ([]*models.FeedItem, error) {
	var only func(fetchUnit) bool
	if f != nil {
		switch f.Type {
		case FilterSource:
			if _, registered := pm.registry.Get(f.SourceType); registered {
				st := f.SourceType
				only = func(u fetchUnit) bool { return u.adapter.SourceType() == st }
			}
		case FilterQuery:
			name := f.QueryName
			only = func(u fetchUnit) bool { return u.queryName == name }
		}
	}
	return pm.pool(ctx, user, sc, pm.cfg.FilteredPageSize, only)
}

func (pm *PoolManager) pool(ctx context.Context, user string, sc *models.ScrollConfig, pageSize int, only func(fetchUnit) bool) ([]*models.FeedItem, error) {
	h := pm.handle(user)
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.s
	s.lastAccess = pm.now()

	units := pm.units(sc)
	if only != nil {
		narrowed := units[:0:0]
		for _, u := range units {
			if only(u) {
				narrowed = append(narrowed, u)
			}
		}
		units = narrowed
	}

	threshold := sc.BatchSize * pm.cfg.RefillMultiple
	if threshold <= 0 {
		threshold = pm.cfg.RefillMultiple
	}
	if len(s.unseen()) < threshold && !s.exhaustedAll(unitKeys(units)) {
		pm.refill(ctx, s, sc, units, pageSize)
	}

	pool := s.unseen()
	metrics.PoolSize.WithLabelValues(user).Set(float64(len(pool)))
	return pool, nil
}

// refill runs one fair-paging tick: one page per live unit, in
// parallel, appended in unit order.
func (pm *PoolManager) refill(ctx context.Context, s *session, sc *models.ScrollConfig, units []fetchUnit, pageSize int) {
	type pageResult struct {
		res source.FetchResult
		err error
	}
	results := make([]pageResult, len(units))

	g, gctx := errgroup.WithContext(ctx)
	for i, unit := range units {
		ps := s.state(unit.key)
		if s.degraded[unit.key] || ps.exhausted {
			continue
		}
		q := source.FetchQuery{
			User:     s.user,
			Settings: unit.settings,
			Query:    unit.query,
			PageSize: pageSizeFor(unit, pageSize),
			Page:     ps.next,
		}
		g.Go(func() error {
			res, err := unit.adapter.Fetch(gctx, q)
			results[i] = pageResult{res: res, err: err}
			return nil // unit failures never fail the tick
		})
	}
	_ = g.Wait()

	for i, unit := range units {
		ps := s.state(unit.key)
		if s.degraded[unit.key] || ps.exhausted {
			continue
		}
		r := results[i]
		if r.err != nil {
			logging.Ctx(ctx).Warn().
				Err(r.err).
				Str("user", s.user).
				Str("unit", unit.key).
				Msg("fetch unit degraded for session")
			s.degraded[unit.key] = true
			continue
		}
		ps.started = true
		ps.next = r.res.NextPage
		ps.exhausted = !r.res.HasMore
		pm.addPage(s, sc, unit, r.res.Items)
	}
}

// addPage folds a page into the pool: tier overrides, query-name
// stamping, duplicate suppression. Items violating the adapter
// normalization contract are dropped here, never served.
func (pm *PoolManager) addPage(s *session, sc *models.ScrollConfig, unit fetchUnit, items []*models.FeedItem) {
	for _, item := range items {
		if item == nil {
			continue
		}
		item.Tier = sc.SourceTier(item.Source, item.Tier)
		if unit.query != nil {
			if unit.query.Tier.Valid() {
				item.Tier = unit.query.Tier
			}
			if item.Meta == nil {
				item.Meta = models.Meta{}
			}
			if item.Meta.GetString(models.MetaQueryName) == "" {
				item.Meta[models.MetaQueryName] = models.MetaString(unit.queryName)
			}
		}
		if err := item.Validate(); err != nil {
			logging.Warn().Err(err).Str("unit", unit.key).Msg("malformed item dropped")
			continue
		}
		if s.seen[item.ID] {
			continue
		}
		if !s.recent.Add(item.ID) {
			continue // adapter re-emitted an id we already hold
		}
		s.pool = append(s.pool, item)
	}
}

// MarkSeen records served ids; they are filtered from every later pool
// read in this session.
func (pm *PoolManager) MarkSeen(user string, ids []string) {
	h := pm.handle(user)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range ids {
		h.s.seen[id] = true
	}
	h.s.compact()
}

// MarkConsumed fans served ids out to adapters that track external read
// state. Failures log and do not propagate.
func (pm *PoolManager) MarkConsumed(ctx context.Context, user string, ids []string) {
	bySource := make(map[string][]string)
	for _, id := range ids {
		st, localID, ok := models.SplitCompoundID(id)
		if !ok {
			continue
		}
		bySource[st] = append(bySource[st], localID)
	}
	for st, localIDs := range bySource {
		adapter, ok := pm.registry.Get(st)
		if !ok {
			continue
		}
		consumer, ok := source.AsConsumer(adapter)
		if !ok {
			continue
		}
		if err := consumer.MarkConsumed(ctx, user, localIDs); err != nil {
			logging.Ctx(ctx).Warn().
				Err(err).
				Str("source", st).
				Int("ids", len(localIDs)).
				Msg("mark consumed failed")
		}
	}
}

// GetBatchNumber returns the session's current 1-indexed batch number.
func (pm *PoolManager) GetBatchNumber(user string) int {
	h := pm.handle(user)
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.batchCount
}

// AdvanceBatch increments the batch counter. The service calls it once
// per non-filtered assembly that returned items.
func (pm *PoolManager) AdvanceBatch(user string) {
	h := pm.handle(user)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.s.batchCount++
}

// HasMore reports whether any fetch unit can still produce items for
// the user, given unseen pool contents count too.
func (pm *PoolManager) HasMore(user string, sc *models.ScrollConfig) bool {
	h := pm.handle(user)
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.s.unseen()) > 0 {
		return true
	}
	return !h.s.exhaustedAll(unitKeys(pm.units(sc)))
}

// Reset discards the user's session. The next call starts a fresh
// scroll with an empty seen set and batch number 1.
func (pm *PoolManager) Reset(user string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if _, ok := pm.sessions[user]; ok {
		delete(pm.sessions, user)
		metrics.ActiveSessions.Dec()
		metrics.PoolSize.DeleteLabelValues(user)
	}
}

// Snapshot returns the session id and batch number for cursor stamping.
func (pm *PoolManager) Snapshot(user string) (sessionID string, batch int) {
	h := pm.handle(user)
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.id, h.s.batchCount
}

// SessionMatches reports whether the user's live session carries the
// given id. A stale cursor (evicted or reset session) does not match.
func (pm *PoolManager) SessionMatches(user, sessionID string) bool {
	pm.mu.Lock()
	h, ok := pm.sessions[user]
	pm.mu.Unlock()
	if !ok {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.s.id == sessionID
}

// EvictIdle drops sessions unused for longer than ttl, returning how
// many were dropped.
func (pm *PoolManager) EvictIdle(ttl time.Duration) int {
	cutoff := pm.now().Add(-ttl)

	pm.mu.Lock()
	stale := make(map[string]*sessionHandle)
	for user, h := range pm.sessions {
		stale[user] = h
	}
	pm.mu.Unlock()

	evicted := 0
	for user, h := range stale {
		h.mu.Lock()
		idle := h.s.lastAccess.Before(cutoff)
		h.mu.Unlock()
		if !idle {
			continue
		}
		pm.mu.Lock()
		// Re-check under the map lock; the session may have been touched
		// or replaced since the scan.
		if current, ok := pm.sessions[user]; ok && current == h {
			delete(pm.sessions, user)
			metrics.ActiveSessions.Dec()
			metrics.SessionsEvicted.Inc()
			metrics.PoolSize.DeleteLabelValues(user)
			evicted++
		}
		pm.mu.Unlock()
	}
	return evicted
}

// handle returns the user's session handle, creating a fresh session on
// first use.
func (pm *PoolManager) handle(user string) *sessionHandle {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	h, ok := pm.sessions[user]
	if !ok {
		h = &sessionHandle{s: newSession(user, pm.now())}
		pm.sessions[user] = h
		metrics.ActiveSessions.Inc()
	}
	return h
}

func unitKeys(units []fetchUnit) []string {
	keys := make([]string, len(units))
	for i, u := range units {
		keys[i] = u.key
	}
	return keys
}

func pageSizeFor(unit fetchUnit, def int) int {
	if unit.settings.PageSize > 0 && !strings.HasPrefix(unit.key, queryUnitPrefix) {
		return unit.settings.PageSize
	}
	return def
}
