// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package feed

import (
	"time"

	"github.com/google/uuid"

	"github.com/boonware/boonscroll/internal/cache"
	"github.com/boonware/boonscroll/internal/models"
)

// session is one user's scrolling state: the candidate pool, per-unit
// paging cursors, the seen set, and the batch counter. All access goes
// through the owning PoolManager's per-user lock; the session itself has
// no locking.
type session struct {
	id   string
	user string

	// pool holds unserved candidates in arrival order, keyed for
	// duplicate suppression by the recent LRU below.
	pool []*models.FeedItem

	// recent suppresses ids adapters re-emit across pages; it is wider
	// than seen because it also covers items still waiting in the pool.
	recent *cache.LRU

	// seen holds ids already served to the user this session.
	seen map[string]bool

	// paging tracks each fetch unit's continuation state.
	paging map[string]*pagingState

	// degraded lists fetch units skipped for the rest of the session.
	degraded map[string]bool

	batchCount int
	createdAt  time.Time
	lastAccess time.Time
}

// pagingState is one fetch unit's continuation cursor.
type pagingState struct {
	next      string
	exhausted bool
	started   bool
}

func newSession(user string, now time.Time) *session {
	return &session{
		id:         uuid.NewString(),
		user:       user,
		recent:     cache.NewLRU(8192),
		seen:       make(map[string]bool),
		paging:     make(map[string]*pagingState),
		degraded:   make(map[string]bool),
		batchCount: 1,
		createdAt:  now,
		lastAccess: now,
	}
}

// unseen returns the pool minus served items, preserving order.
func (s *session) unseen() []*models.FeedItem {
	out := make([]*models.FeedItem, 0, len(s.pool))
	for _, item := range s.pool {
		if !s.seen[item.ID] {
			out = append(out, item)
		}
	}
	return out
}

// compact drops served items from the pool so it does not grow without
// bound across a long session.
func (s *session) compact() {
	kept := s.pool[:0]
	for _, item := range s.pool {
		if !s.seen[item.ID] {
			kept = append(kept, item)
		}
	}
	for i := len(kept); i < len(s.pool); i++ {
		s.pool[i] = nil
	}
	s.pool = kept
}

// state returns the paging record for a fetch unit, creating it on
// first use.
func (s *session) state(unit string) *pagingState {
	ps, ok := s.paging[unit]
	if !ok {
		ps = &pagingState{}
		s.paging[unit] = ps
	}
	return ps
}

// exhaustedAll reports whether every known fetch unit is done: either
// paged to the end or degraded.
func (s *session) exhaustedAll(units []string) bool {
	for _, unit := range units {
		if s.degraded[unit] {
			continue
		}
		ps, ok := s.paging[unit]
		if !ok || !ps.exhausted {
			return false
		}
	}
	return true
}
