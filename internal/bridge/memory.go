// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package bridge

import (
	"context"
	"sort"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// MemoryRelay is an in-process Relay: a content-addressed event store
// with filter matching. It backs the bridge in tests and in relay-less
// single-machine deployments.
type MemoryRelay struct {
	mu     sync.RWMutex
	events []*nostr.Event
	byID   map[string]*nostr.Event
}

var _ Relay = (*MemoryRelay)(nil)

// NewMemoryRelay creates an empty in-memory relay.
func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{byID: make(map[string]*nostr.Event)}
}

// Publish stores the event. Re-publishing the same id is a no-op, the
// same convergence real relays provide.
func (m *MemoryRelay) Publish(_ context.Context, event *nostr.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[event.ID]; ok {
		return nil
	}
	stored := *event
	m.byID[event.ID] = &stored
	m.events = append(m.events, &stored)
	return nil
}

// Query returns matching events oldest first.
func (m *MemoryRelay) Query(_ context.Context, filter nostr.Filter) ([]*nostr.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*nostr.Event
	for _, ev := range m.events {
		if filter.Matches(ev) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt < out[b].CreatedAt
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Len returns how many events the relay holds.
func (m *MemoryRelay) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}
