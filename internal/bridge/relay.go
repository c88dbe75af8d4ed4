// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package bridge

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
)

// Relay is the slice of the social protocol the bridge needs: publish a
// signed event, query events by filter. The production implementation
// fans out over a relay pool; tests use MemoryRelay.
type Relay interface {
	Publish(ctx context.Context, event *nostr.Event) error
	Query(ctx context.Context, filter nostr.Filter) ([]*nostr.Event, error)
}

// PoolRelay talks to a set of Nostr relays through go-nostr's
// SimplePool. Publishes go to every relay and succeed when at least one
// accepts; queries merge and dedupe across relays.
type PoolRelay struct {
	pool *nostr.SimplePool
	urls []string
}

var _ Relay = (*PoolRelay)(nil)

// NewPoolRelay creates the relay pool. ctx bounds the lifetime of the
// underlying connections.
func NewPoolRelay(ctx context.Context, urls []string) *PoolRelay {
	return &PoolRelay{
		pool: nostr.NewSimplePool(ctx),
		urls: urls,
	}
}

// Publish sends the event to every configured relay. One acceptance is
// enough; total failure returns the last error.
func (p *PoolRelay) Publish(ctx context.Context, event *nostr.Event) error {
	var lastErr error
	accepted := 0
	for _, url := range p.urls {
		relay, err := p.pool.EnsureRelay(url)
		if err != nil {
			lastErr = fmt.Errorf("relay %s: %w", url, err)
			continue
		}
		if err := relay.Publish(ctx, *event); err != nil {
			lastErr = fmt.Errorf("relay %s: %w", url, err)
			continue
		}
		accepted++
	}
	if accepted == 0 {
		if lastErr != nil {
			return lastErr
		}
		return fmt.Errorf("bridge: no relays configured")
	}
	return nil
}

// Query collects matching events from all relays until EOSE, deduped by
// event id.
func (p *PoolRelay) Query(ctx context.Context, filter nostr.Filter) ([]*nostr.Event, error) {
	seen := make(map[string]bool)
	var events []*nostr.Event
	for ev := range p.pool.SubManyEose(ctx, p.urls, nostr.Filters{filter}) {
		if ev.Event == nil || seen[ev.Event.ID] {
			continue
		}
		seen[ev.Event.ID] = true
		events = append(events, ev.Event)
	}
	// A deadline hit mid-stream still yields what arrived; callers work
	// with partial results the same way a sparse relay set would.
	return events, nil
}
