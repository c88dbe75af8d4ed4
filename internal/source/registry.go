// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package source

import (
	"fmt"
	"sort"
	"time"
)

// Registry holds the adapters constructed at startup, keyed by source
// type. It is immutable after wiring; lookups are lock-free.
type Registry struct {
	adapters map[string]Adapter
	guard    GuardConfig
}

// GuardConfig bounds adapter I/O at registration time.
type GuardConfig struct {
	// FetchTimeout is the per-call deadline applied to Fetch, GetItem,
	// and GetDetail.
	FetchTimeout time.Duration

	// RequestsPerSecond rate-limits calls to one origin. Zero disables.
	RequestsPerSecond float64
}

// NewRegistry creates an empty registry whose registered adapters are
// wrapped with the given guard settings.
func NewRegistry(guard GuardConfig) *Registry {
	if guard.FetchTimeout <= 0 {
		guard.FetchTimeout = 5 * time.Second
	}
	return &Registry{
		adapters: make(map[string]Adapter),
		guard:    guard,
	}
}

// Register wraps the adapter in its I/O guard and adds it. Duplicate
// source types are a wiring bug and fail loudly.
func (r *Registry) Register(a Adapter) error {
	st := a.SourceType()
	if st == "" {
		return fmt.Errorf("registry: adapter with empty source type")
	}
	if _, exists := r.adapters[st]; exists {
		return fmt.Errorf("registry: duplicate source type %q", st)
	}
	r.adapters[st] = newGuardedAdapter(a, r.guard)
	return nil
}

// MustRegister registers or panics. Wiring-time convenience.
func (r *Registry) MustRegister(a Adapter) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Get returns the adapter for a source type.
func (r *Registry) Get(sourceType string) (Adapter, bool) {
	a, ok := r.adapters[sourceType]
	return a, ok
}

// All returns every registered adapter, ordered by source type for
// deterministic iteration.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceType() < out[j].SourceType() })
	return out
}

// SourceTypes returns the sorted registered source type ids.
func (r *Registry) SourceTypes() []string {
	out := make([]string, 0, len(r.adapters))
	for st := range r.adapters {
		out = append(out, st)
	}
	sort.Strings(out)
	return out
}
