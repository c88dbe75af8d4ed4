// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package source

import (
	"fmt"
	"regexp"
	"strings"
)

// FallbackPattern maps colon-less ids to a source by regex, tried in
// order before the default source applies.
type FallbackPattern struct {
	Regex      *regexp.Regexp
	SourceType string
}

// Resolved is the outcome of a successful id resolution.
type Resolved struct {
	Adapter Adapter
	LocalID string
}

// Resolver maps compound ids ("{source}:{localId}") to their owning
// adapter. It is built once at startup from the registry's declared
// prefixes plus configured fallback patterns and a default source.
//
// Resolution order:
//  1. No colon: fallback patterns in order, else the default source.
//  2. Prefix matches a declared adapter prefix: apply its transform.
//  3. Prefix equals a registered source type: identity transform.
//  4. Otherwise ErrUnresolved.
type Resolver struct {
	registry      *Registry
	prefixes      map[string]resolvedPrefix
	fallbacks     []FallbackPattern
	defaultSource string
}

type resolvedPrefix struct {
	adapter   Adapter
	transform func(string) string
}

// NewResolver builds a resolver over the registry. defaultSource may be
// empty, in which case colon-less ids that match no fallback pattern are
// unresolvable.
func NewResolver(registry *Registry, fallbacks []FallbackPattern, defaultSource string) (*Resolver, error) {
	r := &Resolver{
		registry:      registry,
		prefixes:      make(map[string]resolvedPrefix),
		fallbacks:     fallbacks,
		defaultSource: defaultSource,
	}
	for _, a := range registry.All() {
		for _, p := range a.Prefixes() {
			if p.Prefix == "" {
				continue
			}
			if existing, dup := r.prefixes[p.Prefix]; dup {
				return nil, fmt.Errorf("resolver: prefix %q claimed by both %s and %s",
					p.Prefix, existing.adapter.SourceType(), a.SourceType())
			}
			r.prefixes[p.Prefix] = resolvedPrefix{adapter: a, transform: p.Transform}
		}
	}
	if defaultSource != "" {
		if _, ok := registry.Get(defaultSource); !ok {
			return nil, fmt.Errorf("resolver: default source %q is not registered", defaultSource)
		}
	}
	return r, nil
}

// Resolve maps a compound id to its owning adapter and local id.
func (r *Resolver) Resolve(compoundID string) (*Resolved, error) {
	if compoundID == "" {
		return nil, fmt.Errorf("%w: empty id", ErrUnresolved)
	}

	idx := strings.Index(compoundID, ":")
	if idx < 0 {
		return r.resolveBare(compoundID)
	}

	prefix, rest := compoundID[:idx], compoundID[idx+1:]

	if p, ok := r.prefixes[prefix]; ok {
		localID := rest
		if p.transform != nil {
			localID = p.transform(rest)
		}
		return &Resolved{Adapter: p.adapter, LocalID: localID}, nil
	}

	// A prefix equal to the adapter's source type always matches, with
	// identity transform.
	if a, ok := r.registry.Get(prefix); ok {
		return &Resolved{Adapter: a, LocalID: rest}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnresolved, compoundID)
}

func (r *Resolver) resolveBare(id string) (*Resolved, error) {
	for _, fb := range r.fallbacks {
		if fb.Regex.MatchString(id) {
			a, ok := r.registry.Get(fb.SourceType)
			if !ok {
				continue
			}
			return &Resolved{Adapter: a, LocalID: id}, nil
		}
	}
	if r.defaultSource != "" {
		if a, ok := r.registry.Get(r.defaultSource); ok {
			return &Resolved{Adapter: a, LocalID: id}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q has no source prefix", ErrUnresolved, id)
}
