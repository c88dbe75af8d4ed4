// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
filter.go - scroll filter resolution

A filter expression narrows a batch to one tier, one source (optionally
one of its subsources), or one named query, bypassing tier assembly.
Resolution walks a fixed four-layer chain; when the same literal token
exists in several registries the earlier layer wins:

	tier > source type > query name > alias

"wire" is always the tier even if someone names a query "wire". Aliases
resolve one hop to a source or query and never chain.
*/

package feed

import (
	"strings"

	"github.com/boonware/boonscroll/internal/models"
)

// FilterType discriminates the filter variants.
type FilterType string

const (
	FilterTier   FilterType = "tier"
	FilterSource FilterType = "source"
	FilterQuery  FilterType = "query"
)

// Filter is a resolved filter expression.
type Filter struct {
	Type FilterType

	// Tier is set when Type == FilterTier.
	Tier models.Tier

	// SourceType and Subsources are set when Type == FilterSource.
	// Subsources narrows to named feeds within the source (subreddits,
	// channel names), matched case-insensitively.
	SourceType string
	Subsources []string

	// QueryName is set when Type == FilterQuery.
	QueryName string
}

// Pseudo-sources addressable by filter without a registered adapter:
// headlines is the wire roll-up, entropy a uniform random pool sample.
const (
	PseudoHeadlines = "headlines"
	PseudoEntropy   = "entropy"
)

// FilterResolver resolves filter expressions against the registered
// source types, the user's named queries, and the user's aliases.
type FilterResolver struct {
	sourceTypes map[string]bool
	queryNames  map[string]bool
	aliases     map[string]string
}

// NewFilterResolver builds a resolver. sourceTypes come from the adapter
// registry; the pseudo-sources are added here so "headlines" and
// "entropy" resolve without an adapter.
func NewFilterResolver(sourceTypes []string, queryNames []string, aliases map[string]string) *FilterResolver {
	r := &FilterResolver{
		sourceTypes: make(map[string]bool, len(sourceTypes)+2),
		queryNames:  make(map[string]bool, len(queryNames)),
		aliases:     make(map[string]string, len(aliases)),
	}
	for _, s := range sourceTypes {
		r.sourceTypes[strings.ToLower(s)] = true
	}
	r.sourceTypes[PseudoHeadlines] = true
	r.sourceTypes[PseudoEntropy] = true
	for _, q := range queryNames {
		r.queryNames[q] = true
	}
	for k, v := range aliases {
		r.aliases[strings.ToLower(k)] = v
	}
	return r
}

// Resolve parses a filter expression. Nil means "no filter": callers
// fall through to the tier path.
func (r *FilterResolver) Resolve(expression string) *Filter {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return nil
	}

	prefix, tail := expr, ""
	if idx := strings.Index(expr, ":"); idx >= 0 {
		prefix, tail = expr[:idx], expr[idx+1:]
	}
	lower := strings.ToLower(prefix)

	if tier := models.Tier(lower); tier.Valid() {
		return &Filter{Type: FilterTier, Tier: tier}
	}

	if r.sourceTypes[lower] {
		return &Filter{Type: FilterSource, SourceType: lower, Subsources: splitSubsources(tail)}
	}

	// Query names match exactly, with or without a trailing colon, and
	// never partially.
	if r.queryNames[expr] {
		return &Filter{Type: FilterQuery, QueryName: expr}
	}
	if tail == "" && r.queryNames[prefix] {
		return &Filter{Type: FilterQuery, QueryName: prefix}
	}

	if target, ok := r.aliases[lower]; ok {
		targetLower := strings.ToLower(target)
		if r.sourceTypes[targetLower] {
			return &Filter{Type: FilterSource, SourceType: targetLower, Subsources: splitSubsources(tail)}
		}
		if r.queryNames[target] {
			return &Filter{Type: FilterQuery, QueryName: target}
		}
	}

	return nil
}

// Match reports whether an item satisfies the filter. The pseudo-source
// predicates are handled by the service, not here.
func (f *Filter) Match(item *models.FeedItem) bool {
	switch f.Type {
	case FilterTier:
		return item.Tier == f.Tier
	case FilterSource:
		if item.Source != f.SourceType {
			return false
		}
		if len(f.Subsources) == 0 {
			return true
		}
		return matchSubsource(item, f.Subsources)
	case FilterQuery:
		return item.Meta.GetString(models.MetaQueryName) == f.QueryName
	}
	return false
}

// matchSubsource checks the subreddit and source-name hints the adapters
// stamp at fetch time.
func matchSubsource(item *models.FeedItem, subsources []string) bool {
	candidates := []string{
		item.Meta.GetString(models.MetaSubreddit),
		item.Meta.GetString(models.MetaSourceName),
	}
	for _, want := range subsources {
		for _, have := range candidates {
			if have != "" && strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

func splitSubsources(tail string) []string {
	if strings.TrimSpace(tail) == "" {
		return nil
	}
	parts := strings.Split(tail, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
