// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package models

// TierConfig holds the per-tier slice of the scroll policy.
type TierConfig struct {
	// Allocation is the tier's share of an assembled batch (slots, not a
	// percentage). Non-negative.
	Allocation int `json:"allocation" koanf:"allocation" validate:"gte=0"`

	// EnabledSources lists the source ids (or named queries) eligible to
	// fill this tier's slots. Empty means every source that claims the tier.
	EnabledSources []string `json:"enabled_sources" koanf:"enabled_sources"`

	// Color is an opaque display hint passed through to the client.
	Color string `json:"color,omitempty" koanf:"color"`
}

// AllowsSource reports whether source may fill this tier's slots.
func (tc TierConfig) AllowsSource(source string) bool {
	if len(tc.EnabledSources) == 0 {
		return true
	}
	for _, s := range tc.EnabledSources {
		if s == source {
			return true
		}
	}
	return false
}

// SourceSettings is the merged per-source configuration handed to an
// adapter's Fetch as part of the query. Params carries adapter-specific
// keys (subreddits, channel ids, base URLs) documented per adapter.
type SourceSettings struct {
	Enabled  bool              `json:"enabled" koanf:"enabled"`
	Tier     Tier              `json:"tier,omitempty" koanf:"tier"`
	PageSize int               `json:"page_size,omitempty" koanf:"page_size" validate:"gte=0"`
	Params   map[string]string `json:"params,omitempty" koanf:"params"`
}

// QuerySettings is a named parameterized adapter invocation saved under a
// stable name (for example "scripture-bom"), addressable via filter.
type QuerySettings struct {
	Source string            `json:"source" koanf:"source"`
	Tier   Tier              `json:"tier,omitempty" koanf:"tier"`
	Params map[string]string `json:"params,omitempty" koanf:"params"`
}

// ScrollConfig is the merged per-user scroll policy: defaults overlaid with
// the user's own configuration. It is immutable once loaded; loaders hand
// out fresh copies on change.
type ScrollConfig struct {
	BatchSize        int                       `json:"batch_size" koanf:"batch_size" validate:"gte=0"`
	WireDecayBatches int                       `json:"wire_decay_batches" koanf:"wire_decay_batches" validate:"gte=1"`
	Tiers            map[Tier]TierConfig       `json:"tiers" koanf:"tiers"`
	Sources          map[string]SourceSettings `json:"sources" koanf:"sources"`
	Aliases          map[string]string         `json:"aliases" koanf:"aliases"`
	Queries          map[string]QuerySettings  `json:"queries" koanf:"queries"`

	// Extra preserves unknown user-config fields so round-trips through
	// the config store do not drop them.
	Extra map[string]interface{} `json:"extra,omitempty" koanf:",remain"`
}

// TotalAllocation sums the configured allocations across all tiers.
func (sc *ScrollConfig) TotalAllocation() int {
	total := 0
	for _, tc := range sc.Tiers {
		total += tc.Allocation
	}
	return total
}

// EnabledSources returns the ids of sources enabled for this user.
func (sc *ScrollConfig) EnabledSources() []string {
	out := make([]string, 0, len(sc.Sources))
	for id, s := range sc.Sources {
		if s.Enabled {
			out = append(out, id)
		}
	}
	return out
}

// SourceTier resolves the tier for a source: the per-source override if
// present, otherwise def (the adapter's default).
func (sc *ScrollConfig) SourceTier(source string, def Tier) Tier {
	if s, ok := sc.Sources[source]; ok && s.Tier.Valid() {
		return s.Tier
	}
	return def
}
