// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/boonware/boonscroll/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural constraints (validator tags) plus the scroll
// policy rules the schema requires: tier names restricted to the four
// canonical values, non-negative integer allocations, decay horizon >= 1.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := validateScroll(&c.Scroll); err != nil {
		return err
	}
	if c.Bridge.Enabled {
		if len(c.Bridge.Relays) == 0 {
			return fmt.Errorf("bridge.enabled requires at least one relay")
		}
		if c.Bridge.SecretKey == "" {
			return fmt.Errorf("bridge.enabled requires bridge.secret_key")
		}
	}
	return nil
}

func validateScroll(sc *ScrollFileConfig) error {
	if sc.Algorithm.WireDecayBatches < 1 {
		return fmt.Errorf("scroll.algorithm.wire_decay_batches must be >= 1, got %d", sc.Algorithm.WireDecayBatches)
	}
	if sc.Algorithm.BatchSize < 0 {
		return fmt.Errorf("scroll.algorithm.batch_size must be >= 0, got %d", sc.Algorithm.BatchSize)
	}
	for name, tc := range sc.Tiers {
		if _, ok := models.ParseTier(name); !ok {
			return fmt.Errorf("scroll.tiers: unknown tier %q (must be one of wire, library, scrapbook, compass)", name)
		}
		if tc.Allocation < 0 {
			return fmt.Errorf("scroll.tiers.%s.allocation must be >= 0, got %d", name, tc.Allocation)
		}
	}
	for src, tier := range sc.Grounding {
		if _, ok := models.ParseTier(tier); !ok {
			return fmt.Errorf("scroll.grounding.%s: unknown tier %q", src, tier)
		}
	}
	for name, q := range sc.Queries {
		if q.Source == "" {
			return fmt.Errorf("scroll.queries.%s: missing source", name)
		}
		if q.Tier != "" && !q.Tier.Valid() {
			return fmt.Errorf("scroll.queries.%s: unknown tier %q", name, q.Tier)
		}
	}
	return nil
}
