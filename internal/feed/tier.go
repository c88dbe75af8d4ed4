// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

/*
tier.go - tier allocation and batch interleaving

The scroll's shape comes from here. Each tier has a configured slot
allocation; the wire tier decays linearly across the session so early
batches carry news and later batches drift toward the user's own
material. Freed wire slots redistribute to the other tiers by largest
remainder, keeping the batch size constant. Selection within a tier and
the final interleave are fully deterministic: same pool, same config,
same batch number, same output.
*/

package feed

import (
	"math"
	"sort"

	"github.com/boonware/boonscroll/internal/models"
)

// TierAssembler computes per-batch allocations and assembles batches.
// It is stateless; all inputs arrive per call.
type TierAssembler struct{}

// NewTierAssembler creates the assembler.
func NewTierAssembler() *TierAssembler { return &TierAssembler{} }

// DecayFactor returns the wire decay multiplier for a 1-indexed batch
// number over a decay horizon of n batches, clamped to [0, 1].
func DecayFactor(batchNumber, n int) float64 {
	if n < 1 {
		n = 1
	}
	f := 1 - float64(batchNumber-1)/float64(n)
	return math.Max(0, math.Min(1, f))
}

// EffectiveAllocations applies wire decay to the configured allocations
// and redistributes the freed slots over the non-wire tiers by largest
// remainder. The total always equals the configured total; when every
// non-wire allocation is zero the wire tier keeps its slots.
func (t *TierAssembler) EffectiveAllocations(sc *models.ScrollConfig, batchNumber int) map[models.Tier]int {
	alloc := make(map[models.Tier]int, len(models.Tiers))
	for _, tier := range models.Tiers {
		alloc[tier] = sc.Tiers[tier].Allocation
	}

	wire := alloc[models.TierWire]
	decay := DecayFactor(batchNumber, sc.WireDecayBatches)
	wireEff := int(math.Floor(float64(wire) * decay))
	freed := wire - wireEff
	alloc[models.TierWire] = wireEff
	if freed == 0 {
		return alloc
	}

	nonWireTotal := 0
	for _, tier := range models.Tiers {
		if tier != models.TierWire {
			nonWireTotal += alloc[tier]
		}
	}
	if nonWireTotal == 0 {
		alloc[models.TierWire] = wire
		return alloc
	}

	// Largest-remainder apportionment of the freed slots.
	type share struct {
		tier      models.Tier
		whole     int
		remainder float64
	}
	shares := make([]share, 0, 3)
	assigned := 0
	for _, tier := range models.Tiers {
		if tier == models.TierWire {
			continue
		}
		exact := float64(freed) * float64(alloc[tier]) / float64(nonWireTotal)
		whole := int(math.Floor(exact))
		shares = append(shares, share{tier: tier, whole: whole, remainder: exact - float64(whole)})
		assigned += whole
	}
	sort.SliceStable(shares, func(a, b int) bool {
		if shares[a].remainder != shares[b].remainder {
			return shares[a].remainder > shares[b].remainder
		}
		// Ties break in interleave order, which SliceStable preserves
		// from the Tiers walk above; the explicit compare keeps the
		// intent visible.
		return false
	})
	for i := range shares {
		if assigned < freed {
			shares[i].whole++
			assigned++
		}
		alloc[shares[i].tier] += shares[i].whole
	}
	return alloc
}

// Assemble builds one batch from a seen-filtered pool: select per tier
// under the effective allocations, then round-robin interleave
// wire, library, scrapbook, compass up to effectiveLimit.
func (t *TierAssembler) Assemble(pool []*models.FeedItem, sc *models.ScrollConfig, batchNumber, effectiveLimit int) []*models.FeedItem {
	if effectiveLimit <= 0 {
		return nil
	}
	alloc := t.EffectiveAllocations(sc, batchNumber)

	selected := make(map[models.Tier][]*models.FeedItem, len(models.Tiers))
	for _, tier := range models.Tiers {
		selected[tier] = selectForTier(pool, sc, tier, alloc[tier])
	}

	target := 0
	for _, tier := range models.Tiers {
		target += len(selected[tier])
	}
	if target > effectiveLimit {
		target = effectiveLimit
	}

	// Round-robin, skipping exhausted tiers. Per-tier slices are already
	// in priority order, so each cycle takes each tier's best remaining.
	batch := make([]*models.FeedItem, 0, target)
	idx := make(map[models.Tier]int, len(models.Tiers))
	for len(batch) < target {
		took := false
		for _, tier := range models.Tiers {
			if len(batch) >= target {
				break
			}
			if idx[tier] < len(selected[tier]) {
				batch = append(batch, selected[tier][idx[tier]])
				idx[tier]++
				took = true
			}
		}
		if !took {
			break
		}
	}
	return batch
}

// selectForTier returns the tier's best eligible items, at most limit,
// ordered (priority desc, timestamp desc, id asc).
func selectForTier(pool []*models.FeedItem, sc *models.ScrollConfig, tier models.Tier, limit int) []*models.FeedItem {
	if limit <= 0 {
		return nil
	}
	tc := sc.Tiers[tier]

	eligible := make([]*models.FeedItem, 0, limit)
	for _, item := range pool {
		if item.Tier != tier {
			continue
		}
		if !tc.AllowsSource(item.Source) && !tc.AllowsSource(item.Meta.GetString(models.MetaQueryName)) {
			continue
		}
		eligible = append(eligible, item)
	}

	sort.Slice(eligible, func(a, b int) bool {
		if eligible[a].Priority != eligible[b].Priority {
			return eligible[a].Priority > eligible[b].Priority
		}
		if !eligible[a].Timestamp.Equal(eligible[b].Timestamp) {
			return eligible[a].Timestamp.After(eligible[b].Timestamp)
		}
		return eligible[a].ID < eligible[b].ID
	})

	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible
}
