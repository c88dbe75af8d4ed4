// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package source

import (
	"testing"
	"time"

	"github.com/boonware/boonscroll/internal/models"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(GuardConfig{FetchTimeout: time.Second})

	if err := r.Register(&stubAdapter{sourceType: "reddit", tier: models.TierWire}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&stubAdapter{sourceType: "reddit", tier: models.TierWire}); err == nil {
		t.Fatal("duplicate source type accepted")
	}
	if err := r.Register(&stubAdapter{sourceType: "", tier: models.TierWire}); err == nil {
		t.Fatal("empty source type accepted")
	}

	if _, ok := r.Get("reddit"); !ok {
		t.Fatal("registered adapter not found")
	}
	if _, ok := r.Get("nosuch"); ok {
		t.Fatal("unknown source type found")
	}
}

func TestRegistrySourceTypesSorted(t *testing.T) {
	r := NewRegistry(GuardConfig{FetchTimeout: time.Second})
	for _, st := range []string{"youtube", "reddit", "journal"} {
		r.MustRegister(&stubAdapter{sourceType: st, tier: models.TierWire})
	}

	got := r.SourceTypes()
	want := []string{"journal", "reddit", "youtube"}
	if len(got) != len(want) {
		t.Fatalf("SourceTypes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SourceTypes = %v, want %v", got, want)
		}
	}
}

func TestRegistryGuardsAdapters(t *testing.T) {
	r := NewRegistry(GuardConfig{FetchTimeout: time.Second})
	inner := &stubAdapter{sourceType: "reddit", tier: models.TierWire}
	r.MustRegister(inner)

	a, _ := r.Get("reddit")
	if a == Adapter(inner) {
		t.Fatal("adapter registered unwrapped")
	}
	if a.SourceType() != "reddit" || a.DefaultTier() != models.TierWire {
		t.Fatal("guard wrapper does not pass through identity")
	}

	// A guarded stub takes no interactions and tracks no read state.
	if _, ok := AsResponder(a); ok {
		t.Error("stub reported as responder")
	}
	if _, ok := AsConsumer(a); ok {
		t.Error("stub reported as consumer")
	}
}
