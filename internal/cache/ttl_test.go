// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package cache

import (
	"testing"
	"time"
)

func TestTTLGetSet(t *testing.T) {
	c := NewTTL[int](time.Minute)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return clock })

	c.Set("k", 42)
	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Fatalf("Get = (%d, %v), want (42, true)", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) ok")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewTTL[string](time.Minute)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return clock })

	c.Set("k", "v")
	clock = clock.Add(61 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatal("entry readable after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after lazy expiry drop, want 0", c.Len())
	}
}

func TestTTLRefresh(t *testing.T) {
	c := NewTTL[string](time.Minute)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return clock })

	c.Set("k", "old")
	clock = clock.Add(45 * time.Second)
	c.Set("k", "new") // resets the clock

	clock = clock.Add(45 * time.Second)
	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Fatalf("Get = (%q, %v) after refresh, want (new, true)", v, ok)
	}
}

func TestTTLSweep(t *testing.T) {
	c := NewTTL[int](time.Minute)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return clock })

	c.Set("old1", 1)
	c.Set("old2", 2)
	clock = clock.Add(2 * time.Minute)
	c.Set("fresh", 3)

	if n := c.Sweep(); n != 2 {
		t.Fatalf("Sweep dropped %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d after sweep, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry swept")
	}
}

func TestTTLDelete(t *testing.T) {
	c := NewTTL[int](time.Minute)
	c.Set("k", 1)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("deleted entry still readable")
	}
}
