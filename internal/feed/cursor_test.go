// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package feed

import "testing"

func TestCursorRoundTrip(t *testing.T) {
	token := encodeCursor("session-abc", 7)
	if token == "" {
		t.Fatal("empty encoded cursor")
	}
	c, ok := decodeCursor(token)
	if !ok {
		t.Fatal("round-tripped cursor did not decode")
	}
	if c.Session != "session-abc" || c.Batch != 7 {
		t.Fatalf("decoded %+v, want session-abc/7", c)
	}
}

func TestCursorResetSentinels(t *testing.T) {
	for _, token := range []string{"", "start"} {
		if _, ok := decodeCursor(token); ok {
			t.Errorf("decodeCursor(%q) ok, want reset", token)
		}
	}
}

func TestCursorGarbage(t *testing.T) {
	for _, token := range []string{
		"not base64 ???",
		"bm90IGpzb24", // valid base64, not JSON
		"e30",         // "{}": decodes but carries no session
		"eyJzIjoiIn0", // {"s":""}
	} {
		if _, ok := decodeCursor(token); ok {
			t.Errorf("decodeCursor(%q) ok, want reset", token)
		}
	}
}
