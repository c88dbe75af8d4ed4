// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package feed

import (
	"encoding/base64"

	"github.com/goccy/go-json"
)

// Cursor is the opaque continuation token stamped on scroll responses.
// The only contract with clients is round-tripping: passing the previous
// response's cursor continues the session. Internally it carries the
// session id and the batch number it was issued at.
type cursor struct {
	Session string `json:"s"`
	Batch   int    `json:"b"`
}

// cursorStart is the sentinel clients may send instead of omitting the
// cursor; both reset the session.
const cursorStart = "start"

func encodeCursor(sessionID string, batch int) string {
	raw, err := json.Marshal(cursor{Session: sessionID, Batch: batch})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor parses a client-supplied cursor. Empty, "start", or
// undecodable cursors return ok=false, which callers treat as a session
// reset rather than an error.
func decodeCursor(token string) (cursor, bool) {
	if token == "" || token == cursorStart {
		return cursor{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cursor{}, false
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.Session == "" {
		return cursor{}, false
	}
	return c, true
}
