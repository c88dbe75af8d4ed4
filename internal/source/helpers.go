// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package source

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// snippetLimit bounds card bodies per the FeedItem contract.
const snippetLimit = 280

// snippet collapses whitespace and truncates s to the card body limit,
// appending an ellipsis when anything was cut.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= snippetLimit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:snippetLimit-1])) + "…"
}

// drainClose discards the rest of a response body so the connection can be
// reused, then closes it.
func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<16))
	_ = body.Close()
}

// checkStatus converts a non-200 response into an error, reading a short
// body excerpt for the message.
func checkStatus(resp *http.Response, what string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s returned status %d: %s", what, resp.StatusCode, string(excerpt))
}

// splitList parses a comma-separated parameter into trimmed entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pageSizeOrDefault resolves the effective page size for a fetch.
func pageSizeOrDefault(q FetchQuery, def int) int {
	if q.PageSize > 0 {
		return q.PageSize
	}
	if q.Settings.PageSize > 0 {
		return q.Settings.PageSize
	}
	return def
}
