// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

// Package api is the REST binding of the feed engine: the chi router,
// the handlers behind /api/v1/feed/*, and the error envelope.
package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/boonware/boonscroll/internal/bridge"
	"github.com/boonware/boonscroll/internal/logging"
	"github.com/boonware/boonscroll/internal/source"
)

// Error codes carried in the error envelope.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// APIError is the error half of the response envelope.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Source  string      `json:"source,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// errorEnvelope is the error response body: {"error": {...}}.
type errorEnvelope struct {
	Error APIError `json:"error"`
}

// writeJSON serializes v with the shared encoder. Success payloads are
// written as-is; the scroll and detail shapes are part of the public
// surface and are not wrapped.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("encode response")
	}
}

// writeError maps an error kind to the envelope and status code.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, errorEnvelope{Error: APIError{Code: code, Message: message}})
}

// writeMappedError applies the engine's status-code mapping: not-found
// 404, upstream unavailable 503, malformed id/filter 400, else 500.
func writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, source.ErrNotFound), errors.Is(err, bridge.ErrNoAnchor):
		writeError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, source.ErrUnavailable), errors.Is(err, bridge.ErrDisabled):
		writeError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, err.Error())
	case errors.Is(err, source.ErrUnresolved):
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}
