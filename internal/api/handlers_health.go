// Boonscroll - Personal Grounding Feed Engine
// Copyright 2026 J. Boone (boonware)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/boonware/boonscroll

package api

import (
	"net/http"
)

// healthStatus is the body of the health endpoints.
type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Live serves GET /health/live: the process is up.
func (h *Handlers) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthStatus{Status: "ok"})
}

// Ready serves GET /health/ready: config loads and adapters are
// registered. Relay reachability is advisory; the bridge degrades
// rather than gating readiness.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if _, err := h.scroll.Load(defaultUser); err != nil {
		checks["config"] = err.Error()
		healthy = false
	} else {
		checks["config"] = "ok"
	}

	if len(h.registry.SourceTypes()) == 0 {
		checks["sources"] = "no adapters registered"
		healthy = false
	} else {
		checks["sources"] = "ok"
	}

	if h.bridge != nil && h.bridge.Enabled() {
		checks["bridge"] = "enabled"
	} else {
		checks["bridge"] = "disabled"
	}

	status := healthStatus{Status: "ok", Checks: checks}
	code := http.StatusOK
	if !healthy {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}
