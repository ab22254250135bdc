// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package api

import (
	"net/http"
	"time"
)

// healthStatus is the GET /health payload.
type healthStatus struct {
	Status         string `json:"status"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	CatalogRecords int    `json:"catalog_records"`
	LLMEnabled     bool   `json:"llm_enabled"`
	BreakerState   string `json:"breaker_state,omitempty"`
}

// Health handles GET /health: overall service status including the
// catalog size and reranker breaker state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:         "ok",
		UptimeSeconds:  int64(time.Since(h.startTime).Seconds()),
		CatalogRecords: h.catalog.Count(),
		LLMEnabled:     h.engine.RerankerState() != "disabled",
		BreakerState:   h.engine.RerankerState(),
	}
	if status.CatalogRecords == 0 {
		status.Status = "degraded"
	}
	respondJSON(w, r, http.StatusOK, status)
}

// Liveness handles GET /health/live: the process is up and serving.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready: 503 until the catalog snapshot
// is populated, so load balancers hold traffic during startup.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.catalog.Count() == 0 {
		respondError(w, r, http.StatusServiceUnavailable, codeNotReady,
			"catalog not loaded", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
