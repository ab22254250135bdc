// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/raghavbk/savora/internal/catalog"
	"github.com/raghavbk/savora/internal/logging"
	"github.com/raghavbk/savora/internal/metrics"
	"github.com/raghavbk/savora/internal/recommend"
)

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	engine         *recommend.Engine
	catalog        *catalog.Store
	requestTimeout time.Duration
	startTime      time.Time
}

// NewHandler creates the API handler.
func NewHandler(engine *recommend.Engine, store *catalog.Store, requestTimeout time.Duration) *Handler {
	return &Handler{
		engine:         engine,
		catalog:        store,
		requestTimeout: requestTimeout,
		startTime:      time.Now(),
	}
}

// Recommendations handles POST /api/v1/recommendations.
//
// Returns 400 with a VALIDATION_ERROR payload for malformed bodies or
// out-of-range parameters; an empty result set is a 200 with an empty
// list, never an error.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecommendationRequests.WithLabelValues("validation_error").Inc()
		respondError(w, r, http.StatusBadRequest, codeValidationError,
			"invalid JSON body", nil)
		return
	}

	// Pipeline outcomes are counted inside the engine; only the decode
	// and tag-level rejections are counted here.
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.RecommendationRequests.WithLabelValues("validation_error").Inc()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	query := req.toQuery(logging.RequestIDFromContext(r.Context()))
	resp, err := h.engine.Recommend(ctx, query)
	if err != nil {
		if vErr, ok := recommend.AsValidationError(err); ok {
			respondError(w, r, http.StatusBadRequest, codeValidationError,
				vErr.Message, map[string]any{"field": vErr.Field})
			return
		}

		logging.Ctx(ctx).Error().Err(err).Msg("recommendation request failed")
		respondError(w, r, http.StatusInternalServerError, codeInternalError,
			"internal server error", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, resp)
}

// MetaFilters handles GET /api/v1/meta/filters. The payload is
// precomputed at catalog load, so this is a snapshot read.
func (h *Handler) MetaFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.catalog.FilterMetadata())
}
