// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/raghavbk/savora/internal/logging"
)

// APIResponse is the standardized response wrapper used by all
// endpoints.
//
// Example success:
//
//	{"status": "ok", "data": {...}, "metadata": {"timestamp": "..."}}
//
// Example error:
//
//	{"status": "error", "data": null,
//	 "error": {"code": "VALIDATION_ERROR", "message": "..."},
//	 "metadata": {"timestamp": "..."}}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError is a structured error payload.
//
// Error codes:
//   - VALIDATION_ERROR: invalid request parameters
//   - NOT_READY: catalog not loaded yet
//   - INTERNAL_ERROR: unexpected server failure
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes returned by the API.
const (
	codeValidationError = "VALIDATION_ERROR"
	codeNotReady        = "NOT_READY"
	codeInternalError   = "INTERNAL_ERROR"
)

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := &APIResponse{
		Status: "ok",
		Data:   data,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	}
	writeResponse(w, r, status, resp)
}

// respondError sends a structured error response.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	resp := &APIResponse{
		Status: "error",
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	writeResponse(w, r, status, resp)
}

func writeResponse(w http.ResponseWriter, r *http.Request, status int, resp *APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}
