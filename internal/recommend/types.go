// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package recommend

import (
	"context"
	"time"
)

// Note: This package has no dependencies on other internal packages apart
// from logging and metrics. The CatalogProvider interface allows integration
// with the catalog package without creating circular imports.

// Restaurant is an immutable restaurant record owned by the data layer.
// The ID is the join key between filtering, scoring, LLM output and the
// final response; it must be unique and stable across requests.
type Restaurant struct {
	// ID is the stable unique record identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Location is the normalized location key (lowercase, trimmed).
	Location string `json:"location"`

	// Rating is the average rating in [0,5]. Nil when the source had no
	// usable rating ("NEW", "-", missing).
	Rating *float64 `json:"rating"`

	// Votes is the non-negative vote count.
	Votes int `json:"votes"`

	// Cuisines is the set of normalized cuisine tokens.
	Cuisines []string `json:"cuisines"`

	// CostForTwo is the approximate cost for two people. Nil when absent.
	CostForTwo *int `json:"cost_for_two"`

	// RestType is the restaurant type (e.g. "casual dining").
	RestType string `json:"rest_type,omitempty"`

	// OnlineOrder reports whether online ordering is available.
	OnlineOrder bool `json:"online_order"`

	// TableBooking reports whether table booking is available.
	TableBooking bool `json:"table_booking"`
}

// Query is a recommendation request. All string fields are expected in
// user form; normalization happens inside the engine.
type Query struct {
	// Location is the requested location key.
	Location string `json:"location"`

	// Cuisines is the requested cuisine set. Empty means no constraint.
	Cuisines []string `json:"cuisines"`

	// MinRating is the minimum average rating threshold in [0,5].
	MinRating float64 `json:"min_rating"`

	// BudgetMin and BudgetMax bound the approximate cost for two,
	// inclusive. Nil means unbounded on that side.
	BudgetMin *int `json:"budget_min"`
	BudgetMax *int `json:"budget_max"`

	// MaxResults is the maximum number of restaurants to return.
	MaxResults int `json:"max_results"`

	// UseLLM requests LLM-based re-ranking when available.
	UseLLM bool `json:"use_llm"`

	// Context is optional free-text context (group size, occasion).
	// Bounded by Limits.MaxContextLen.
	Context string `json:"context,omitempty"`

	// RequestID is an optional caller-provided ID for tracing.
	RequestID string `json:"-"`
}

// ScoredCandidate pairs a restaurant with its heuristic score and, once
// the LLM stage has touched it, the LLM-provided rank, score and
// explanation.
type ScoredCandidate struct {
	Restaurant Restaurant `json:"restaurant"`

	// Score is the raw heuristic score (unbounded pre-normalization).
	Score float64 `json:"score"`

	// LLMRank is the 1-based rank assigned by the LLM, 0 when unranked.
	LLMRank int `json:"llm_rank,omitempty"`

	// LLMScore is the optional LLM score component.
	LLMScore *float64 `json:"llm_score,omitempty"`

	// Explanation is the LLM-provided explanation, empty when unset.
	Explanation string `json:"explanation,omitempty"`
}

// Recommendation is a single item of the final ranked response.
type Recommendation struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	Rating       *float64 `json:"rating"`
	Votes        int      `json:"votes"`
	Cuisines     []string `json:"cuisines"`
	CostForTwo   *int     `json:"cost_for_two"`
	RestType     string   `json:"rest_type,omitempty"`
	OnlineOrder  bool     `json:"online_order"`
	TableBooking bool     `json:"table_booking"`

	// Rank is the 1-based position, contiguous with no gaps.
	Rank int `json:"rank"`

	// Score is min-max normalized to [0,1] over the returned set.
	Score float64 `json:"score"`

	// Explanation is LLM-sourced or a deterministic default.
	Explanation string `json:"explanation"`

	// LLMScore is the optional raw LLM score component.
	LLMScore *float64 `json:"llm_score,omitempty"`

	// Badges are derived labels; never persisted.
	Badges []string `json:"badges"`
}

// Meta describes how a response was produced.
type Meta struct {
	TotalCandidates int    `json:"total_candidates"`
	Returned        int    `json:"returned"`
	LLMUsed         bool   `json:"llm_used"`
	RequestID       string `json:"request_id"`
	CacheHit        bool   `json:"cache_hit"`

	// StageTimings holds per-stage latencies in milliseconds.
	StageTimings map[string]int64 `json:"stage_timings_ms"`
}

// Response is the full result of a recommendation request.
type Response struct {
	Restaurants []Recommendation `json:"restaurants"`
	Summary     string           `json:"summary,omitempty"`
	Meta        Meta             `json:"meta"`
}

// CatalogProvider supplies restaurant records. Implemented by the catalog
// package; the engine treats records as read-only.
type CatalogProvider interface {
	// ByLocation returns all records whose normalized location key is one
	// of the given keys, in stable catalog order.
	ByLocation(ctx context.Context, keys []string) ([]Restaurant, error)

	// Count returns the total number of records in the snapshot.
	Count() int
}

// LocationResolver expands a normalized location into the set of
// equivalent canonical keys before filtering. Implementations must always
// include the input key itself.
type LocationResolver interface {
	Resolve(location string) []string
}

// identityResolver maps every location to itself.
type identityResolver struct{}

func (identityResolver) Resolve(location string) []string {
	return []string{location}
}

// StaticAliasResolver expands locations through a fixed alias table.
type StaticAliasResolver struct {
	aliases map[string][]string
}

// NewStaticAliasResolver builds a resolver from a location → aliases map.
// Keys and values are matched after normalization by the caller.
func NewStaticAliasResolver(aliases map[string][]string) *StaticAliasResolver {
	return &StaticAliasResolver{aliases: aliases}
}

// Resolve returns the location plus any configured aliases.
func (r *StaticAliasResolver) Resolve(location string) []string {
	keys := []string{location}
	keys = append(keys, r.aliases[location]...)
	return keys
}

// RerankOutcome tags the result of the LLM re-ranking stage.
type RerankOutcome int

const (
	// RerankSkipped means the stage never ran (disabled or no reranker).
	RerankSkipped RerankOutcome = iota
	// RerankSuccess means a validated reordering was produced.
	RerankSuccess
	// RerankTransportFailure means the call failed or timed out.
	RerankTransportFailure
	// RerankValidationFailure means the model returned structurally
	// invalid output.
	RerankValidationFailure
	// RerankBreakerOpen means the circuit breaker rejected the call
	// before any I/O was attempted.
	RerankBreakerOpen
)

// String returns a reason code for logs and metrics.
func (o RerankOutcome) String() string {
	switch o {
	case RerankSkipped:
		return "skipped"
	case RerankSuccess:
		return "success"
	case RerankTransportFailure:
		return "transport_failure"
	case RerankValidationFailure:
		return "validation_failure"
	case RerankBreakerOpen:
		return "breaker_open"
	default:
		return "unknown"
	}
}

// RankedItem is one entry of a validated LLM reordering.
type RankedItem struct {
	// ID references a candidate from the submitted subset.
	ID string `json:"id"`

	// Rank is the 1-based position assigned by the model.
	Rank int `json:"rank"`

	// Score is the optional model score.
	Score *float64 `json:"score"`

	// Explanation is the non-empty, length-bounded explanation.
	Explanation string `json:"explanation"`
}

// RerankResult is the tagged result of the LLM stage. The assembler
// consumes it with an exhaustive outcome switch; failure outcomes carry
// the originating error for logging only.
type RerankResult struct {
	Outcome RerankOutcome
	Items   []RankedItem
	Summary string
	Err     error
}

// Reranker reorders an already-filtered candidate subset through an
// external reasoning step. Implementations must never introduce items
// that are not in the submitted subset and must return within the
// context deadline.
type Reranker interface {
	Rerank(ctx context.Context, query Query, candidates []ScoredCandidate) RerankResult

	// State reports the circuit breaker state for health reporting.
	State() string
}

// stageClock measures per-stage latencies for response metadata.
type stageClock struct {
	timings map[string]int64
}

func newStageClock() *stageClock {
	return &stageClock{timings: make(map[string]int64, 4)}
}

// measure runs fn and records its wall time under the given stage name.
func (c *stageClock) measure(stage string, fn func()) {
	start := time.Now()
	fn()
	c.timings[stage] = time.Since(start).Milliseconds()
}
