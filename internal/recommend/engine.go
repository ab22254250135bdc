// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/raghavbk/savora/internal/metrics"
)

// Engine runs the recommendation pipeline: candidate filtering, heuristic
// scoring, optional LLM re-ranking and result assembly. It is safe for
// concurrent use; apart from the injected circuit breaker state inside
// the reranker, all pipeline state is request-scoped.
type Engine struct {
	config *Config
	logger zerolog.Logger

	provider CatalogProvider
	resolver LocationResolver
	reranker Reranker

	// Response cache (in-memory, TTL-bounded)
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
}

// cacheEntry holds a cached recommendation response.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var resolver LocationResolver = identityResolver{}
	if len(cfg.Aliases) > 0 {
		normalized := make(map[string][]string, len(cfg.Aliases))
		for k, v := range cfg.Aliases {
			normalized[normalizeToken(k)] = normalizeTokens(v)
		}
		resolver = NewStaticAliasResolver(normalized)
	}

	// The engine keeps its own copy so later caller mutations cannot
	// change pipeline behavior mid-flight.
	return &Engine{
		config:   cfg.Clone(),
		logger:   logger.With().Str("component", "recommend").Logger(),
		resolver: resolver,
		cache:    make(map[string]cacheEntry),
	}, nil
}

// SetCatalogProvider sets the record collection boundary.
func (e *Engine) SetCatalogProvider(p CatalogProvider) {
	e.provider = p
}

// SetReranker sets the LLM re-ranking stage. A nil reranker disables the
// stage entirely; the pipeline then always takes the heuristic path.
func (e *Engine) SetReranker(r Reranker) {
	e.reranker = r
}

// SetLocationResolver overrides the alias resolution step.
func (e *Engine) SetLocationResolver(r LocationResolver) {
	if r != nil {
		e.resolver = r
	}
}

// RerankerState reports the circuit breaker state of the LLM stage for
// health reporting. Returns "disabled" when no reranker is wired.
func (e *Engine) RerankerState() string {
	if e.reranker == nil {
		return "disabled"
	}
	return e.reranker.State()
}

// Recommend runs the full pipeline for one request.
//
// It returns an error only for a malformed request (*ValidationError) or
// a missing catalog provider; every downstream failure mode (LLM down,
// breaker open, no candidates) degrades to a well-formed, possibly empty
// response.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, q Query) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	q = e.prepareQuery(q)
	logger := e.logger.With().Str("request_id", q.RequestID).Str("location", q.Location).Logger()

	if err := q.validate(e.config.Limits); err != nil {
		metrics.RecommendationRequests.WithLabelValues("validation_error").Inc()
		logger.Warn().Err(err).Msg("rejected malformed request")
		return nil, err
	}

	if e.provider == nil {
		return nil, fmt.Errorf("catalog provider not set")
	}

	if resp := e.tryGetCachedResponse(q, logger); resp != nil {
		return resp, nil
	}

	clock := newStageClock()

	locationKeys := e.resolveLocation(q.Location)
	records, err := e.provider.ByLocation(ctx, locationKeys)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	var candidates []Restaurant
	clock.measure("filter", func() {
		candidates = filterCandidates(q, locationKeys, records, e.config.Limits.CandidateCeiling)
	})
	metrics.ObserveStage("filter", time.Duration(clock.timings["filter"])*time.Millisecond)

	if len(candidates) == 0 {
		logger.Debug().Msg("no candidates matched")
		metrics.RecommendationRequests.WithLabelValues("empty").Inc()
		resp := e.emptyResponse(q, clock)
		e.cacheResponse(q, resp)
		return resp, nil
	}

	var scored []ScoredCandidate
	clock.measure("score", func() {
		scored = scoreCandidates(q, candidates, e.config.Weights, e.config.Limits.HeuristicTopK)
	})
	metrics.ObserveStage("score", time.Duration(clock.timings["score"])*time.Millisecond)

	var rr RerankResult
	clock.measure("rerank", func() {
		rr = e.rerank(ctx, q, scored)
	})
	metrics.ObserveStage("rerank", time.Duration(clock.timings["rerank"])*time.Millisecond)

	if rr.Err != nil {
		logger.Warn().Err(rr.Err).Str("outcome", rr.Outcome.String()).Msg("llm re-ranking unavailable, using heuristic order")
	}

	var (
		items   []Recommendation
		summary string
		llmUsed bool
	)
	clock.measure("assemble", func() {
		items, summary, llmUsed = assemble(scored, rr, e.config, q.MaxResults)
	})
	metrics.ObserveStage("assemble", time.Duration(clock.timings["assemble"])*time.Millisecond)

	resp := &Response{
		Restaurants: items,
		Summary:     summary,
		Meta: Meta{
			TotalCandidates: len(candidates),
			Returned:        len(items),
			LLMUsed:         llmUsed,
			RequestID:       q.RequestID,
			StageTimings:    clock.timings,
		},
	}

	e.cacheResponse(q, resp)
	metrics.RecommendationRequests.WithLabelValues("ok").Inc()

	logger.Debug().
		Int("candidates", len(candidates)).
		Int("returned", len(items)).
		Bool("llm_used", llmUsed).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("recommendation complete")

	return resp, nil
}

// prepareQuery normalizes and clamps request fields.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) prepareQuery(q Query) Query {
	if q.RequestID == "" {
		q.RequestID = fmt.Sprintf("rec-%d", time.Now().UnixNano())
	}
	q.Location = normalizeToken(q.Location)
	q.Cuisines = normalizeTokens(q.Cuisines)

	if q.MaxResults == 0 {
		q.MaxResults = 10
	}
	if q.MaxResults > e.config.Limits.MaxResults {
		q.MaxResults = e.config.Limits.MaxResults
	}
	return q
}

// resolveLocation expands the requested location through the alias
// resolver. An empty location means no constraint.
func (e *Engine) resolveLocation(location string) []string {
	if location == "" {
		return nil
	}
	return e.resolver.Resolve(location)
}

// rerank runs the LLM stage on the bounded candidate subset, or reports
// it as skipped when disabled.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) rerank(ctx context.Context, q Query, scored []ScoredCandidate) RerankResult {
	if !q.UseLLM || e.reranker == nil {
		return RerankResult{Outcome: RerankSkipped}
	}

	subset := scored
	if len(subset) > e.config.Limits.MaxLLMCandidates {
		subset = subset[:e.config.Limits.MaxLLMCandidates]
	}
	return e.reranker.Rerank(ctx, q, subset)
}

// emptyResponse builds a well-formed response for zero candidates.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) emptyResponse(q Query, clock *stageClock) *Response {
	return &Response{
		Restaurants: []Recommendation{},
		Meta: Meta{
			TotalCandidates: 0,
			Returned:        0,
			LLMUsed:         false,
			RequestID:       q.RequestID,
			StageTimings:    clock.timings,
		},
	}
}

// Stats reports engine counters.
func (e *Engine) Stats() (requests, cacheHits, cacheMisses int64) {
	return e.requestCount.Load(), e.cacheHits.Load(), e.cacheMisses.Load()
}

// cacheKeyQuery is the canonical form hashed into a cache key. Cuisines
// are sorted so logically equal requests share an entry.
type cacheKeyQuery struct {
	Location   string   `json:"location"`
	Cuisines   []string `json:"cuisines"`
	MinRating  float64  `json:"min_rating"`
	BudgetMin  *int     `json:"budget_min"`
	BudgetMax  *int     `json:"budget_max"`
	MaxResults int      `json:"max_results"`
	UseLLM     bool     `json:"use_llm"`
	Context    string   `json:"context"`
}

// cacheKey derives a stable SHA-256 key from the canonical query JSON.
//
//nolint:gocritic // hugeParam: q passed by value for simplicity
func (e *Engine) cacheKey(q Query) string {
	cuisines := make([]string, len(q.Cuisines))
	copy(cuisines, q.Cuisines)
	sort.Strings(cuisines)

	payload, err := json.Marshal(cacheKeyQuery{
		Location:   q.Location,
		Cuisines:   cuisines,
		MinRating:  q.MinRating,
		BudgetMin:  q.BudgetMin,
		BudgetMax:  q.BudgetMax,
		MaxResults: q.MaxResults,
		UseLLM:     q.UseLLM,
		Context:    q.Context,
	})
	if err != nil {
		// Marshal of a plain struct cannot fail; fall back to a literal key.
		return fmt.Sprintf("q:%s:%v:%d", q.Location, q.Cuisines, q.MaxResults)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// tryGetCachedResponse returns a copy of a fresh cached response, if any.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) tryGetCachedResponse(q Query, logger zerolog.Logger) *Response {
	if !e.config.Cache.Enabled {
		return nil
	}

	resp := e.checkCache(e.cacheKey(q))
	if resp == nil {
		e.cacheMisses.Add(1)
		metrics.CacheMisses.Inc()
		return nil
	}

	e.cacheHits.Add(1)
	metrics.CacheHits.Inc()
	resp.Meta.CacheHit = true
	resp.Meta.RequestID = q.RequestID
	logger.Debug().Msg("response cache hit")
	return resp
}

// checkCache returns a copy of a valid cached response, or nil.
func (e *Engine) checkCache(key string) *Response {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return copyResponse(entry.response)
}

// copyResponse copies a response so cached entries are never mutated by
// callers.
func copyResponse(resp *Response) *Response {
	items := make([]Recommendation, len(resp.Restaurants))
	copy(items, resp.Restaurants)

	out := &Response{
		Restaurants: items,
		Summary:     resp.Summary,
		Meta:        resp.Meta,
	}
	out.Meta.StageTimings = make(map[string]int64, len(resp.Meta.StageTimings))
	for k, v := range resp.Meta.StageTimings {
		out.Meta.StageTimings[k] = v
	}
	return out
}

// cacheResponse stores a response if caching is enabled.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) cacheResponse(q Query, resp *Response) {
	if !e.config.Cache.Enabled {
		return
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		e.evictExpiredLocked()
	}
	if len(e.cache) >= e.config.Cache.MaxEntries {
		// Still full after eviction; drop the new entry rather than grow
		// without bound.
		return
	}

	e.cache[e.cacheKey(q)] = cacheEntry{
		response:  copyResponse(resp),
		expiresAt: time.Now().Add(e.config.Cache.TTL),
	}
}

// evictExpiredLocked removes expired cache entries. Caller holds cacheMu.
func (e *Engine) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, key)
		}
	}
}
