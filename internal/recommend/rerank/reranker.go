// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package rerank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"golang.org/x/sync/semaphore"

	"github.com/raghavbk/savora/internal/llm"
	"github.com/raghavbk/savora/internal/logging"
	"github.com/raghavbk/savora/internal/metrics"
	"github.com/raghavbk/savora/internal/recommend"
)

// ErrInvalidResponse marks a structurally invalid model response. It is
// distinct from transport errors so callers can tell "the model is
// unreachable" apart from "the model is talking nonsense"; both count
// toward the circuit breaker.
var ErrInvalidResponse = errors.New("rerank: invalid model response")

// Config configures the LLM reranker.
type Config struct {
	// Timeout bounds a single model call attempt.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries is the number of retries after the first attempt.
	// Retries apply to transport failures only; an invalid response is
	// returned immediately.
	MaxRetries int `koanf:"max_retries"`

	// RetryInitialInterval is the base backoff interval between retries.
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`

	// MaxInFlight bounds concurrent model calls across all requests.
	MaxInFlight int64 `koanf:"max_in_flight"`

	// MaxExplanationLen bounds per-item explanation length in runes.
	MaxExplanationLen int `koanf:"max_explanation_len"`

	// Breaker configures the circuit breaker guarding the call path.
	Breaker BreakerConfig `koanf:"breaker"`
}

// DefaultConfig returns the default reranker configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:              2 * time.Second,
		MaxRetries:           1,
		RetryInitialInterval: 200 * time.Millisecond,
		MaxInFlight:          8,
		MaxExplanationLen:    280,
		Breaker:              DefaultBreakerConfig(),
	}
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("rerank timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("rerank max_retries must be non-negative")
	}
	if c.MaxInFlight <= 0 {
		return fmt.Errorf("rerank max_in_flight must be positive")
	}
	if c.MaxExplanationLen <= 0 {
		return fmt.Errorf("rerank max_explanation_len must be positive")
	}
	return c.Breaker.Validate()
}

// Reranker reorders heuristic candidates through an LLM call guarded by
// a circuit breaker, bounded retries and a concurrency limit. It
// implements recommend.Reranker.
type Reranker struct {
	cfg     Config
	client  llm.Client
	breaker *Breaker
	sem     *semaphore.Weighted
}

// llmResponse is the JSON envelope the model is instructed to return.
type llmResponse struct {
	Rankings []llmRanking `json:"rankings"`
	Summary  string       `json:"summary"`
}

type llmRanking struct {
	ID          string   `json:"id"`
	Rank        int      `json:"rank"`
	Score       *float64 `json:"score"`
	Explanation string   `json:"explanation"`
}

// New creates a Reranker backed by the given model client.
func New(cfg Config, client llm.Client) (*Reranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rerank config: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("rerank: client is required")
	}
	return &Reranker{
		cfg:     cfg,
		client:  client,
		breaker: NewBreaker(cfg.Breaker),
		sem:     semaphore.NewWeighted(cfg.MaxInFlight),
	}, nil
}

// State reports the circuit breaker state.
func (r *Reranker) State() string {
	return r.breaker.State()
}

// Rerank submits the candidate subset to the model and returns a tagged
// result. It never mutates candidates; on any failure the caller falls
// back to heuristic order.
func (r *Reranker) Rerank(ctx context.Context, query recommend.Query, candidates []recommend.ScoredCandidate) recommend.RerankResult {
	if len(candidates) == 0 {
		return recommend.RerankResult{Outcome: recommend.RerankSkipped}
	}

	log := logging.Ctx(ctx).With().Str("component", "rerank").Logger()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		// Context expired while queued for a slot.
		return r.failure(recommend.RerankTransportFailure, fmt.Errorf("rerank: acquire slot: %w", err))
	}
	defer r.sem.Release(1)

	prompt, err := buildPrompt(query, candidates)
	if err != nil {
		return r.failure(recommend.RerankTransportFailure, fmt.Errorf("rerank: build prompt: %w", err))
	}

	start := time.Now()
	result, err := r.breaker.Execute(func() (any, error) {
		raw, callErr := r.callWithRetry(ctx, prompt)
		if callErr != nil {
			return nil, callErr
		}
		// Validation runs inside the breaker so garbage output counts
		// as a failure and eventually opens the circuit.
		return r.parseAndValidate(raw, candidates)
	})
	metrics.LLMCallDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := classify(err)
		if outcome != recommend.RerankBreakerOpen {
			log.Warn().Err(err).Str("outcome", outcome.String()).
				Int("candidates", len(candidates)).
				Msg("rerank failed, falling back to heuristic order")
		} else {
			log.Debug().Msg("rerank skipped, circuit breaker open")
		}
		return r.failure(outcome, err)
	}

	parsed := result.(*llmResponse)
	items := make([]recommend.RankedItem, 0, len(parsed.Rankings))
	for _, rk := range parsed.Rankings {
		items = append(items, recommend.RankedItem{
			ID:          rk.ID,
			Rank:        rk.Rank,
			Score:       rk.Score,
			Explanation: rk.Explanation,
		})
	}

	metrics.LLMCalls.WithLabelValues(recommend.RerankSuccess.String()).Inc()
	log.Debug().Int("ranked", len(items)).
		Dur("duration", time.Since(start)).
		Msg("rerank succeeded")

	return recommend.RerankResult{
		Outcome: recommend.RerankSuccess,
		Items:   items,
		Summary: parsed.Summary,
	}
}

// failure records the outcome metric and wraps the error.
func (r *Reranker) failure(outcome recommend.RerankOutcome, err error) recommend.RerankResult {
	metrics.LLMCalls.WithLabelValues(outcome.String()).Inc()
	return recommend.RerankResult{Outcome: outcome, Err: err}
}

// classify maps an error from the guarded call to a rerank outcome.
func classify(err error) recommend.RerankOutcome {
	switch {
	case errors.Is(err, ErrBreakerOpen):
		return recommend.RerankBreakerOpen
	case errors.Is(err, ErrInvalidResponse):
		return recommend.RerankValidationFailure
	default:
		return recommend.RerankTransportFailure
	}
}

// callWithRetry performs the model call with per-attempt timeouts and
// bounded exponential backoff. Invalid-response errors are permanent: a
// model that answered is reachable, retrying the same prompt is unlikely
// to help within the request budget.
func (r *Reranker) callWithRetry(ctx context.Context, prompt string) (string, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(r.cfg.RetryInitialInterval),
		),
		uint64(r.cfg.MaxRetries),
	), ctx)

	var raw string
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()

		out, err := r.client.GenerateJSON(attemptCtx, prompt)
		if err != nil {
			return fmt.Errorf("llm call: %w", err)
		}
		raw = out
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return raw, nil
}

// parseAndValidate decodes the raw model output and enforces the output
// contract: known IDs only, no duplicates, ranks forming a permutation
// of 1..n, scores within [0,1] when present, and non-empty bounded
// explanations. Any violation rejects the entire response.
func (r *Reranker) parseAndValidate(raw string, candidates []recommend.ScoredCandidate) (*llmResponse, error) {
	cleaned := llm.CleanJSONBlock(raw)

	var resp llmResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidResponse, err)
	}
	if len(resp.Rankings) == 0 {
		return nil, fmt.Errorf("%w: empty rankings", ErrInvalidResponse)
	}
	// Partial coverage is tolerated (the assembler appends the leftovers),
	// but a response covering under half the submitted subset is rejected.
	if len(resp.Rankings)*2 < len(candidates) {
		return nil, fmt.Errorf("%w: %d rankings cover under half of %d candidates",
			ErrInvalidResponse, len(resp.Rankings), len(candidates))
	}
	if len(resp.Rankings) > len(candidates) {
		return nil, fmt.Errorf("%w: %d rankings for %d candidates",
			ErrInvalidResponse, len(resp.Rankings), len(candidates))
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.Restaurant.ID] = true
	}

	seenIDs := make(map[string]bool, len(resp.Rankings))
	seenRanks := make(map[int]bool, len(resp.Rankings))
	for i := range resp.Rankings {
		rk := &resp.Rankings[i]

		if !known[rk.ID] {
			return nil, fmt.Errorf("%w: unknown id %q", ErrInvalidResponse, rk.ID)
		}
		if seenIDs[rk.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidResponse, rk.ID)
		}
		seenIDs[rk.ID] = true

		if rk.Rank < 1 || rk.Rank > len(resp.Rankings) {
			return nil, fmt.Errorf("%w: rank %d out of range [1,%d]",
				ErrInvalidResponse, rk.Rank, len(resp.Rankings))
		}
		if seenRanks[rk.Rank] {
			return nil, fmt.Errorf("%w: duplicate rank %d", ErrInvalidResponse, rk.Rank)
		}
		seenRanks[rk.Rank] = true

		if rk.Score != nil && (*rk.Score < 0 || *rk.Score > 1) {
			return nil, fmt.Errorf("%w: score %v outside [0,1]", ErrInvalidResponse, *rk.Score)
		}

		rk.Explanation = strings.TrimSpace(rk.Explanation)
		if rk.Explanation == "" {
			return nil, fmt.Errorf("%w: empty explanation for id %q", ErrInvalidResponse, rk.ID)
		}
		if runes := []rune(rk.Explanation); len(runes) > r.cfg.MaxExplanationLen {
			rk.Explanation = string(runes[:r.cfg.MaxExplanationLen])
		}
	}

	return &resp, nil
}
