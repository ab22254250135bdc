// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockProvider implements CatalogProvider for testing.
type mockProvider struct {
	records []Restaurant
	err     error
	calls   int32
}

func (m *mockProvider) ByLocation(_ context.Context, keys []string) ([]Restaurant, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return nil, m.err
	}
	if len(keys) == 0 {
		return m.records, nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []Restaurant
	for _, r := range m.records {
		if want[r.Location] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockProvider) Count() int { return len(m.records) }

// mockReranker implements Reranker for testing.
type mockReranker struct {
	result    RerankResult
	state     string
	lastCount int32
	calls     int32
}

func (m *mockReranker) Rerank(_ context.Context, _ Query, candidates []ScoredCandidate) RerankResult {
	atomic.AddInt32(&m.calls, 1)
	atomic.StoreInt32(&m.lastCount, int32(len(candidates)))
	return m.result
}

func (m *mockReranker) State() string {
	if m.state == "" {
		return "closed"
	}
	return m.state
}

func newTestEngine(t *testing.T, records []Restaurant) (*Engine, *mockProvider) {
	t.Helper()
	engine, err := NewEngine(DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	provider := &mockProvider{records: records}
	engine.SetCatalogProvider(provider)
	return engine, provider
}

func TestRecommendHeuristicPath(t *testing.T) {
	engine, _ := newTestEngine(t, testRecords())

	resp, err := engine.Recommend(context.Background(), Query{Location: "Koramangala"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if resp.Meta.LLMUsed {
		t.Error("LLMUsed = true with no reranker")
	}
	if resp.Meta.TotalCandidates != 3 {
		t.Errorf("TotalCandidates = %d, want 3", resp.Meta.TotalCandidates)
	}
	if len(resp.Restaurants) != 3 {
		t.Fatalf("Returned %d, want 3", len(resp.Restaurants))
	}
	for i, it := range resp.Restaurants {
		if it.Rank != i+1 {
			t.Errorf("rank[%d] = %d, want contiguous", i, it.Rank)
		}
		if it.Score < 0 || it.Score > 1 {
			t.Errorf("score[%d] = %v outside [0,1]", i, it.Score)
		}
	}
	if resp.Restaurants[0].Score != 1.0 {
		t.Errorf("top score = %v, want 1.0", resp.Restaurants[0].Score)
	}
}

func TestRecommendSingleMatchScenario(t *testing.T) {
	records := []Restaurant{
		{ID: "only", Name: "Upahara Darshini", Location: "banashankari",
			Rating: fptr(4.1), Votes: 775, Cuisines: []string{"south indian"}, CostForTwo: iptr(800)},
		{ID: "other", Name: "Elsewhere", Location: "whitefield",
			Rating: fptr(4.8), Votes: 9000, Cuisines: []string{"italian"}, CostForTwo: iptr(1500)},
	}
	engine, _ := newTestEngine(t, records)

	resp, err := engine.Recommend(context.Background(), Query{
		Location:  "banashankari",
		Cuisines:  []string{"south indian"},
		MinRating: 4.0,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if len(resp.Restaurants) != 1 {
		t.Fatalf("Returned %d, want exactly 1", len(resp.Restaurants))
	}
	it := resp.Restaurants[0]
	if it.ID != "only" {
		t.Errorf("ID = %s, want only", it.ID)
	}
	if it.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", it.Score)
	}
	if !hasBadge(it, BadgeTopPick) {
		t.Error("missing Top Pick badge")
	}
}

func TestRecommendDeterministic(t *testing.T) {
	engine, _ := newTestEngine(t, testRecords())
	q := Query{Location: "koramangala", Cuisines: []string{"biryani"}, RequestID: "fixed"}

	first, err := engine.Recommend(context.Background(), q)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.Recommend(context.Background(), q)
		if err != nil {
			t.Fatalf("Recommend run %d: %v", i, err)
		}
		if len(again.Restaurants) != len(first.Restaurants) {
			t.Fatalf("run %d: lengths differ", i)
		}
		for j := range first.Restaurants {
			if again.Restaurants[j].ID != first.Restaurants[j].ID ||
				again.Restaurants[j].Score != first.Restaurants[j].Score {
				t.Fatalf("run %d differs at %d", i, j)
			}
		}
	}
}

func TestRecommendEmptyResult(t *testing.T) {
	engine, _ := newTestEngine(t, testRecords())

	resp, err := engine.Recommend(context.Background(), Query{Location: "nowhere"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.Restaurants == nil || len(resp.Restaurants) != 0 {
		t.Errorf("Restaurants = %v, want empty non-nil list", resp.Restaurants)
	}
	if resp.Meta.TotalCandidates != 0 || resp.Meta.Returned != 0 {
		t.Errorf("Meta = %+v, want zero counts", resp.Meta)
	}
}

func TestRecommendValidation(t *testing.T) {
	engine, _ := newTestEngine(t, testRecords())

	tests := []struct {
		name  string
		query Query
		field string
	}{
		{"min_rating above range", Query{MinRating: 5.5}, "min_rating"},
		{"min_rating below range", Query{MinRating: -1}, "min_rating"},
		{"negative budget_min", Query{BudgetMin: iptr(-5)}, "budget_min"},
		{"budget inversion", Query{BudgetMin: iptr(900), BudgetMax: iptr(100)}, "budget_max"},
		{"negative max_results", Query{MaxResults: -1}, "max_results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Recommend(context.Background(), tt.query)
			vErr, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", vErr.Field, tt.field)
			}
		})
	}
}

func TestRecommendNoProvider(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	_, err = engine.Recommend(context.Background(), Query{Location: "koramangala"})
	if err == nil {
		t.Fatal("expected error with no provider")
	}
	if _, ok := AsValidationError(err); ok {
		t.Error("provider error must not be a validation error")
	}
}

func TestRecommendProviderError(t *testing.T) {
	engine, provider := newTestEngine(t, testRecords())
	provider.err = errors.New("storage down")

	if _, err := engine.Recommend(context.Background(), Query{Location: "koramangala"}); err == nil {
		t.Fatal("expected provider error to surface")
	}
}

func TestRecommendLLMPath(t *testing.T) {
	engine, _ := newTestEngine(t, testRecords())
	reranker := &mockReranker{result: RerankResult{
		Outcome: RerankSuccess,
		Summary: "reordered",
		Items: []RankedItem{
			{ID: "r2", Rank: 1, Explanation: "Great biryani."},
			{ID: "r1", Rank: 2, Explanation: "Crowd favourite."},
		},
	}}
	engine.SetReranker(reranker)

	resp, err := engine.Recommend(context.Background(), Query{Location: "koramangala", UseLLM: true})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !resp.Meta.LLMUsed {
		t.Error("LLMUsed = false, want true")
	}
	if resp.Restaurants[0].ID != "r2" {
		t.Errorf("top = %s, want r2 (LLM order)", resp.Restaurants[0].ID)
	}
	if resp.Summary != "reordered" {
		t.Errorf("Summary = %q", resp.Summary)
	}
}

func TestRecommendLLMFailureFallsBack(t *testing.T) {
	engine, _ := newTestEngine(t, testRecords())

	heuristic, err := engine.Recommend(context.Background(), Query{Location: "koramangala"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	for _, outcome := range []RerankOutcome{RerankTransportFailure, RerankValidationFailure, RerankBreakerOpen} {
		t.Run(outcome.String(), func(t *testing.T) {
			engine.SetReranker(&mockReranker{result: RerankResult{Outcome: outcome, Err: errors.New("llm down")}})

			resp, err := engine.Recommend(context.Background(), Query{Location: "koramangala", UseLLM: true})
			if err != nil {
				t.Fatalf("Recommend: %v", err)
			}
			if resp.Meta.LLMUsed {
				t.Error("LLMUsed = true after failed rerank")
			}
			for i := range heuristic.Restaurants {
				if resp.Restaurants[i].ID != heuristic.Restaurants[i].ID {
					t.Errorf("order differs from heuristic at %d", i)
				}
			}
		})
	}
}

func TestRecommendSkipsRerankWithoutFlag(t *testing.T) {
	engine, _ := newTestEngine(t, testRecords())
	reranker := &mockReranker{result: RerankResult{Outcome: RerankSuccess}}
	engine.SetReranker(reranker)

	if _, err := engine.Recommend(context.Background(), Query{Location: "koramangala", UseLLM: false}); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if atomic.LoadInt32(&reranker.calls) != 0 {
		t.Error("reranker called although use_llm was false")
	}
}

func TestRecommendBoundsLLMSubset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxLLMCandidates = 2

	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	engine.SetCatalogProvider(&mockProvider{records: testRecords()})
	reranker := &mockReranker{result: RerankResult{Outcome: RerankSkipped}}
	engine.SetReranker(reranker)

	if _, err := engine.Recommend(context.Background(), Query{Location: "koramangala", UseLLM: true}); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if got := atomic.LoadInt32(&reranker.lastCount); got != 2 {
		t.Errorf("reranker received %d candidates, want 2", got)
	}
}

func TestRecommendMaxResultsDefaults(t *testing.T) {
	engine, _ := newTestEngine(t, testRecords())

	resp, err := engine.Recommend(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Restaurants) > 10 {
		t.Errorf("Returned %d, default cap is 10", len(resp.Restaurants))
	}
}

func TestRecommendCache(t *testing.T) {
	engine, provider := newTestEngine(t, testRecords())
	q := Query{Location: "koramangala"}

	first, err := engine.Recommend(context.Background(), q)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if first.Meta.CacheHit {
		t.Error("first request was a cache hit")
	}

	second, err := engine.Recommend(context.Background(), q)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !second.Meta.CacheHit {
		t.Error("second request was not a cache hit")
	}
	if atomic.LoadInt32(&provider.calls) != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}

	// LLM-path requests never share entries with heuristic ones.
	engine.SetReranker(&mockReranker{result: RerankResult{Outcome: RerankSkipped}})
	llmQ := q
	llmQ.UseLLM = true
	third, err := engine.Recommend(context.Background(), llmQ)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if third.Meta.CacheHit {
		t.Error("use_llm request hit the heuristic cache entry")
	}
}

func TestRecommendCacheExpiry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.TTL = 10 * time.Millisecond

	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	provider := &mockProvider{records: testRecords()}
	engine.SetCatalogProvider(provider)

	q := Query{Location: "koramangala"}
	if _, err := engine.Recommend(context.Background(), q); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	resp, err := engine.Recommend(context.Background(), q)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.Meta.CacheHit {
		t.Error("expired entry served as a cache hit")
	}
}

func TestRecommendLocationAliases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aliases = map[string][]string{"btm": {"btm layout"}}

	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	engine.SetCatalogProvider(&mockProvider{records: []Restaurant{
		{ID: "x", Name: "X", Location: "btm layout", Rating: fptr(4.2), Votes: 100},
	}})

	resp, err := engine.Recommend(context.Background(), Query{Location: "BTM"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Restaurants) != 1 {
		t.Fatalf("Returned %d, want alias-expanded match", len(resp.Restaurants))
	}
}

func TestRerankerState(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	if got := engine.RerankerState(); got != "disabled" {
		t.Errorf("RerankerState = %q, want disabled", got)
	}
	engine.SetReranker(&mockReranker{state: "open"})
	if got := engine.RerankerState(); got != "open" {
		t.Errorf("RerankerState = %q, want open", got)
	}
}
