// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package recommend

import (
	"errors"
	"testing"
)

func scoredFixture() []ScoredCandidate {
	return []ScoredCandidate{
		{Restaurant: Restaurant{ID: "a", Name: "Alpha", Rating: fptr(4.6), Votes: 9000, CostForTwo: iptr(900)}, Score: 3.0},
		{Restaurant: Restaurant{ID: "b", Name: "Beta", Rating: fptr(4.2), Votes: 4000, CostForTwo: iptr(500)}, Score: 2.0},
		{Restaurant: Restaurant{ID: "c", Name: "Gamma", Rating: fptr(3.9), Votes: 800, CostForTwo: iptr(300)}, Score: 1.0},
	}
}

func TestAssembleHeuristicFallback(t *testing.T) {
	cfg := DefaultConfig()

	outcomes := []RerankOutcome{
		RerankSkipped,
		RerankTransportFailure,
		RerankValidationFailure,
		RerankBreakerOpen,
	}

	for _, outcome := range outcomes {
		t.Run(outcome.String(), func(t *testing.T) {
			rr := RerankResult{Outcome: outcome, Err: errors.New("boom")}
			items, summary, llmUsed := assemble(scoredFixture(), rr, cfg, 10)

			if llmUsed {
				t.Error("llmUsed = true for a failed rerank")
			}
			if summary != "" {
				t.Errorf("summary = %q, want empty", summary)
			}
			wantIDs := []string{"a", "b", "c"}
			for i, want := range wantIDs {
				if items[i].ID != want {
					t.Errorf("items[%d] = %s, want %s (heuristic order)", i, items[i].ID, want)
				}
			}
		})
	}
}

func TestAssembleAppliesLLMOrder(t *testing.T) {
	cfg := DefaultConfig()
	rr := RerankResult{
		Outcome: RerankSuccess,
		Summary: "spice-forward picks first",
		Items: []RankedItem{
			{ID: "c", Rank: 1, Explanation: "Budget-friendly and well loved."},
			{ID: "a", Rank: 2, Explanation: "A local institution."},
			{ID: "b", Rank: 3, Explanation: "Reliable middle ground."},
		},
	}

	items, summary, llmUsed := assemble(scoredFixture(), rr, cfg, 10)

	if !llmUsed {
		t.Fatal("llmUsed = false, want true")
	}
	if summary != "spice-forward picks first" {
		t.Errorf("summary = %q", summary)
	}
	wantIDs := []string{"c", "a", "b"}
	for i, want := range wantIDs {
		if items[i].ID != want {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ID, want)
		}
		if items[i].Rank != i+1 {
			t.Errorf("items[%d].Rank = %d, want %d", i, items[i].Rank, i+1)
		}
	}
	if items[0].Explanation != "Budget-friendly and well loved." {
		t.Errorf("explanation not carried: %q", items[0].Explanation)
	}
}

func TestAssembleDiscardsUnknownIDsAndAppendsOmitted(t *testing.T) {
	cfg := DefaultConfig()
	rr := RerankResult{
		Outcome: RerankSuccess,
		Items: []RankedItem{
			{ID: "b", Rank: 1, Explanation: "Best fit."},
			{ID: "zzz", Rank: 2, Explanation: "Hallucinated."},
		},
	}

	items, _, _ := assemble(scoredFixture(), rr, cfg, 10)

	wantIDs := []string{"b", "a", "c"} // ranked first, omitted in heuristic order
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i, want := range wantIDs {
		if items[i].ID != want {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ID, want)
		}
	}
	for _, it := range items {
		if it.ID == "zzz" {
			t.Error("unknown ID survived assembly")
		}
	}
}

func TestAssembleTruncatesToMaxResults(t *testing.T) {
	cfg := DefaultConfig()

	items, _, _ := assemble(scoredFixture(), RerankResult{Outcome: RerankSkipped}, cfg, 2)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	// Ranks stay contiguous after truncation.
	for i, it := range items {
		if it.Rank != i+1 {
			t.Errorf("items[%d].Rank = %d, want %d", i, it.Rank, i+1)
		}
	}
}

func TestAssembleDefaultExplanation(t *testing.T) {
	cfg := DefaultConfig()

	items, _, _ := assemble(scoredFixture(), RerankResult{Outcome: RerankSkipped}, cfg, 10)
	for i, it := range items {
		if it.Explanation != cfg.DefaultExplanation {
			t.Errorf("items[%d].Explanation = %q, want default", i, it.Explanation)
		}
	}
}

func TestNormalizeScores(t *testing.T) {
	t.Run("min max over returned set", func(t *testing.T) {
		got := normalizeScores(scoredFixture())
		want := []float64{1.0, 0.5, 0.0}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("score[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("all equal maps to one", func(t *testing.T) {
		equal := []ScoredCandidate{
			{Restaurant: Restaurant{ID: "a"}, Score: 2.5},
			{Restaurant: Restaurant{ID: "b"}, Score: 2.5},
		}
		for _, v := range normalizeScores(equal) {
			if v != 1.0 {
				t.Errorf("score = %v, want 1.0", v)
			}
		}
	})

	t.Run("single candidate scores one", func(t *testing.T) {
		one := []ScoredCandidate{{Restaurant: Restaurant{ID: "a"}, Score: 0.123}}
		if got := normalizeScores(one); got[0] != 1.0 {
			t.Errorf("score = %v, want 1.0", got[0])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := normalizeScores(nil); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})
}

func TestDedupeByID(t *testing.T) {
	dup := []ScoredCandidate{
		{Restaurant: Restaurant{ID: "a"}, Score: 3},
		{Restaurant: Restaurant{ID: "b"}, Score: 2},
		{Restaurant: Restaurant{ID: "a"}, Score: 1},
	}

	got := dedupeByID(dup)
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	if got[0].Restaurant.ID != "a" || got[0].Score != 3 {
		t.Error("dedupe did not keep the first occurrence")
	}
}

func TestAssignBadges(t *testing.T) {
	cfg := DefaultConfig()

	items, _, _ := assemble(scoredFixture(), RerankResult{Outcome: RerankSkipped}, cfg, 10)

	if !hasBadge(items[0], BadgeTopPick) {
		t.Error("rank 1 missing Top Pick")
	}
	for _, it := range items[1:] {
		if hasBadge(it, BadgeTopPick) {
			t.Errorf("%s has Top Pick but is not rank 1", it.ID)
		}
	}
	// Alpha: rating 4.6 >= 4.5.
	if !hasBadge(items[0], BadgeTopRated) {
		t.Error("Alpha missing Top Rated")
	}
	if hasBadge(items[1], BadgeTopRated) {
		t.Error("Beta has Top Rated below the floor")
	}
	// Gamma has the bottom-quartile cost but rating 3.9 < value floor 4.0.
	for _, it := range items {
		if it.ID == "c" && hasBadge(it, BadgeBestValue) {
			t.Error("Gamma has Best Value below the rating floor")
		}
	}
}

func TestAssignBadgesSingleMatch(t *testing.T) {
	cfg := DefaultConfig()
	single := []ScoredCandidate{
		{Restaurant: Restaurant{ID: "x", Name: "Solo", Rating: fptr(4.1), Votes: 775, CostForTwo: iptr(800)}, Score: 1.7},
	}

	items, _, _ := assemble(single, RerankResult{Outcome: RerankSkipped}, cfg, 10)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	it := items[0]
	if it.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0 for a singleton", it.Score)
	}
	if !hasBadge(it, BadgeTopPick) {
		t.Error("singleton missing Top Pick")
	}
	if hasBadge(it, BadgeTopRated) {
		t.Error("4.1 rating should not earn Top Rated")
	}
}

func hasBadge(it Recommendation, badge string) bool {
	for _, b := range it.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

func TestQuantileInt(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		q      float64
		want   int
	}{
		{"median of odd set", []int{1, 2, 3, 4, 5}, 0.5, 3},
		{"top decile", []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, 0.9, 90},
		{"bottom quartile", []int{100, 200, 300, 400}, 0.25, 100},
		{"single value", []int{7}, 0.9, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quantileInt(tt.values, tt.q); got != tt.want {
				t.Errorf("quantileInt = %d, want %d", got, tt.want)
			}
		})
	}
}
