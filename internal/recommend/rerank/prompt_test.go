// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package rerank

import (
	"strings"
	"testing"

	"github.com/raghavbk/savora/internal/recommend"
)

func TestBuildPrompt(t *testing.T) {
	rating := 4.5
	cost := 800
	budget := 1000
	query := recommend.Query{
		Location:  "koramangala",
		Cuisines:  []string{"biryani"},
		MinRating: 4.0,
		BudgetMax: &budget,
		Context:   "quiet dinner for two",
	}
	candidates := []recommend.ScoredCandidate{
		{
			Restaurant: recommend.Restaurant{
				ID: "abc123def456", Name: "Meghana Foods", Location: "koramangala",
				Rating: &rating, Votes: 7000, Cuisines: []string{"biryani", "andhra"},
				CostForTwo: &cost,
			},
			Score: 0.91,
		},
	}

	prompt, err := buildPrompt(query, candidates)
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}

	for _, want := range []string{
		`"abc123def456"`,
		"Meghana Foods",
		"quiet dinner for two",
		`"heuristic_score": 0.91`,
		"rankings",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, `"budget_min"`) {
		t.Error("unset budget_min should be omitted")
	}
}

func TestBuildPromptEmptyContext(t *testing.T) {
	prompt, err := buildPrompt(recommend.Query{Location: "indiranagar"}, nil)
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}
	if strings.Contains(prompt, `"context"`) {
		t.Error("empty context should be omitted")
	}
	if !strings.Contains(prompt, "indiranagar") {
		t.Error("prompt missing location")
	}
}
