// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package rerank

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/raghavbk/savora/internal/recommend"
)

const promptInstructions = `You are a restaurant recommendation expert. Re-rank the candidate
restaurants for the user's preferences and explain each choice.

Respond with a single JSON object, no prose outside it:
{
  "rankings": [
    {"id": "<candidate id>", "rank": 1, "score": 0.95, "explanation": "<one sentence>"}
  ],
  "summary": "<one or two sentences about the overall set>"
}

Rules:
- Use only the candidate ids given below; never invent ids.
- Rank at least half of the candidates, ideally all of them.
- Assign each ranked candidate a distinct rank starting at 1.
- Score is optional; when given it must be between 0 and 1.
- Every ranking needs a short, specific, non-empty explanation.`

// promptPreferences is the user-preference block of the prompt.
type promptPreferences struct {
	Location  string   `json:"location"`
	Cuisines  []string `json:"cuisines,omitempty"`
	MinRating float64  `json:"min_rating,omitempty"`
	BudgetMin *int     `json:"budget_min,omitempty"`
	BudgetMax *int     `json:"budget_max,omitempty"`
	Context   string   `json:"context,omitempty"`
}

// promptCandidate is the compact per-candidate view sent to the model.
// The heuristic score is included so the model sees the baseline order.
type promptCandidate struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Cuisines       []string `json:"cuisines"`
	Rating         *float64 `json:"rating"`
	Votes          int      `json:"votes"`
	CostForTwo     *int     `json:"cost_for_two"`
	RestType       string   `json:"rest_type,omitempty"`
	HeuristicScore float64  `json:"heuristic_score"`
}

// buildPrompt assembles the full prompt: instructions, then the user's
// preferences and the candidate subset as JSON blocks.
func buildPrompt(query recommend.Query, candidates []recommend.ScoredCandidate) (string, error) {
	prefs := promptPreferences{
		Location:  query.Location,
		Cuisines:  query.Cuisines,
		MinRating: query.MinRating,
		BudgetMin: query.BudgetMin,
		BudgetMax: query.BudgetMax,
		Context:   query.Context,
	}

	views := make([]promptCandidate, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, promptCandidate{
			ID:             c.Restaurant.ID,
			Name:           c.Restaurant.Name,
			Cuisines:       c.Restaurant.Cuisines,
			Rating:         c.Restaurant.Rating,
			Votes:          c.Restaurant.Votes,
			CostForTwo:     c.Restaurant.CostForTwo,
			RestType:       c.Restaurant.RestType,
			HeuristicScore: c.Score,
		})
	}

	prefsJSON, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal preferences: %w", err)
	}
	candidatesJSON, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidates: %w", err)
	}

	var b strings.Builder
	b.WriteString(promptInstructions)
	b.WriteString("\n\nUser preferences:\n")
	b.Write(prefsJSON)
	b.WriteString("\n\nCandidates (in heuristic order):\n")
	b.Write(candidatesJSON)
	return b.String(), nil
}
