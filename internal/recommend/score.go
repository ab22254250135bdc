// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package recommend

import (
	"math"
	"sort"
	"strings"
)

// scoreCandidates computes the deterministic heuristic score for every
// candidate, sorts descending and truncates to topK.
//
// Score components:
//   - normalized rating: rating/5, 0 when absent
//   - log-scaled popularity: log10(1+votes)
//   - cuisine bonus: matched fraction of the requested cuisine set
//   - context bonus: per free-text token matched against the record's
//     cuisine or type tokens
//
// Ties break by descending vote count, then ascending ID, so the output
// is fully reproducible. This stage does no I/O and uses no randomness.
func scoreCandidates(q Query, candidates []Restaurant, w Weights, topK int) []ScoredCandidate {
	requested := normalizeTokens(q.Cuisines)
	contextTokens := contextTokens(q.Context)

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, r := range candidates {
		scored = append(scored, ScoredCandidate{
			Restaurant: r,
			Score:      heuristicScore(r, requested, contextTokens, w),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Restaurant.Votes != b.Restaurant.Votes {
			return a.Restaurant.Votes > b.Restaurant.Votes
		}
		return a.Restaurant.ID < b.Restaurant.ID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// heuristicScore computes the weighted sum for a single record.
func heuristicScore(r Restaurant, requested, contextTokens []string, w Weights) float64 {
	var ratingTerm float64
	if r.Rating != nil {
		ratingTerm = *r.Rating / 5.0
	}

	votesTerm := math.Log10(1.0 + float64(r.Votes))

	var cuisineBonus float64
	if len(requested) > 0 {
		matched := 0
		have := make(map[string]struct{}, len(r.Cuisines))
		for _, c := range r.Cuisines {
			have[c] = struct{}{}
		}
		for _, c := range requested {
			if _, ok := have[c]; ok {
				matched++
			}
		}
		cuisineBonus = float64(matched) / float64(len(requested))
	}

	var contextBonus float64
	if len(contextTokens) > 0 {
		haystack := strings.ToLower(strings.Join(r.Cuisines, " ") + " " + r.RestType)
		for _, t := range contextTokens {
			if strings.Contains(haystack, t) {
				contextBonus++
			}
		}
	}

	return w.Rating*ratingTerm + w.Popularity*votesTerm + w.Cuisine*cuisineBonus + w.ContextBonus*contextBonus
}

// contextTokens extracts lowercase signal tokens from the free-text
// context, skipping short filler words.
func contextTokens(context string) []string {
	fields := strings.Fields(strings.ToLower(context))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:")
		if len(f) >= 4 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
