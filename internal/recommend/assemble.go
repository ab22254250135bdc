// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package recommend

import (
	"math"
	"sort"
)

// Badge labels assigned by the assembler.
const (
	BadgeTopPick       = "Top Pick"
	BadgeTopRated      = "Top Rated"
	BadgeHighlyPopular = "Highly Popular"
	BadgeBestValue     = "Best Value"
)

// assemble merges the heuristic ordering with an optional LLM reordering
// into the final recommendation sequence, capped at maxResults.
//
// The rerank result is consumed with an exhaustive outcome switch: only a
// successful result changes the ordering, every failure outcome falls
// back to the heuristic order.
func assemble(scored []ScoredCandidate, rr RerankResult, cfg *Config, maxResults int) ([]Recommendation, string, bool) {
	var (
		ordered []ScoredCandidate
		summary string
		llmUsed bool
	)

	switch rr.Outcome {
	case RerankSuccess:
		ordered = applyLLMOrder(scored, rr.Items)
		summary = rr.Summary
		llmUsed = true
	case RerankSkipped, RerankTransportFailure, RerankValidationFailure, RerankBreakerOpen:
		ordered = scored
	default:
		ordered = scored
	}

	ordered = dedupeByID(ordered)
	if len(ordered) > maxResults {
		ordered = ordered[:maxResults]
	}

	return finalize(ordered, cfg), summary, llmUsed
}

// applyLLMOrder reorders candidates by the validated LLM ranking.
// Identifiers outside the heuristic subset are dropped (defense in depth;
// the reranker already validated them) and any candidate the LLM omitted
// is appended after the ranked ones, preserving heuristic order among the
// leftovers. The result therefore always covers the full subset.
func applyLLMOrder(scored []ScoredCandidate, items []RankedItem) []ScoredCandidate {
	byID := make(map[string]int, len(scored))
	for i, sc := range scored {
		byID[sc.Restaurant.ID] = i
	}

	ranked := make([]RankedItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })

	out := make([]ScoredCandidate, 0, len(scored))
	taken := make(map[string]struct{}, len(ranked))
	for _, item := range ranked {
		idx, ok := byID[item.ID]
		if !ok {
			continue
		}
		if _, dup := taken[item.ID]; dup {
			continue
		}
		taken[item.ID] = struct{}{}

		sc := scored[idx]
		sc.LLMRank = item.Rank
		sc.LLMScore = item.Score
		sc.Explanation = item.Explanation
		out = append(out, sc)
	}

	for _, sc := range scored {
		if _, ok := taken[sc.Restaurant.ID]; !ok {
			out = append(out, sc)
		}
	}
	return out
}

// dedupeByID collapses repeated identifiers, keeping the first
// (highest-ranked) occurrence. Upstream stages should never emit
// duplicates; this is a defensive guard.
func dedupeByID(ordered []ScoredCandidate) []ScoredCandidate {
	seen := make(map[string]struct{}, len(ordered))
	out := ordered[:0:len(ordered)]
	for _, sc := range ordered {
		if _, ok := seen[sc.Restaurant.ID]; ok {
			continue
		}
		seen[sc.Restaurant.ID] = struct{}{}
		out = append(out, sc)
	}
	return out
}

// finalize builds the response items: contiguous 1-based ranks,
// normalized scores, explanation defaults and derived badges.
func finalize(ordered []ScoredCandidate, cfg *Config) []Recommendation {
	out := make([]Recommendation, 0, len(ordered))
	scores := normalizeScores(ordered)

	for i, sc := range ordered {
		r := sc.Restaurant
		explanation := sc.Explanation
		if explanation == "" {
			explanation = cfg.DefaultExplanation
		}

		out = append(out, Recommendation{
			ID:           r.ID,
			Name:         r.Name,
			Location:     r.Location,
			Rating:       r.Rating,
			Votes:        r.Votes,
			Cuisines:     r.Cuisines,
			CostForTwo:   r.CostForTwo,
			RestType:     r.RestType,
			OnlineOrder:  r.OnlineOrder,
			TableBooking: r.TableBooking,
			Rank:         i + 1,
			Score:        scores[i],
			Explanation:  explanation,
			LLMScore:     sc.LLMScore,
			Badges:       []string{},
		})
	}

	assignBadges(out, cfg.Badges)
	return out
}

// normalizeScores rescales heuristic scores to [0,1] with min-max
// normalization over the returned set only. When every score is equal the
// whole set maps to 1.0, avoiding a zero division; this also makes the
// normalization idempotent.
func normalizeScores(ordered []ScoredCandidate) []float64 {
	out := make([]float64, len(ordered))
	if len(ordered) == 0 {
		return out
	}

	lo, hi := ordered[0].Score, ordered[0].Score
	for _, sc := range ordered[1:] {
		lo = math.Min(lo, sc.Score)
		hi = math.Max(hi, sc.Score)
	}

	if hi == lo {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}

	for i, sc := range ordered {
		out[i] = (sc.Score - lo) / (hi - lo)
	}
	return out
}

// assignBadges derives badges over the already-finalized list. The
// percentile thresholds need two passes: one to collect the
// distributions, one to label.
func assignBadges(items []Recommendation, cfg BadgeConfig) {
	if len(items) == 0 {
		return
	}

	votes := make([]int, 0, len(items))
	costs := make([]int, 0, len(items))
	for _, it := range items {
		votes = append(votes, it.Votes)
		if it.CostForTwo != nil {
			costs = append(costs, *it.CostForTwo)
		}
	}

	votesThreshold := quantileInt(votes, cfg.PopularPercentile)
	hasCosts := len(costs) > 0
	costThreshold := 0
	if hasCosts {
		costThreshold = quantileInt(costs, cfg.ValuePercentile)
	}

	for i := range items {
		it := &items[i]
		if it.Rank == 1 {
			it.Badges = append(it.Badges, BadgeTopPick)
		}
		if it.Rating != nil && *it.Rating >= cfg.TopRatedMin {
			it.Badges = append(it.Badges, BadgeTopRated)
		}
		if it.Votes >= votesThreshold {
			it.Badges = append(it.Badges, BadgeHighlyPopular)
		}
		if hasCosts && it.CostForTwo != nil && *it.CostForTwo <= costThreshold &&
			it.Rating != nil && *it.Rating >= cfg.ValueRatingFloor {
			it.Badges = append(it.Badges, BadgeBestValue)
		}
	}
}

// quantileInt returns the nearest-rank q-quantile of values.
func quantileInt(values []int, q float64) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
