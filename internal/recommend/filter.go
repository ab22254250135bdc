// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package recommend

import "strings"

// normalizeToken canonicalizes a location or cuisine token.
func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeTokens canonicalizes a token set, dropping empties.
func normalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if n := normalizeToken(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// filterCandidates applies the hard constraints of a request to the record
// collection and returns the bounded candidate set.
//
// Candidates are emitted in stable input order; when the matched count
// exceeds the ceiling, the first N matches in that order are kept. The
// tail is therefore lost arbitrarily rather than by any quality measure,
// a known limitation of this stage.
//
// locationKeys is the already-resolved set of canonical location keys
// (the requested key plus any aliases); empty means no location
// constraint.
func filterCandidates(q Query, locationKeys []string, records []Restaurant, ceiling int) []Restaurant {
	locations := make(map[string]struct{}, len(locationKeys))
	for _, k := range locationKeys {
		if k = normalizeToken(k); k != "" {
			locations[k] = struct{}{}
		}
	}

	cuisines := make(map[string]struct{})
	for _, c := range normalizeTokens(q.Cuisines) {
		cuisines[c] = struct{}{}
	}

	candidates := make([]Restaurant, 0, min(len(records), ceiling))
	for _, r := range records {
		if !matchesLocation(r, locations) {
			continue
		}
		if !matchesRating(r, q.MinRating) {
			continue
		}
		if !matchesBudget(r, q.BudgetMin, q.BudgetMax) {
			continue
		}
		if !matchesCuisines(r, cuisines) {
			continue
		}

		candidates = append(candidates, r)
		if len(candidates) >= ceiling {
			break
		}
	}

	return candidates
}

// matchesLocation requires exact equality against one of the canonical
// keys. No fuzzy matching; alias expansion happens upstream.
func matchesLocation(r Restaurant, locations map[string]struct{}) bool {
	if len(locations) == 0 {
		return true
	}
	_, ok := locations[r.Location]
	return ok
}

// matchesRating enforces the minimum rating floor. Records without a
// rating are excluded whenever a positive floor is requested.
func matchesRating(r Restaurant, minRating float64) bool {
	if minRating <= 0 {
		return true
	}
	if r.Rating == nil {
		return false
	}
	return *r.Rating >= minRating
}

// matchesBudget enforces the inclusive [min,max] cost band. A record with
// no cost passes: missing data must not discard otherwise-good matches.
func matchesBudget(r Restaurant, budgetMin, budgetMax *int) bool {
	if r.CostForTwo == nil {
		return true
	}
	if budgetMin != nil && *r.CostForTwo < *budgetMin {
		return false
	}
	if budgetMax != nil && *r.CostForTwo > *budgetMax {
		return false
	}
	return true
}

// matchesCuisines requires a non-empty intersection with the requested
// cuisine set. An empty request set matches everything.
func matchesCuisines(r Restaurant, cuisines map[string]struct{}) bool {
	if len(cuisines) == 0 {
		return true
	}
	for _, c := range r.Cuisines {
		if _, ok := cuisines[c]; ok {
			return true
		}
	}
	return false
}
