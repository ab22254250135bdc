// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the relative contribution of each scoring signal.
	Weights Weights `koanf:"weights" json:"weights"`

	// Limits contains operational ceilings.
	Limits Limits `koanf:"limits" json:"limits"`

	// Badges contains badge assignment thresholds.
	Badges BadgeConfig `koanf:"badges" json:"badges"`

	// Cache contains response caching parameters.
	Cache CacheConfig `koanf:"cache" json:"cache"`

	// Aliases maps a normalized location key to equivalent canonical
	// keys, expanded before filtering.
	Aliases map[string][]string `koanf:"aliases" json:"aliases"`

	// DefaultExplanation is used when an item has no LLM explanation.
	DefaultExplanation string `koanf:"default_explanation" json:"default_explanation"`
}

// Weights defines the heuristic score components. Weights are free
// parameters; they are not normalized at runtime.
type Weights struct {
	// Rating multiplies the normalized rating term (rating/5).
	Rating float64 `koanf:"rating" json:"rating"`

	// Popularity multiplies the log-scaled vote term (log10(1+votes)).
	Popularity float64 `koanf:"popularity" json:"popularity"`

	// Cuisine multiplies the fraction of requested cuisines matched.
	Cuisine float64 `koanf:"cuisine" json:"cuisine"`

	// ContextBonus is added per free-text context token matched against
	// the record's cuisine or type tokens.
	ContextBonus float64 `koanf:"context_bonus" json:"context_bonus"`
}

// Limits contains the operational ceilings of the pipeline.
type Limits struct {
	// CandidateCeiling bounds the candidate set emitted by filtering,
	// independent of how many records matched.
	CandidateCeiling int `koanf:"candidate_ceiling" json:"candidate_ceiling"`

	// HeuristicTopK bounds the scored sequence kept after the heuristic
	// stage.
	HeuristicTopK int `koanf:"heuristic_top_k" json:"heuristic_top_k"`

	// MaxLLMCandidates bounds the subset sent to the LLM stage. Must not
	// exceed HeuristicTopK.
	MaxLLMCandidates int `koanf:"max_llm_candidates" json:"max_llm_candidates"`

	// MaxResults caps the per-request max_results value.
	MaxResults int `koanf:"max_results" json:"max_results"`

	// MaxContextLen bounds the free-text context field, in bytes.
	MaxContextLen int `koanf:"max_context_len" json:"max_context_len"`
}

// BadgeConfig contains badge assignment thresholds.
type BadgeConfig struct {
	// TopRatedMin is the rating floor for the "Top Rated" badge.
	TopRatedMin float64 `koanf:"top_rated_min" json:"top_rated_min"`

	// PopularPercentile is the vote percentile floor for the
	// "Highly Popular" badge (0.9 = top decile of the returned set).
	PopularPercentile float64 `koanf:"popular_percentile" json:"popular_percentile"`

	// ValuePercentile is the cost percentile ceiling for the
	// "Best Value" badge (0.25 = bottom quartile of the returned set).
	ValuePercentile float64 `koanf:"value_percentile" json:"value_percentile"`

	// ValueRatingFloor is the minimum rating an item needs to be
	// considered for "Best Value".
	ValueRatingFloor float64 `koanf:"value_rating_floor" json:"value_rating_floor"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled" json:"enabled"`
	TTL        time.Duration `koanf:"ttl" json:"ttl"`
	MaxEntries int           `koanf:"max_entries" json:"max_entries"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
			Rating:       0.6,
			Popularity:   0.3,
			Cuisine:      0.1,
			ContextBonus: 0.05,
		},
		Limits: Limits{
			CandidateCeiling: 200,
			HeuristicTopK:    50,
			MaxLLMCandidates: 20,
			MaxResults:       50,
			MaxContextLen:    500,
		},
		Badges: BadgeConfig{
			TopRatedMin:       4.5,
			PopularPercentile: 0.9,
			ValuePercentile:   0.25,
			ValueRatingFloor:  4.0,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 256,
		},
		DefaultExplanation: "Solid overall option with balanced rating and cuisine fit.",
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Weights.Rating < 0 || c.Weights.Popularity < 0 || c.Weights.Cuisine < 0 || c.Weights.ContextBonus < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if c.Limits.CandidateCeiling <= 0 {
		return fmt.Errorf("candidate_ceiling must be positive, got %d", c.Limits.CandidateCeiling)
	}
	if c.Limits.HeuristicTopK <= 0 {
		return fmt.Errorf("heuristic_top_k must be positive, got %d", c.Limits.HeuristicTopK)
	}
	if c.Limits.MaxLLMCandidates <= 0 || c.Limits.MaxLLMCandidates > c.Limits.HeuristicTopK {
		return fmt.Errorf("max_llm_candidates must be in [1, heuristic_top_k], got %d", c.Limits.MaxLLMCandidates)
	}
	if c.Limits.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.Limits.MaxResults)
	}
	if c.Limits.MaxContextLen < 0 {
		return fmt.Errorf("max_context_len must be non-negative, got %d", c.Limits.MaxContextLen)
	}
	if c.Badges.PopularPercentile < 0 || c.Badges.PopularPercentile > 1 {
		return fmt.Errorf("popular_percentile must be in [0,1], got %f", c.Badges.PopularPercentile)
	}
	if c.Badges.ValuePercentile < 0 || c.Badges.ValuePercentile > 1 {
		return fmt.Errorf("value_percentile must be in [0,1], got %f", c.Badges.ValuePercentile)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache ttl must be positive when cache is enabled")
		}
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache max_entries must be positive when cache is enabled")
		}
	}
	if c.DefaultExplanation == "" {
		return fmt.Errorf("default_explanation must not be empty")
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Aliases != nil {
		clone.Aliases = make(map[string][]string, len(c.Aliases))
		for k, v := range c.Aliases {
			vs := make([]string, len(v))
			copy(vs, v)
			clone.Aliases[k] = vs
		}
	}
	return &clone
}
