// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package llm

import "fmt"

// Provider identifies an LLM backend.
type Provider string

// Supported providers.
const (
	ProviderGemini Provider = "gemini"
)

// Config holds LLM provider configuration.
type Config struct {
	// Enabled globally gates the re-ranking stage. Per-request opt-in is
	// still required via the query's use_llm flag.
	Enabled bool `koanf:"enabled"`

	// Provider selects the backend. Default: gemini.
	Provider Provider `koanf:"provider"`

	// Model is the provider model identifier.
	Model string `koanf:"model"`

	// APIKey authenticates against the provider. Set via environment
	// only; never put keys in config files.
	APIKey string `koanf:"api_key"`

	// RequestsPerSecond limits outbound calls client-side.
	// Zero disables the limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// DefaultConfig returns the default LLM configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:           false,
		Provider:          ProviderGemini,
		Model:             "gemini-1.5-flash",
		RequestsPerSecond: 0,
	}
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("llm provider must not be empty")
	}
	if c.Enabled {
		switch c.Provider {
		case ProviderGemini:
		default:
			return fmt.Errorf("unsupported llm provider %q", c.Provider)
		}
	}
	if c.Model == "" {
		return fmt.Errorf("llm model must not be empty")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("llm requests_per_second must be non-negative")
	}
	return nil
}
