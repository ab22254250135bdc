// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/raghavbk/savora/internal/catalog"
	"github.com/raghavbk/savora/internal/llm"
	"github.com/raghavbk/savora/internal/logging"
	"github.com/raghavbk/savora/internal/recommend"
	"github.com/raghavbk/savora/internal/recommend/rerank"
)

// DefaultConfigPaths lists config file locations in priority order. The
// first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/savora/config.yaml",
	"/etc/savora/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every setting at its built-in
// default.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			RequestTimeout:  10 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Catalog:   catalog.DefaultConfig(),
		Recommend: *recommend.DefaultConfig(),
		Rerank:    rerank.DefaultConfig(),
		LLM:       llm.DefaultConfig(),
		Logging:   logging.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, an optional YAML file
// and environment variables, in that order of precedence (env wins).
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths that accept comma-separated env
// values.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices for
// the known slice fields. YAML values arrive as slices already.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to config paths.
// Unmapped variables are skipped so unrelated environment noise never
// pollutes the configuration.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - CATALOG_PATH -> catalog.path
//   - GEMINI_API_KEY -> llm.api_key
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":             "server.host",
		"http_port":             "server.port",
		"http_request_timeout":  "server.request_timeout",
		"http_read_timeout":     "server.read_timeout",
		"http_write_timeout":    "server.write_timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",
		"cors_origins":          "server.cors_origins",

		// Catalog mappings
		"catalog_path":  "catalog.path",
		"catalog_limit": "catalog.limit",

		// Recommendation engine mappings
		"recommend_weight_rating":        "recommend.weights.rating",
		"recommend_weight_popularity":    "recommend.weights.popularity",
		"recommend_weight_cuisine":       "recommend.weights.cuisine",
		"recommend_weight_context_bonus": "recommend.weights.context_bonus",
		"recommend_candidate_ceiling":    "recommend.limits.candidate_ceiling",
		"recommend_heuristic_top_k":      "recommend.limits.heuristic_top_k",
		"recommend_max_llm_candidates":   "recommend.limits.max_llm_candidates",
		"recommend_max_results":          "recommend.limits.max_results",
		"recommend_cache_enabled":        "recommend.cache.enabled",
		"recommend_cache_ttl":            "recommend.cache.ttl",
		"recommend_cache_max_entries":    "recommend.cache.max_entries",

		// Rerank mappings
		"rerank_timeout":                   "rerank.timeout",
		"rerank_max_retries":               "rerank.max_retries",
		"rerank_retry_initial_interval":    "rerank.retry_initial_interval",
		"rerank_max_in_flight":             "rerank.max_in_flight",
		"rerank_breaker_failure_threshold": "rerank.breaker.failure_threshold",
		"rerank_breaker_cooldown":          "rerank.breaker.cooldown",
		"rerank_breaker_max_cooldown":      "rerank.breaker.max_cooldown",

		// LLM mappings. The API key comes from the environment only;
		// it is deliberately absent from config files.
		"llm_enabled":             "llm.enabled",
		"llm_provider":            "llm.provider",
		"llm_model":               "llm.model",
		"llm_requests_per_second": "llm.requests_per_second",
		"gemini_api_key":          "llm.api_key",
		"llm_api_key":             "llm.api_key",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
