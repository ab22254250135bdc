// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

// Package config loads layered application configuration with Koanf:
// built-in defaults, then an optional YAML file, then environment
// variables. Secrets such as the LLM API key are accepted from the
// environment only.
package config
