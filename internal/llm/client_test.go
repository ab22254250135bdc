// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package llm

import (
	"context"
	"testing"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json untouched", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{}\n```\n ", "{}"},
		{"no fence with whitespace", "  {\"a\": 1} ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSONBlock(tt.in); got != tt.want {
				t.Errorf("CleanJSONBlock(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled needs nothing", func(c *Config) { c.Enabled = false; c.APIKey = "" }, false},
		{"enabled with key", func(c *Config) { c.Enabled = true; c.APIKey = "k" }, false},
		{"unknown provider", func(c *Config) { c.Enabled = true; c.APIKey = "k"; c.Provider = "openai" }, true},
		{"empty model", func(c *Config) { c.Enabled = true; c.APIKey = "k"; c.Model = "" }, true},
		{"negative rate", func(c *Config) { c.Enabled = true; c.APIKey = "k"; c.RequestsPerSecond = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.APIKey = "k"
	cfg.Provider = "mystery"

	if _, err := NewClient(context.Background(), cfg); err == nil {
		t.Error("NewClient accepted an unknown provider")
	}
}
