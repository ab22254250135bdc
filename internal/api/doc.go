// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

// Package api provides the HTTP surface: the recommendation endpoint,
// dataset filter metadata, health probes and Prometheus metrics, wired
// through a Chi router with request-ID, logging, recovery and CORS
// middleware.
package api
