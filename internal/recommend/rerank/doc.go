// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

// Package rerank reorders heuristic recommendation candidates through an
// LLM call. The call path is guarded by a circuit breaker with
// escalating cooldowns, bounded retries with exponential backoff, a
// per-process concurrency limit and strict validation of the model
// output. Every failure mode degrades to the heuristic order; the
// reranker can improve ordering but never make a request fail.
package rerank
