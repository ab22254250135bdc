// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

// Package recommend implements the hybrid recommendation pipeline.
//
// A request flows through four stages:
//
//	filter   - hard constraints (location, rating floor, budget band,
//	           cuisine overlap) narrow the catalog to a bounded
//	           candidate set
//	score    - a deterministic weighted heuristic orders the candidates
//	rerank   - optionally, a bounded top subset is sent to an external
//	           LLM for re-ordering with explanations, behind a circuit
//	           breaker (see the rerank sub-package)
//	assemble - heuristic and LLM orders are merged, scores normalized to
//	           [0,1], badges derived, duplicates collapsed and the
//	           result capped at the requested size
//
// The pipeline never fails past request validation: any problem in the
// LLM stage (timeout, invalid output, open breaker) degrades to the
// heuristic-only ordering, so Recommend always returns a well-formed,
// possibly empty, response.
//
// With the LLM stage disabled the pipeline is fully deterministic: the
// same query against the same catalog snapshot yields byte-identical
// ordering and scores.
package recommend
