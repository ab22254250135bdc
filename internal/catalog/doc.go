// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

// Package catalog loads the restaurant dataset from CSV, normalizes and
// deduplicates it, and serves immutable in-memory snapshots indexed by
// location. Snapshots are swapped atomically on reload, so readers are
// lock-free and never observe partial state.
package catalog
