// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/raghavbk/savora/internal/logging"
	"github.com/raghavbk/savora/internal/metrics"
	"github.com/raghavbk/savora/internal/recommend"
)

// PriceBand is a labeled cost-for-two range for filter UIs. A nil Max
// means unbounded.
type PriceBand struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   *int   `json:"max"`
}

// FilterMetadata describes the filterable value space of the loaded
// dataset.
type FilterMetadata struct {
	Locations          []string            `json:"locations"`
	CuisinesByLocation map[string][]string `json:"cuisines_by_location"`
	PriceBands         []PriceBand         `json:"price_bands"`
	RatingSteps        []float64           `json:"rating_steps"`
}

// snapshot is an immutable view of the loaded catalog. Reload swaps the
// whole snapshot atomically; readers never see partial state.
type snapshot struct {
	records    []recommend.Restaurant
	byLocation map[string][]int // location key -> indexes into records
	meta       FilterMetadata
}

// Store holds the in-memory restaurant catalog. It implements
// recommend.CatalogProvider. All read methods are safe for concurrent
// use with Reload.
type Store struct {
	cfg  Config
	snap atomic.Pointer[snapshot]
}

// NewStore loads the dataset from cfg.Path and builds the initial
// snapshot.
func NewStore(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog config: %w", err)
	}
	s := &Store{cfg: cfg}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStoreFromRecords builds a store directly from records, bypassing
// file loading. Used by tests and embedded setups.
func NewStoreFromRecords(records []recommend.Restaurant) *Store {
	s := &Store{}
	s.install(records)
	return s
}

// Reload re-reads the dataset file and atomically replaces the
// snapshot. In-flight reads keep the old snapshot.
func (s *Store) Reload() error {
	records, err := LoadFile(s.cfg)
	if err != nil {
		return err
	}
	s.install(records)
	logger := logging.WithComponent("catalog")
	logger.Info().
		Int("records", len(records)).
		Int("locations", len(s.snap.Load().byLocation)).
		Msg("catalog snapshot installed")
	return nil
}

func (s *Store) install(records []recommend.Restaurant) {
	byLocation := make(map[string][]int)
	for i, rec := range records {
		byLocation[rec.Location] = append(byLocation[rec.Location], i)
	}

	s.snap.Store(&snapshot{
		records:    records,
		byLocation: byLocation,
		meta:       buildFilterMetadata(records, byLocation),
	})
	metrics.CatalogRecords.Set(float64(len(records)))
}

// ByLocation returns all records whose location matches one of the
// given keys, in stable catalog order. Unknown keys contribute nothing.
func (s *Store) ByLocation(_ context.Context, keys []string) ([]recommend.Restaurant, error) {
	snap := s.snap.Load()

	var indexes []int
	for _, key := range keys {
		indexes = append(indexes, snap.byLocation[key]...)
	}
	sort.Ints(indexes)

	out := make([]recommend.Restaurant, 0, len(indexes))
	prev := -1
	for _, i := range indexes {
		if i == prev { // same record reachable via two alias keys
			continue
		}
		prev = i
		out = append(out, snap.records[i])
	}
	return out, nil
}

// Count returns the number of records in the current snapshot.
func (s *Store) Count() int {
	return len(s.snap.Load().records)
}

// FilterMetadata returns the filterable value space of the current
// snapshot. The result is shared; callers must not mutate it.
func (s *Store) FilterMetadata() FilterMetadata {
	return s.snap.Load().meta
}

// buildFilterMetadata precomputes the meta/filters payload at load time
// so the endpoint is a snapshot read.
func buildFilterMetadata(records []recommend.Restaurant, byLocation map[string][]int) FilterMetadata {
	locations := make([]string, 0, len(byLocation))
	for loc := range byLocation {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	cuisinesByLocation := make(map[string][]string, len(locations))
	for _, loc := range locations {
		seen := make(map[string]bool)
		var cuisines []string
		for _, i := range byLocation[loc] {
			for _, c := range records[i].Cuisines {
				if !seen[c] {
					seen[c] = true
					cuisines = append(cuisines, c)
				}
			}
		}
		sort.Strings(cuisines)
		cuisinesByLocation[loc] = cuisines
	}

	mediumMax, highMin := 400, 800
	return FilterMetadata{
		Locations:          locations,
		CuisinesByLocation: cuisinesByLocation,
		PriceBands: []PriceBand{
			{ID: "low", Label: "₹0–₹400", Min: 0, Max: &mediumMax},
			{ID: "medium", Label: "₹400–₹800", Min: 400, Max: &highMin},
			{ID: "high", Label: "₹800+", Min: 800, Max: nil},
		},
		RatingSteps: []float64{3.0, 3.5, 4.0, 4.5},
	}
}
