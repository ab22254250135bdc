// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package catalog

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/raghavbk/savora/internal/logging"
	"github.com/raghavbk/savora/internal/recommend"
)

// Config configures catalog loading.
type Config struct {
	// Path is the restaurant CSV dataset path.
	Path string `koanf:"path"`

	// Limit restricts the number of raw rows read; 0 means all. Useful
	// for local development with the full dataset.
	Limit int `koanf:"limit"`
}

// DefaultConfig returns the default catalog configuration.
func DefaultConfig() Config {
	return Config{Path: "data/restaurants.csv"}
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("catalog path is required")
	}
	if c.Limit < 0 {
		return fmt.Errorf("catalog limit must be non-negative")
	}
	return nil
}

var (
	ratingPattern = regexp.MustCompile(`[\d.]+`)
	costPattern   = regexp.MustCompile(`\d+`)
)

// rawRow is one CSV row before normalization. Address feeds the dedup
// key only and is not retained.
type rawRow struct {
	name        string
	address     string
	location    string
	rate        string
	votes       string
	cuisines    string
	cost        string
	restType    string
	onlineOrder string
	bookTable   string
}

// LoadFile reads and normalizes the restaurant dataset from disk.
func LoadFile(cfg Config) ([]recommend.Restaurant, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	records, err := Load(f, cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", cfg.Path, err)
	}
	return records, nil
}

// Load reads the CSV stream, normalizes each row and deduplicates by
// (name, location, address), keeping the most-voted entry. Output order
// is deterministic: sorted by ID.
func Load(r io.Reader, limit int) ([]recommend.Restaurant, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows with trailing commas in the wild
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	type entry struct {
		restaurant recommend.Restaurant
		votes      int
	}
	byKey := make(map[string]entry)

	rows, skipped := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed rows are common in scraped datasets; skip and
			// keep counting.
			skipped++
			continue
		}
		rows++
		if limit > 0 && rows > limit {
			break
		}

		raw := cols.extract(record)
		restaurant, ok := normalizeRow(raw)
		if !ok {
			skipped++
			continue
		}

		key := dedupKey(raw)
		restaurant.ID = stableID(key)

		if existing, seen := byKey[key]; !seen || restaurant.Votes > existing.votes {
			byKey[key] = entry{restaurant: restaurant, votes: restaurant.Votes}
		}
	}

	records := make([]recommend.Restaurant, 0, len(byKey))
	for _, e := range byKey {
		records = append(records, e.restaurant)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	logging.Info().
		Int("rows", rows).
		Int("records", len(records)).
		Int("skipped", skipped).
		Msg("catalog loaded")

	return records, nil
}

// columnIndex maps the dataset's column names to positions. Only name
// and location are mandatory.
type columnIndex struct {
	name, address, location             int
	rate, votes, cuisines, cost         int
	restType, onlineOrder, tableBooking int
}

func indexColumns(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}

	find := func(names ...string) int {
		for _, n := range names {
			if i, ok := pos[n]; ok {
				return i
			}
		}
		return -1
	}

	cols := columnIndex{
		name:         find("name"),
		address:      find("address"),
		location:     find("location"),
		rate:         find("rate", "rating"),
		votes:        find("votes"),
		cuisines:     find("cuisines"),
		cost:         find("approx_cost(for two people)", "approx_cost_for_two", "cost_for_two"),
		restType:     find("rest_type"),
		onlineOrder:  find("online_order"),
		tableBooking: find("book_table", "table_booking"),
	}
	if cols.name < 0 || cols.location < 0 {
		return columnIndex{}, fmt.Errorf("catalog header missing name or location column")
	}
	return cols, nil
}

func (c columnIndex) extract(record []string) rawRow {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}
	return rawRow{
		name:        field(c.name),
		address:     field(c.address),
		location:    field(c.location),
		rate:        field(c.rate),
		votes:       field(c.votes),
		cuisines:    field(c.cuisines),
		cost:        field(c.cost),
		restType:    field(c.restType),
		onlineOrder: field(c.onlineOrder),
		bookTable:   field(c.tableBooking),
	}
}

// normalizeRow converts a raw CSV row to a Restaurant. Rows without a
// name or location are unusable and rejected.
func normalizeRow(raw rawRow) (recommend.Restaurant, bool) {
	name := strings.TrimSpace(raw.name)
	location := normalizeKey(raw.location)
	if name == "" || location == "" {
		return recommend.Restaurant{}, false
	}

	return recommend.Restaurant{
		Name:         name,
		Location:     location,
		Rating:       parseRating(raw.rate),
		Votes:        parseVotes(raw.votes),
		Cuisines:     splitCuisines(raw.cuisines),
		CostForTwo:   parseCost(raw.cost),
		RestType:     strings.TrimSpace(raw.restType),
		OnlineOrder:  parseYesNo(raw.onlineOrder),
		TableBooking: parseYesNo(raw.bookTable),
	}, true
}

// normalizeKey lowercases and trims a grouping key.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseRating extracts the leading numeric from values like "4.1/5".
// "NEW", "-" and empty values have no usable rating and map to nil, as
// do out-of-range numbers.
func parseRating(s string) *float64 {
	match := ratingPattern.FindString(s)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || v < 0 || v > 5 {
		return nil
	}
	return &v
}

// parseVotes parses the vote count, tolerating thousands separators.
// Unparseable values count as zero.
func parseVotes(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// parseCost extracts the cost-for-two integer from values like "1,200".
func parseCost(s string) *int {
	s = strings.ReplaceAll(s, ",", "")
	match := costPattern.FindString(s)
	if match == "" {
		return nil
	}
	v, err := strconv.Atoi(match)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// splitCuisines splits the comma-separated cuisine list into normalized
// unique tokens, preserving first-seen order.
func splitCuisines(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		token := normalizeKey(p)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}

func parseYesNo(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}

// dedupKey joins the normalized name, location and address. Address
// participates so two branches of a chain in the same area stay
// distinct records.
func dedupKey(raw rawRow) string {
	return normalizeKey(raw.name) + "|" + normalizeKey(raw.location) + "|" + normalizeKey(raw.address)
}

// stableID derives a deterministic record ID from the dedup key, so IDs
// survive dataset reloads and row reordering.
func stableID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}
