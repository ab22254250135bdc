// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package catalog

import (
	"strings"
	"testing"

	"github.com/raghavbk/savora/internal/recommend"
)

const testCSV = `name,address,location,rate,votes,cuisines,approx_cost(for two people),rest_type,online_order,book_table
Truffles,"22 Koramangala 5th Block",Koramangala,4.6/5,"9,041","Burger, American",900,Casual Dining,Yes,No
Meghana Foods,"1st Main Koramangala",Koramangala,4.3/5,7230,"Biryani, Andhra",600,Casual Dining,Yes,Yes
New Cafe,"80ft Road",Koramangala,NEW,12,Cafe,400,Cafe,No,No
Mystery Diner,"Somewhere",Indiranagar,-,0,North Indian,,Casual Dining,No,No
Truffles,"22 Koramangala 5th Block",Koramangala,4.5/5,8000,"Burger, American",900,Casual Dining,Yes,No
Corner Idli,"4th Block",Jayanagar,3.8/5,"1,500","South Indian, south indian","1,200",Quick Bites,Yes,No
,NoName Street,Koramangala,4.0/5,100,Cafe,300,Cafe,No,No
`

func loadTestCatalog(t *testing.T) []recommend.Restaurant {
	t.Helper()
	records, err := Load(strings.NewReader(testCSV), 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return records
}

func TestLoadNormalizesAndDeduplicates(t *testing.T) {
	records := loadTestCatalog(t)

	// 7 raw rows: one duplicate Truffles collapsed, one nameless row
	// dropped.
	if len(records) != 5 {
		t.Fatalf("got %d records, want 5", len(records))
	}

	byName := make(map[string]recommend.Restaurant, len(records))
	for _, r := range records {
		byName[r.Name] = r
	}

	truffles, ok := byName["Truffles"]
	if !ok {
		t.Fatal("Truffles missing")
	}
	// The most-voted duplicate wins.
	if truffles.Votes != 9041 {
		t.Errorf("Votes = %d, want 9041 (most voted kept)", truffles.Votes)
	}
	if truffles.Rating == nil || *truffles.Rating != 4.6 {
		t.Errorf("Rating = %v, want 4.6", truffles.Rating)
	}
	if truffles.Location != "koramangala" {
		t.Errorf("Location = %q, want normalized key", truffles.Location)
	}
	if truffles.CostForTwo == nil || *truffles.CostForTwo != 900 {
		t.Errorf("CostForTwo = %v, want 900", truffles.CostForTwo)
	}
	if len(truffles.Cuisines) != 2 || truffles.Cuisines[0] != "burger" || truffles.Cuisines[1] != "american" {
		t.Errorf("Cuisines = %v", truffles.Cuisines)
	}
	if !truffles.OnlineOrder || truffles.TableBooking {
		t.Error("online_order/book_table flags wrong")
	}

	// "NEW" and "-" ratings map to nil.
	if byName["New Cafe"].Rating != nil {
		t.Error("NEW rating should be nil")
	}
	mystery := byName["Mystery Diner"]
	if mystery.Rating != nil {
		t.Error("- rating should be nil")
	}
	if mystery.CostForTwo != nil {
		t.Error("missing cost should be nil")
	}

	// Comma-separated numbers parse, duplicate cuisine tokens collapse.
	idli := byName["Corner Idli"]
	if idli.Votes != 1500 {
		t.Errorf("Votes = %d, want 1500", idli.Votes)
	}
	if idli.CostForTwo == nil || *idli.CostForTwo != 1200 {
		t.Errorf("CostForTwo = %v, want 1200", idli.CostForTwo)
	}
	if len(idli.Cuisines) != 1 || idli.Cuisines[0] != "south indian" {
		t.Errorf("Cuisines = %v, want deduplicated", idli.Cuisines)
	}
}

func TestLoadStableIDs(t *testing.T) {
	first := loadTestCatalog(t)
	second := loadTestCatalog(t)

	if len(first) != len(second) {
		t.Fatal("reload changed record count")
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("ID changed across reloads: %s vs %s", first[i].ID, second[i].ID)
		}
		if len(first[i].ID) != 12 {
			t.Errorf("ID %q length = %d, want 12", first[i].ID, len(first[i].ID))
		}
	}
}

func TestLoadLimit(t *testing.T) {
	records, err := Load(strings.NewReader(testCSV), 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want limit of 2", len(records))
	}
}

func TestLoadMissingRequiredColumns(t *testing.T) {
	if _, err := Load(strings.NewReader("url,phone\nx,y\n"), 0); err == nil {
		t.Error("expected error for a header without name/location")
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"4.1/5", fptr(4.1)},
		{"3.9 /5", fptr(3.9)},
		{"NEW", nil},
		{"-", nil},
		{"", nil},
		{"9.9/5", nil}, // out of range
	}

	for _, tt := range tests {
		got := parseRating(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseRating(%q) = %v, want nil", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseRating(%q) = %v, want %v", tt.in, got, *tt.want)
		}
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"800", iptr(800)},
		{"1,200", iptr(1200)},
		{"", nil},
		{"unknown", nil},
	}

	for _, tt := range tests {
		got := parseCost(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseCost(%q) = %v, want nil", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseCost(%q) = %v, want %v", tt.in, got, *tt.want)
		}
	}
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
