// Package aggregate counts filtered stations per province and per type.
package aggregate

import (
	"sort"

	"github.com/joeblew999/plat-stations/internal/boundary"
	"github.com/joeblew999/plat-stations/internal/station"
)

// Table holds station counts keyed by the exact province string of the data.
// Provinces without stations are absent.
type Table struct {
	Totals map[string]int            `json:"totals" doc:"Stations per province"`
	ByType map[string]map[string]int `json:"byType" doc:"Stations per province per type"`
}

// TypeCount is one row of a province breakdown.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Match is the aggregate for one boundary name.
type Match struct {
	Total  int         `json:"total"`
	ByType []TypeCount `json:"byType"`
}

// Compute groups records by province and by type within each province.
func Compute(records station.Table) *Table {
	t := &Table{
		Totals: make(map[string]int),
		ByType: make(map[string]map[string]int),
	}
	for _, r := range records {
		t.Totals[r.Province]++
		types, ok := t.ByType[r.Province]
		if !ok {
			types = make(map[string]int)
			t.ByType[r.Province] = types
		}
		types[r.Type]++
	}
	return t
}

// Max returns the largest province total, or 0 for an empty table.
func (t *Table) Max() int {
	max := 0
	for _, n := range t.Totals {
		if n > max {
			max = n
		}
	}
	return max
}

// Total returns the count for an exact province name.
func (t *Table) Total(province string) int {
	return t.Totals[province]
}

// Provinces returns the provinces present, sorted.
func (t *Table) Provinces() []string {
	out := make([]string, 0, len(t.Totals))
	for p := range t.Totals {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Types returns the per-type counts of an exact province name, sorted by type.
func (t *Table) Types(province string) []TypeCount {
	return sortedCounts(t.ByType[province])
}

// Lookup matches a boundary name case-insensitively. Data spellings that fold
// to the same name are summed.
func (t *Table) Lookup(name string) Match {
	key := boundary.Key(name)
	merged := make(map[string]int)
	total := 0
	for p, n := range t.Totals {
		if boundary.Key(p) != key {
			continue
		}
		total += n
		for typ, c := range t.ByType[p] {
			merged[typ] += c
		}
	}
	return Match{Total: total, ByType: sortedCounts(merged)}
}

func sortedCounts(m map[string]int) []TypeCount {
	out := make([]TypeCount, 0, len(m))
	for typ, n := range m {
		out = append(out, TypeCount{Type: typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
