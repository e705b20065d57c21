// Package filter holds the dashboard's filter selection and derives filtered
// views of the station table.
package filter

import (
	"errors"

	"github.com/joeblew999/plat-stations/internal/station"
)

const (
	// All means no constraint on a region dimension.
	All = "All"
	// SelectAll is the shortcut value in the type multi-select.
	SelectAll = "Select All"
)

// ErrNoTypes is returned when a selection without station types is confirmed.
var ErrNoTypes = errors.New("at least one station type must be selected")

// Selection is a confirmed filter. Province, Regency and District hold All
// when unconstrained.
type Selection struct {
	Types    []string `json:"types" doc:"Selected station types"`
	Province string   `json:"province" doc:"Province or All" example:"JAWA BARAT"`
	Regency  string   `json:"regency" doc:"Regency/city or All" example:"All"`
	District string   `json:"district" doc:"Subdistrict or All" example:"All"`
}

// Default selects every type and no region.
func Default(types []string) Selection {
	return Selection{
		Types:    append([]string(nil), types...),
		Province: All,
		Regency:  All,
		District: All,
	}
}

// Normalize fills empty region fields with All and clears children whose
// parent is unconstrained.
func (s Selection) Normalize() Selection {
	if s.Province == "" {
		s.Province = All
	}
	if s.Regency == "" {
		s.Regency = All
	}
	if s.District == "" {
		s.District = All
	}
	if s.Province == All {
		s.Regency = All
	}
	if s.Regency == All {
		s.District = All
	}
	return s
}

// Matches reports whether r passes the selection. Comparisons are exact and
// case-sensitive.
func (s Selection) Matches(r station.Record) bool {
	if !contains(s.Types, r.Type) {
		return false
	}
	if s.Province == All {
		return true
	}
	if r.Province != s.Province {
		return false
	}
	if s.Regency == All {
		return true
	}
	if r.Regency != s.Regency {
		return false
	}
	return s.District == All || r.Subdistrict == s.District
}

// Apply returns the records matching sel, in table order.
func Apply(table station.Table, sel Selection) station.Table {
	sel = sel.Normalize()
	out := station.Table{}
	for _, r := range table {
		if sel.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// ResolveTypes expands the SelectAll shortcut and drops unknown or repeated
// types, keeping the order of raw.
func ResolveTypes(raw, all []string) []string {
	if contains(raw, SelectAll) {
		return append([]string{}, all...)
	}
	out := []string{}
	for _, t := range raw {
		if contains(all, t) && !contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// Confirm validates a candidate selection against the current one. A
// candidate without types is rejected and current is returned unchanged.
func Confirm(current, candidate Selection) (Selection, error) {
	if len(candidate.Types) == 0 {
		return current, ErrNoTypes
	}
	next := candidate.Normalize()
	next.Types = append([]string(nil), candidate.Types...)
	return next, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
