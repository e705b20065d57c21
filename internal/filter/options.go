package filter

import "github.com/joeblew999/plat-stations/internal/station"

// Options are the choices offered by the filter form for a given draft.
type Options struct {
	Types     []string `json:"types" doc:"Station types in workbook order"`
	Provinces []string `json:"provinces" doc:"Provinces in first-appearance order"`
	Regencies []string `json:"regencies" doc:"Regencies of the chosen province"`
	Districts []string `json:"districts" doc:"Subdistricts of the chosen regency"`
}

// OptionsFor computes the option lists below each level of the draft.
func OptionsFor(table station.Table, province, regency string) Options {
	return Options{
		Types:     table.Types(),
		Provinces: table.Provinces(),
		Regencies: Regencies(table, province),
		Districts: Districts(table, province, regency),
	}
}

// Regencies lists the regencies present in province, or none when province
// is unconstrained.
func Regencies(table station.Table, province string) []string {
	if province == "" || province == All {
		return []string{}
	}
	var in station.Table
	for _, r := range table {
		if r.Province == province {
			in = append(in, r)
		}
	}
	return distinctBy(in, func(r station.Record) string { return r.Regency })
}

// Districts lists the subdistricts of regency within province.
func Districts(table station.Table, province, regency string) []string {
	if province == "" || province == All || regency == "" || regency == All {
		return []string{}
	}
	var in station.Table
	for _, r := range table {
		if r.Province == province && r.Regency == regency {
			in = append(in, r)
		}
	}
	return distinctBy(in, func(r station.Record) string { return r.Subdistrict })
}

// Draft is the unconfirmed state of the filter form. Changing a parent level
// resets its children, so a stale regency never survives a province change.
type Draft struct {
	Types    []string
	Province string
	Regency  string
	District string
}

// DraftOf starts a draft from a confirmed selection.
func DraftOf(s Selection) Draft {
	s = s.Normalize()
	return Draft{
		Types:    append([]string(nil), s.Types...),
		Province: s.Province,
		Regency:  s.Regency,
		District: s.District,
	}
}

// SetProvince chooses a province and resets regency and district.
func (d *Draft) SetProvince(p string) {
	d.Province = p
	d.Regency = All
	d.District = All
}

// SetRegency chooses a regency and resets district.
func (d *Draft) SetRegency(r string) {
	d.Regency = r
	d.District = All
}

// SetDistrict chooses a district.
func (d *Draft) SetDistrict(k string) {
	d.District = k
}

// Normalize resets any level whose value is not offered under its parent.
func (d *Draft) Normalize(table station.Table) {
	sel := d.Selection().Normalize()
	d.Province, d.Regency, d.District = sel.Province, sel.Regency, sel.District

	if d.Province != All && !contains(table.Provinces(), d.Province) {
		d.SetProvince(All)
	}
	if d.Regency != All && !contains(Regencies(table, d.Province), d.Regency) {
		d.SetRegency(All)
	}
	if d.District != All && !contains(Districts(table, d.Province, d.Regency), d.District) {
		d.District = All
	}
}

// Selection returns the draft as a candidate selection for Confirm.
func (d Draft) Selection() Selection {
	return Selection{
		Types:    append([]string(nil), d.Types...),
		Province: d.Province,
		Regency:  d.Regency,
		District: d.District,
	}
}

func distinctBy(t station.Table, key func(station.Record) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range t {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
