package render

import (
	"fmt"
	"html"
	"strconv"

	"github.com/joeblew999/plat-stations/internal/station"
)

// MapsBaseURL is the external map service linked from every marker popup.
const MapsBaseURL = "https://www.google.com/maps"

// Marker is one circle marker on the map.
type Marker struct {
	ID          string  `json:"id"`
	Province    string  `json:"province"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Radius      int     `json:"radius"`
	Color       string  `json:"color"`
	FillOpacity float64 `json:"fillOpacity"`
	Tooltip     string  `json:"tooltip"`
	Popup       string  `json:"popup"`
}

// NewMarker builds the marker of r with the given province color.
func NewMarker(r station.Record, color string) Marker {
	return Marker{
		ID:          r.ID,
		Province:    r.Province,
		Lat:         r.Latitude,
		Lon:         r.Longitude,
		Radius:      3,
		Color:       color,
		FillOpacity: 0.5,
		Tooltip:     r.ID,
		Popup:       markerPopup(r),
	}
}

// MapsURL links to the external map service at the exact coordinates.
func MapsURL(lat, lon float64) string {
	return fmt.Sprintf("%s?q=%s,%s", MapsBaseURL, formatCoord(lat), formatCoord(lon))
}

func markerPopup(r station.Record) string {
	e := html.EscapeString
	return fmt.Sprintf("<b>Type:</b> %s<br>"+
		"<b>Station:</b> %s<br>"+
		"<b>Regency/City:</b> %s<br>"+
		"<b>Subdistrict:</b> %s<br>"+
		"<b>Village:</b> %s<br>"+
		"<a href='%s' target='_blank'>📍 View on Google Maps</a>",
		e(r.Type), e(r.ID), e(r.Regency), e(r.Subdistrict), e(r.Village),
		e(MapsURL(r.Latitude, r.Longitude)))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
