package render

// Layer names shown in the map's layer control.
const (
	ClusterLayer  = "Province clusters"
	FlatLayer     = "All markers"
	ProvinceLayer = "Provinces"
)

// ZoomToggle is the contract of the client module that swaps the clustered
// and flat marker groups: on attach and on every zoomend event the client
// shows the clustered group when zoom <= ClusterMaxZoom and the flat group
// when zoom >= FlatMinZoom.
type ZoomToggle struct {
	Module         string `json:"module" example:"zoom-toggle"`
	Version        string `json:"version" example:"1"`
	Script         string `json:"script" doc:"Path of the client module"`
	Event          string `json:"event" example:"zoomend"`
	ClusterLayer   string `json:"clusterLayer"`
	FlatLayer      string `json:"flatLayer"`
	ClusterMaxZoom int    `json:"clusterMaxZoom"`
	FlatMinZoom    int    `json:"flatMinZoom"`
}

// DefaultToggle returns the toggle served with every map view.
func DefaultToggle() ZoomToggle {
	return ZoomToggle{
		Module:         "zoom-toggle",
		Version:        "1",
		Script:         "/static/js/zoom-toggle.v1.js",
		Event:          "zoomend",
		ClusterLayer:   ClusterLayer,
		FlatLayer:      FlatLayer,
		ClusterMaxZoom: 5,
		FlatMinZoom:    6,
	}
}

// Visible reports which groups the client shows at zoom.
func (z ZoomToggle) Visible(zoom float64) (clustered, flat bool) {
	return zoom <= float64(z.ClusterMaxZoom), zoom >= float64(z.FlatMinZoom)
}
