package overlay

// Options are presentation attributes carried by a polygon.
// They are passed through untouched and never affect geometry.
type Options struct {
	StrokeColor   string  `json:"stroke_color,omitempty"`
	StrokeWeight  int     `json:"stroke_weight,omitempty"`
	StrokeOpacity float64 `json:"stroke_opacity,omitempty"`
	FillColor     string  `json:"fill_color,omitempty"`
	FillOpacity   float64 `json:"fill_opacity,omitempty"`
	Fill          bool    `json:"fill"`
	Outline       bool    `json:"outline"`
	Clickable     bool    `json:"clickable"`
}

// DefaultOptions mirrors the map service defaults for new polygons
func DefaultOptions() Options {
	return Options{
		StrokeColor:   "#0000ff",
		StrokeWeight:  5,
		StrokeOpacity: 0.45,
		FillColor:     "#0000ff",
		FillOpacity:   0.25,
		Fill:          true,
		Outline:       true,
		Clickable:     true,
	}
}
