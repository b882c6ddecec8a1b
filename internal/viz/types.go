// Package viz renders laid-out tag networks as SVG, HTML and Cytoscape.js
// elements.
package viz

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Synthesized marks networks generated without backend correlations.
	Synthesized bool     `json:"synthesized"`
	Selected    []string `json:"selected"`
}

// Node is a positioned tag.
type Node struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Group      string  `json:"group"`
	GroupLabel string  `json:"groupLabel"`
	Color      string  `json:"color"`
	Count      int     `json:"count"`
	Influence  float64 `json:"influence"`
	Size       float64 `json:"size"`
	AvgRating  float64 `json:"avgRating,omitempty"`
	Selected   bool    `json:"selected"`
	Pinned     bool    `json:"pinned,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// Edge is a co-occurrence link with resolved endpoint coordinates.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
	Width  float64 `json:"width"`

	X1 float64 `json:"-"`
	Y1 float64 `json:"-"`
	X2 float64 `json:"-"`
	Y2 float64 `json:"-"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0
}
