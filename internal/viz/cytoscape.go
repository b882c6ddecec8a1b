package viz

import (
	"encoding/json"
	"fmt"
)

// CytoscapeElements is the elements object accepted by cytoscape().
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode represents a node in Cytoscape.js format. Position feeds
// the preset layout so the browser shows the computed layout.
type CytoscapeNode struct {
	Data     Node              `json:"data"`
	Position CytoscapePosition `json:"position"`
	Classes  string            `json:"classes,omitempty"`
}

// CytoscapePosition is a model position.
type CytoscapePosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CytoscapeEdge wraps one link.
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData carries the link strength used by the stylesheet.
type CytoscapeEdgeData struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
	Width  float64 `json:"width"`
}

// ToCytoscape lays the graph out as preset-positioned Cytoscape elements.
func (g *GraphData) ToCytoscape() CytoscapeElements {
	out := CytoscapeElements{
		Nodes: make([]CytoscapeNode, len(g.Nodes)),
		Edges: make([]CytoscapeEdge, 0, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = CytoscapeNode{Data: n, Position: CytoscapePosition{X: n.X, Y: n.Y}}
		if n.Selected {
			out.Nodes[i].Classes = "selected"
		}
	}
	for i, e := range g.Edges {
		out.Edges = append(out.Edges, CytoscapeEdge{
			Data: CytoscapeEdgeData{
				ID:     edgeID(e.Source, e.Target, i),
				Source: e.Source,
				Target: e.Target,
				Value:  e.Value,
				Width:  e.Width,
			},
		})
	}
	return out
}

// ToCytoscapeJSON encodes the elements for embedding or piping.
func (g *GraphData) ToCytoscapeJSON() (string, error) {
	b, err := json.Marshal(g.ToCytoscape())
	if err != nil {
		return "", fmt.Errorf("encoding cytoscape elements: %w", err)
	}
	return string(b), nil
}

// edgeID keys a link by its endpoints. The index keeps parallel links
// distinct within one rendering.
func edgeID(source, target string, index int) string {
	return fmt.Sprintf("%s-%s-%d", source, target, index)
}
