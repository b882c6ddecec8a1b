package viz

import (
	"fmt"
	"math"
	"strconv"

	"github.com/webtoonlab/tagnet/internal/layout"
	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/tag"
)

// BuildGraph joins a snapshot with layout positions. Nodes without a
// position are placed at the canvas center, and edges whose endpoints are
// missing are dropped.
func BuildGraph(snap *network.Snapshot, positions []layout.Position, params layout.Params) *GraphData {
	params = params.Normalized()
	g := &GraphData{
		Nodes:    []Node{},
		Edges:    []Edge{},
		Width:    params.Width,
		Height:   params.Height,
		Selected: []string{},
	}
	if snap == nil {
		return g
	}
	g.Synthesized = snap.Synthesized
	if snap.Summary.SelectedTags != nil {
		g.Selected = append(g.Selected, snap.Summary.SelectedTags...)
	}

	pos := make(map[string]layout.Position, len(positions))
	for _, p := range positions {
		pos[p.ID] = p
	}
	center := params.Center()

	index := make(map[string]int, len(snap.Nodes))
	for _, n := range snap.Nodes {
		p, ok := pos[n.ID]
		if !ok {
			p = layout.Position{ID: n.ID, X: center.X, Y: center.Y}
		}
		group := resolveGroup(n.Group)
		index[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{
			ID:         n.ID,
			Label:      n.ID,
			Group:      string(group),
			GroupLabel: group.Label(),
			Color:      group.Color(),
			Count:      n.Count,
			Influence:  n.Influence,
			Size:       n.Size,
			AvgRating:  n.AvgRating,
			Selected:   n.Selected,
			Pinned:     p.Pinned,
			X:          p.X,
			Y:          p.Y,
		})
	}

	for _, e := range snap.Edges {
		si, okS := index[e.Source]
		ti, okT := index[e.Target]
		if !okS || !okT {
			continue
		}
		s, t := g.Nodes[si], g.Nodes[ti]
		g.Edges = append(g.Edges, Edge{
			Source: e.Source,
			Target: e.Target,
			Value:  e.Value,
			Width:  e.Width,
			X1:     s.X,
			Y1:     s.Y,
			X2:     t.X,
			Y2:     t.Y,
		})
	}
	return g
}

// resolveGroup accepts either a group key or its Korean label, since backend
// payloads carry the label.
func resolveGroup(g tag.Group) tag.Group {
	for _, known := range tag.Groups {
		if g == known || string(g) == known.Label() {
			return known
		}
	}
	return tag.GroupOther
}

// Bounds returns the smallest box holding every node circle.
func (g *GraphData) Bounds() (minX, minY, maxX, maxY float64) {
	if g.IsEmpty() {
		return 0, 0, g.Width, g.Height
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range g.Nodes {
		r := n.Size
		minX = math.Min(minX, n.X-r)
		minY = math.Min(minY, n.Y-r)
		maxX = math.Max(maxX, n.X+r)
		// Labels sit below the circle.
		maxY = math.Max(maxY, n.Y+r+labelOffset)
	}
	return minX, minY, maxX, maxY
}

// ViewBox frames the canvas and any node that drifted outside it.
func (g *GraphData) ViewBox() string {
	minX, minY, maxX, maxY := g.Bounds()
	minX = math.Min(minX, 0)
	minY = math.Min(minY, 0)
	maxX = math.Max(maxX, g.Width)
	maxY = math.Max(maxY, g.Height)
	return fmt.Sprintf("%s %s %s %s", num(minX), num(minY), num(maxX-minX), num(maxY-minY))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
