// Package network builds tag co-occurrence network snapshots, either from a
// backend payload or synthesized from a ranked tag-frequency list.
package network

import "github.com/webtoonlab/tagnet/internal/tag"

// Node is one tag in a network snapshot.
type Node struct {
	ID        string    `json:"id"`
	Count     int       `json:"count"`
	Influence float64   `json:"influence"`
	Size      float64   `json:"size"`
	Group     tag.Group `json:"group"`
	Selected  bool      `json:"selected"`
	AvgRating float64   `json:"avg_rating"`
}

// Edge is a co-occurrence link between two nodes.
type Edge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Value        float64 `json:"value"`
	Width        float64 `json:"width"`
	CoOccurrence float64 `json:"co_occurrence"`
}

// Summary describes a snapshot.
type Summary struct {
	TotalNodes     int      `json:"total_nodes"`
	TotalLinks     int      `json:"total_links"`
	SelectedTags   []string `json:"selected_tags"`
	MaxCorrelation float64  `json:"max_correlation"`
	AvgCorrelation float64  `json:"avg_correlation"`
}

// Snapshot is an immutable-per-render network. Every edge references node ids
// present in Nodes.
type Snapshot struct {
	Nodes   []Node  `json:"nodes"`
	Edges   []Edge  `json:"links"`
	Summary Summary `json:"summary"`

	// Synthesized is true when edges were generated client-side instead of
	// supplied by the backend.
	Synthesized bool `json:"synthesized"`
}

// Empty returns a snapshot with no nodes or edges.
func Empty(synthesized bool) *Snapshot {
	return &Snapshot{
		Nodes:       []Node{},
		Edges:       []Edge{},
		Summary:     Summary{SelectedTags: []string{}},
		Synthesized: synthesized,
	}
}

// IsEmpty returns true if the snapshot has no nodes.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Nodes) == 0
}

// Node returns the node with the given id.
func (s *Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		Nodes:       append([]Node(nil), s.Nodes...),
		Edges:       append([]Edge(nil), s.Edges...),
		Summary:     s.Summary,
		Synthesized: s.Synthesized,
	}
	c.Summary.SelectedTags = append([]string(nil), s.Summary.SelectedTags...)
	return c
}

// WithSelection returns a copy with the selected flags and summary selection
// overlaid from selected. Counts and sizes are left untouched.
func (s *Snapshot) WithSelection(selected []string) *Snapshot {
	c := s.Clone()
	if c == nil {
		return nil
	}
	set := make(map[string]bool, len(selected))
	for _, t := range selected {
		set[t] = true
	}
	for i := range c.Nodes {
		c.Nodes[i].Selected = set[c.Nodes[i].ID]
	}
	c.Summary.SelectedTags = append([]string{}, selected...)
	return c
}

// summarize computes the summary for nodes and edges.
func summarize(nodes []Node, edges []Edge, selected []string) Summary {
	sum := Summary{
		TotalNodes:   len(nodes),
		TotalLinks:   len(edges),
		SelectedTags: append([]string{}, selected...),
	}
	if len(edges) == 0 {
		return sum
	}
	var total float64
	for _, e := range edges {
		total += e.Value
		if e.Value > sum.MaxCorrelation {
			sum.MaxCorrelation = e.Value
		}
	}
	sum.AvgCorrelation = total / float64(len(edges))
	return sum
}
