package viz

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/webtoonlab/tagnet/internal/layout"
	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/tag"
)

func testSnapshot() *network.Snapshot {
	return &network.Snapshot{
		Nodes: []network.Node{
			{ID: "로맨스", Count: 28, Influence: 0.85, Size: 45, Group: "장르", Selected: true},
			{ID: "회귀", Count: 15, Influence: 0.58, Size: 28, Group: tag.GroupTheme},
			{ID: "학원", Count: 12, Influence: 0.5, Size: 24, Group: "unknown"},
		},
		Edges: []network.Edge{
			{Source: "로맨스", Target: "회귀", Value: 0.5, Width: 3},
			{Source: "회귀", Target: "학원", Value: 0.25, Width: 2},
			{Source: "로맨스", Target: "없음", Value: 0.9, Width: 6},
		},
		Summary: network.Summary{SelectedTags: []string{"로맨스"}},
	}
}

func testPositions() []layout.Position {
	return []layout.Position{
		{ID: "로맨스", X: 100, Y: 120, Pinned: true},
		{ID: "회귀", X: 300, Y: 200},
	}
}

func TestBuildGraph(t *testing.T) {
	g := BuildGraph(testSnapshot(), testPositions(), layout.Params{Width: 800, Height: 600})

	if len(g.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(g.Nodes))
	}
	if len(g.Edges) != 2 {
		t.Fatalf("len(Edges) = %d, want 2 (dangling edge dropped)", len(g.Edges))
	}

	romance := g.Nodes[0]
	if romance.Group != string(tag.GroupGenre) || romance.GroupLabel != "장르" {
		t.Errorf("Korean label not resolved: group=%q label=%q", romance.Group, romance.GroupLabel)
	}
	if romance.Color != tag.GroupGenre.Color() {
		t.Errorf("Color = %q, want %q", romance.Color, tag.GroupGenre.Color())
	}
	if !romance.Pinned || romance.X != 100 || romance.Y != 120 {
		t.Errorf("romance position = (%v, %v, pinned=%v)", romance.X, romance.Y, romance.Pinned)
	}

	// Missing position falls back to the canvas center.
	school := g.Nodes[2]
	if school.X != 400 || school.Y != 300 {
		t.Errorf("unpositioned node at (%v, %v), want (400, 300)", school.X, school.Y)
	}
	if school.Group != string(tag.GroupOther) {
		t.Errorf("unknown group = %q, want other", school.Group)
	}

	e := g.Edges[0]
	if e.X1 != 100 || e.Y1 != 120 || e.X2 != 300 || e.Y2 != 200 {
		t.Errorf("edge endpoints = (%v,%v)-(%v,%v)", e.X1, e.Y1, e.X2, e.Y2)
	}
	if len(g.Selected) != 1 || g.Selected[0] != "로맨스" {
		t.Errorf("Selected = %v", g.Selected)
	}
}

func TestBuildGraph_Nil(t *testing.T) {
	g := BuildGraph(nil, nil, layout.Params{})
	if !g.IsEmpty() {
		t.Error("BuildGraph(nil) should be empty")
	}
	if g.Width != layout.DefaultWidth {
		t.Errorf("Width = %v, want default", g.Width)
	}
}

func TestToCytoscape(t *testing.T) {
	g := BuildGraph(testSnapshot(), testPositions(), layout.Params{})
	out, err := g.ToCytoscapeJSON()
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}

	var elements CytoscapeElements
	if err := json.Unmarshal([]byte(out), &elements); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(elements.Nodes) != 3 || len(elements.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges", len(elements.Nodes), len(elements.Edges))
	}
	if elements.Nodes[0].Position.X != 100 || elements.Nodes[0].Classes != "selected" {
		t.Errorf("node 0 = %+v", elements.Nodes[0])
	}
	if elements.Nodes[1].Classes != "" {
		t.Errorf("unselected node has classes %q", elements.Nodes[1].Classes)
	}
	if elements.Edges[1].Data.ID != "회귀-학원-1" {
		t.Errorf("edge ID = %q", elements.Edges[1].Data.ID)
	}
}

func TestGenerateSVG(t *testing.T) {
	g := BuildGraph(testSnapshot(), testPositions(), layout.Params{})
	svg, err := GenerateSVG(g)
	if err != nil {
		t.Fatalf("GenerateSVG() error = %v", err)
	}

	checks := []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`r="45.00"`,
		`stroke="#ef4444"`,
		`stroke-opacity="0.50"`,
		`>로맨스</text>`,
	}
	for _, c := range checks {
		if !strings.Contains(svg, c) {
			t.Errorf("SVG missing %q", c)
		}
	}
	if n := strings.Count(svg, "<line "); n != 2 {
		t.Errorf("SVG has %d lines, want 2", n)
	}

	if _, err := GenerateSVG(nil); err == nil {
		t.Error("GenerateSVG(nil) should fail")
	}
}

func TestGenerateHTML(t *testing.T) {
	g := BuildGraph(testSnapshot(), testPositions(), layout.Params{})

	static, err := GenerateHTML(g, HTMLOptions{Title: "<b>tags</b>"})
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if !strings.Contains(static, "<svg") {
		t.Error("static page should inline the SVG")
	}
	if strings.Contains(static, "cytoscape") {
		t.Error("static page should not load Cytoscape")
	}
	if strings.Contains(static, "<b>tags</b>") {
		t.Error("title was not escaped")
	}
	if !strings.Contains(static, "장르") || !strings.Contains(static, "테마") {
		t.Error("legend missing group labels")
	}

	interactive, err := GenerateHTML(g, HTMLOptions{Interactive: true})
	if err != nil {
		t.Fatalf("GenerateHTML(interactive) error = %v", err)
	}
	if !strings.Contains(interactive, "cytoscape.min.js") || !strings.Contains(interactive, `"position":{"x":100`) {
		t.Error("interactive page should embed preset positions")
	}
}

func TestGenerateHTML_Empty(t *testing.T) {
	html, err := GenerateHTML(BuildGraph(network.Empty(false), nil, layout.Params{}), DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if !strings.Contains(html, "표시할 태그가 없습니다") {
		t.Error("empty graph should render the empty state")
	}
	if _, err := GenerateHTML(nil, DefaultOptions()); err == nil {
		t.Error("GenerateHTML(nil) should fail")
	}
}

func TestMixWhite(t *testing.T) {
	tests := []struct {
		in   string
		t    float64
		want string
	}{
		{"#000000", 0.5, "#808080"},
		{"#2563eb", 0, "#2563eb"},
		{"#2563eb", 1, "#ffffff"},
		{"red", 0.3, "red"},
	}
	for _, tt := range tests {
		if got := mixWhite(tt.in, tt.t); got != tt.want {
			t.Errorf("mixWhite(%q, %v) = %q, want %q", tt.in, tt.t, got, tt.want)
		}
	}
}

func TestViewBox_IncludesDriftedNodes(t *testing.T) {
	g := &GraphData{
		Width:  100,
		Height: 100,
		Nodes:  []Node{{ID: "a", X: -50, Y: 10, Size: 10}},
	}
	if got, want := g.ViewBox(), "-60.00 0.00 160.00 100.00"; got != want {
		t.Errorf("ViewBox() = %q, want %q", got, want)
	}
}
