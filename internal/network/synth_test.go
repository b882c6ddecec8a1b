package network

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtoonlab/tagnet/internal/tag"
)

func makeFreqs(n int) []tag.Frequency {
	freqs := make([]tag.Frequency, n)
	for i := range freqs {
		freqs[i] = tag.Frequency{Tag: fmt.Sprintf("tag-%02d", i), Count: 100 - i}
	}
	return freqs
}

func TestSynthesize_KoreanScenario(t *testing.T) {
	s := NewSynthesizer(WithSeed(7), WithOptions(Options{MaxNodes: 3}))
	freqs := []tag.Frequency{{Tag: "로맨스", Count: 10}, {Tag: "액션", Count: 7}, {Tag: "판타지", Count: 5}}

	snap := s.Synthesize(freqs, nil)

	require.Len(t, snap.Nodes, 3)
	assert.True(t, snap.Synthesized)
	wantInfluence := []float64{1.0, 0.95, 0.90}
	for i, n := range snap.Nodes {
		assert.Equal(t, freqs[i].Tag, n.ID)
		assert.InDelta(t, wantInfluence[i], n.Influence, 1e-9)
	}
	assert.Equal(t, 30.0, snap.Nodes[0].Size)
	assert.Equal(t, 21.0, snap.Nodes[1].Size)
	assert.Equal(t, 20.0, snap.Nodes[2].Size) // 5*3 clamped up to 20
	assert.Equal(t, tag.GroupGenre, snap.Nodes[0].Group)

	assert.LessOrEqual(t, len(snap.Edges), 3)
	for _, e := range snap.Edges {
		assert.Greater(t, e.Value, 0.4)
		assert.LessOrEqual(t, e.Value, 1.0)
	}
	assert.Equal(t, len(snap.Edges), snap.Summary.TotalLinks)
	assert.Equal(t, 3, snap.Summary.TotalNodes)
}

func TestSynthesize_Empty(t *testing.T) {
	s := NewSynthesizer(WithSeed(1))

	snap := s.Synthesize(nil, []string{"액션"})

	require.NotNil(t, snap)
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Edges)
	assert.Equal(t, 0, snap.Summary.TotalNodes)
	assert.Equal(t, []string{"액션"}, snap.Summary.SelectedTags)
	assert.True(t, snap.IsEmpty())
}

func TestSynthesize_NodeCap(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 15, 16, 40} {
		for _, m := range []int{-3, 0, 1, 3, 15, 30} {
			t.Run(fmt.Sprintf("n=%d/m=%d", n, m), func(t *testing.T) {
				s := NewSynthesizer(WithSeed(uint64(n*100+m+10)), WithOptions(Options{MaxNodes: m}))
				snap := s.Synthesize(makeFreqs(n), nil)

				effective := m
				if m <= 0 {
					effective = DefaultMaxNodes
				}
				assert.Len(t, snap.Nodes, min(n, effective))
				assert.LessOrEqual(t, len(snap.Edges), DefaultMaxEdges)
				assert.Empty(t, Validate(snap))
			})
		}
	}
}

func TestSynthesize_DuplicateTags(t *testing.T) {
	s := NewSynthesizer(
		WithOptions(Options{MaxNodes: 2}),
		WithWeightFunc(func(a, b Node) float64 { return 0.9 }),
	)
	freqs := []tag.Frequency{
		{Tag: "로맨스", Count: 10},
		{Tag: "로맨스", Count: 9},
		{Tag: "", Count: 8},
		{Tag: "액션", Count: 7},
	}

	snap := s.Synthesize(freqs, nil)

	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, "로맨스", snap.Nodes[0].ID)
	assert.Equal(t, 10, snap.Nodes[0].Count)
	assert.Equal(t, "액션", snap.Nodes[1].ID)
	assert.InDelta(t, 0.95, snap.Nodes[1].Influence, 1e-9)

	require.Len(t, snap.Edges, 1)
	assert.Equal(t, "로맨스", snap.Edges[0].Source)
	assert.Equal(t, "액션", snap.Edges[0].Target)
	for _, e := range snap.Edges {
		assert.NotEqual(t, e.Source, e.Target)
	}
	assert.Empty(t, Validate(snap))
	assert.Equal(t, 2, snap.Summary.TotalNodes)
}

func TestSynthesize_InfluenceMonotonic(t *testing.T) {
	s := NewSynthesizer(WithSeed(3), WithOptions(Options{MaxNodes: 40}))
	snap := s.Synthesize(makeFreqs(40), nil)

	for i, n := range snap.Nodes {
		assert.GreaterOrEqual(t, n.Influence, 0.3)
		if i > 0 {
			assert.LessOrEqual(t, n.Influence, snap.Nodes[i-1].Influence)
		}
	}
	assert.InDelta(t, 0.3, snap.Nodes[39].Influence, 1e-9)
}

func TestSynthesize_WindowAndThreshold(t *testing.T) {
	// Constant weights make every windowed pair an edge.
	s := NewSynthesizer(
		WithOptions(Options{MaxNodes: 6, MaxEdges: 100}),
		WithWeightFunc(func(a, b Node) float64 { return 0.5 }),
	)
	snap := s.Synthesize(makeFreqs(6), nil)

	// Pairs (i, j) with i < j <= i+3 over 6 nodes: 3+3+3+2+1 = 12.
	assert.Len(t, snap.Edges, 12)
	for _, e := range snap.Edges {
		var si, ti int
		fmt.Sscanf(e.Source, "tag-%d", &si)
		fmt.Sscanf(e.Target, "tag-%d", &ti)
		assert.Greater(t, ti, si)
		assert.LessOrEqual(t, ti-si, 3)
		assert.Equal(t, 3.0, e.Width)
	}

	// Weights at the threshold are rejected.
	s = NewSynthesizer(WithWeightFunc(func(a, b Node) float64 { return 0.4 }))
	assert.Empty(t, s.Synthesize(makeFreqs(6), nil).Edges)
}

func TestSynthesize_EdgeTruncation(t *testing.T) {
	s := NewSynthesizer(
		WithOptions(Options{MaxNodes: 30}),
		WithWeightFunc(func(a, b Node) float64 { return 0.9 }),
	)
	snap := s.Synthesize(makeFreqs(30), nil)

	require.Len(t, snap.Edges, DefaultMaxEdges)
	assert.Equal(t, "tag-00", snap.Edges[0].Source)
	assert.Equal(t, DefaultMaxEdges, snap.Summary.TotalLinks)
	assert.InDelta(t, 0.9, snap.Summary.MaxCorrelation, 1e-9)
	assert.InDelta(t, 0.9, snap.Summary.AvgCorrelation, 1e-9)
}

func TestSynthesize_Deterministic(t *testing.T) {
	a := NewSynthesizer(WithSeed(42)).Synthesize(makeFreqs(15), nil)
	b := NewSynthesizer(WithSeed(42)).Synthesize(makeFreqs(15), nil)
	assert.Equal(t, a, b)
}

func TestSynthesize_SelectionDoesNotAlterSizing(t *testing.T) {
	freqs := makeFreqs(5)
	plain := NewSynthesizer(WithSeed(9)).Synthesize(freqs, nil)
	selected := NewSynthesizer(WithSeed(9)).Synthesize(freqs, []string{"tag-01", "missing"})

	for i := range plain.Nodes {
		assert.Equal(t, plain.Nodes[i].Count, selected.Nodes[i].Count)
		assert.Equal(t, plain.Nodes[i].Size, selected.Nodes[i].Size)
		assert.Equal(t, plain.Nodes[i].ID == "tag-01", selected.Nodes[i].Selected)
	}
	assert.Equal(t, []string{"tag-01", "missing"}, selected.Summary.SelectedTags)
}

func TestFromBackend(t *testing.T) {
	s := NewSynthesizer()
	nodes := []Node{
		{ID: "로맨스", Count: 28, Influence: 0.85, Size: 45, Group: "장르"},
		{ID: "드라마", Count: 18, Influence: 0.68, Size: 32, Group: "장르"},
		{ID: "드라마", Count: 1},
		{ID: ""},
	}
	edges := []Edge{
		{Source: "로맨스", Target: "드라마", Value: 0.82, Width: 6},
		{Source: "로맨스", Target: "없음", Value: 0.5},
		{Source: "드라마", Target: "로맨스", Value: 0},
	}

	snap := s.FromBackend(nodes, edges, []string{"드라마"})

	assert.False(t, snap.Synthesized)
	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, 45.0, snap.Nodes[0].Size)
	assert.Equal(t, tag.Group("장르"), snap.Nodes[0].Group)
	assert.False(t, snap.Nodes[0].Selected)
	assert.True(t, snap.Nodes[1].Selected)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, 6.0, snap.Edges[0].Width)
	assert.Empty(t, Validate(snap))
	assert.Equal(t, 1, snap.Summary.TotalLinks)
}

func TestSnapshot_WithSelection(t *testing.T) {
	orig := NewSynthesizer(WithSeed(2)).Synthesize(makeFreqs(3), nil)
	sel := orig.WithSelection([]string{"tag-02"})

	assert.True(t, sel.Nodes[2].Selected)
	assert.False(t, orig.Nodes[2].Selected, "original must not be mutated")
	assert.Equal(t, []string{"tag-02"}, sel.Summary.SelectedTags)
	assert.Equal(t, orig.Synthesized, sel.Synthesized)
}

func TestValidate(t *testing.T) {
	snap := &Snapshot{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{Source: "a", Target: "b"}, {Source: "a", Target: "c"}},
	}
	bad := Validate(snap)
	require.Len(t, bad, 1)
	assert.Equal(t, "c", bad[0].Target)
	assert.Nil(t, Validate(nil))
}

func TestAnalyze(t *testing.T) {
	snap := &Snapshot{
		Nodes: []Node{
			{ID: "로맨스", Influence: 0.85, AvgRating: 9.6, Selected: true},
			{ID: "액션", Influence: 0.85, AvgRating: 9.4, Selected: true},
			{ID: "판타지", Influence: 0.72},
		},
		Edges: []Edge{
			{Source: "로맨스", Target: "액션", Value: 0.7},
			{Source: "액션", Target: "판타지", Value: 0.85},
			{Source: "로맨스", Target: "판타지", Value: 0.85},
		},
	}

	in := Analyze(snap)

	assert.Equal(t, "로맨스", in.CentralTag)
	assert.Equal(t, "액션", in.StrongestSource)
	assert.Equal(t, "판타지", in.StrongestTarget)
	assert.Equal(t, 2, in.SelectedCount)
	assert.InDelta(t, 9.5, in.SelectedAvgRating, 1e-9)

	assert.Equal(t, Insights{}, Analyze(Empty(true)))
}
