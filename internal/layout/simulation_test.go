package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/tag"
)

func sampleSnapshot(t *testing.T) *network.Snapshot {
	t.Helper()
	freqs := []tag.Frequency{
		{Tag: "로맨스", Count: 28}, {Tag: "드라마", Count: 18}, {Tag: "판타지", Count: 16},
		{Tag: "액션", Count: 14}, {Tag: "코미디", Count: 12}, {Tag: "일상", Count: 10},
		{Tag: "학원", Count: 9}, {Tag: "스릴러", Count: 7},
	}
	return network.NewSynthesizer(network.WithSeed(11)).Synthesize(freqs, nil)
}

func seeded(seed uint64) Params {
	p := DefaultParams()
	p.Seed = seed
	return p
}

func allFinite(t *testing.T, s *Simulation) {
	t.Helper()
	for _, p := range s.Positions() {
		assert.False(t, math.IsNaN(p.X) || math.IsInf(p.X, 0), "x of %s", p.ID)
		assert.False(t, math.IsNaN(p.Y) || math.IsInf(p.Y, 0), "y of %s", p.ID)
	}
}

func TestNewSimulation_InitialPositions(t *testing.T) {
	s := NewSimulation(sampleSnapshot(t), seeded(1))

	require.Equal(t, 8, s.Len())
	seen := make(map[Point]bool)
	for _, p := range s.Positions() {
		pt := Point{X: p.X, Y: p.Y}
		assert.False(t, seen[pt], "nodes must not start coincident")
		seen[pt] = true
		assert.InDelta(t, DefaultWidth/2, p.X, 50)
		assert.InDelta(t, DefaultHeight/2, p.Y, 50)
	}
	assert.Equal(t, 1.0, s.Alpha())
}

func TestNewSimulation_NilAndEmpty(t *testing.T) {
	for _, snap := range []*network.Snapshot{nil, network.Empty(true)} {
		s := NewSimulation(snap, DefaultParams())
		assert.Equal(t, 0, s.Len())
		assert.NotPanics(t, func() { s.Run(5) })
		assert.Empty(t, s.Positions())
	}
}

func TestSimulation_SkipsDanglingEdges(t *testing.T) {
	snap := &network.Snapshot{
		Nodes: []network.Node{{ID: "a", Size: 20}, {ID: "b", Size: 20}},
		Edges: []network.Edge{
			{Source: "a", Target: "b", Value: 0.5},
			{Source: "a", Target: "ghost", Value: 0.9},
			{Source: "a", Target: "a", Value: 0.9},
		},
	}
	s := NewSimulation(snap, DefaultParams())
	assert.Len(t, s.links, 1)
	assert.Equal(t, 0.5, s.links[0].bias)
	assert.InDelta(t, 85, s.links[0].distance, 1e-9)
	assert.InDelta(t, 0.4, s.links[0].strength, 1e-9)
}

func TestSimulation_Converges(t *testing.T) {
	s := NewSimulation(sampleSnapshot(t), seeded(5))

	var moves []float64
	prev := s.PositionMap()
	for !s.Converged() && s.Ticks() < 1000 {
		s.Tick()
		cur := s.PositionMap()
		var d float64
		for id, p := range cur {
			d += math.Hypot(p.X-prev[id].X, p.Y-prev[id].Y)
		}
		moves = append(moves, d)
		prev = cur
	}

	require.True(t, s.Converged())
	assert.InDelta(t, DefaultMaxTicks, s.Ticks(), 5)

	tenth := len(moves) / 10
	var first, last float64
	for i := 0; i < tenth; i++ {
		first += moves[i]
		last += moves[len(moves)-1-i]
	}
	assert.Less(t, last, 0.1*first)
	allFinite(t, s)
}

func TestSimulation_Deterministic(t *testing.T) {
	a := NewSimulation(sampleSnapshot(t), seeded(99))
	b := NewSimulation(sampleSnapshot(t), seeded(99))
	a.Run(DefaultMaxTicks)
	b.Run(DefaultMaxTicks)
	assert.Equal(t, a.Positions(), b.Positions())

	c := NewSimulation(sampleSnapshot(t), seeded(100))
	c.Run(DefaultMaxTicks)
	assert.NotEqual(t, a.Positions(), c.Positions())
}

func TestSimulation_DragPinsExactly(t *testing.T) {
	s := NewSimulation(sampleSnapshot(t), seeded(3))
	s.Run(50)

	require.NoError(t, s.DragStart("액션"))
	assert.True(t, s.Pinned("액션"))
	assert.Equal(t, DefaultDragAlphaTarget, s.alphaTarget)

	target := Point{X: 120.5, Y: 640.25}
	require.NoError(t, s.DragMove("액션", target))
	for i := 0; i < 20; i++ {
		s.Tick()
		p, ok := s.Position("액션")
		require.True(t, ok)
		assert.Equal(t, target.X, p.X)
		assert.Equal(t, target.Y, p.Y)
		assert.True(t, p.Pinned)
	}
	assert.False(t, s.Converged(), "drag keeps the simulation warm")

	require.NoError(t, s.DragEnd("액션"))
	assert.False(t, s.Pinned("액션"))
	assert.Equal(t, 0.0, s.alphaTarget)
	s.Run(1000)
	assert.True(t, s.Converged())
}

func TestSimulation_DragEndKeepsOtherPins(t *testing.T) {
	s := NewSimulation(sampleSnapshot(t), seeded(3))
	require.NoError(t, s.DragStart("로맨스"))
	require.NoError(t, s.DragStart("드라마"))
	require.NoError(t, s.DragEnd("로맨스"))
	assert.Equal(t, DefaultDragAlphaTarget, s.alphaTarget)
	assert.True(t, s.Pinned("드라마"))
}

func TestSimulation_DragErrors(t *testing.T) {
	s := NewSimulation(sampleSnapshot(t), DefaultParams())

	assert.ErrorIs(t, s.DragStart("없음"), ErrUnknownNode)
	assert.ErrorIs(t, s.DragMove("없음", Point{}), ErrUnknownNode)
	assert.ErrorIs(t, s.DragEnd("없음"), ErrUnknownNode)
	assert.ErrorIs(t, s.DragMove("로맨스", Point{X: math.NaN()}), ErrInvalidPoint)
	assert.ErrorIs(t, s.DragMove("로맨스", Point{Y: math.Inf(1)}), ErrInvalidPoint)
}

func TestSimulation_DegenerateInput(t *testing.T) {
	snap := &network.Snapshot{
		Nodes: []network.Node{
			{ID: "a", Size: math.NaN(), Influence: 1},
			{ID: "b", Size: -10, Influence: 1},
			{ID: "c", Size: 0},
			{ID: "d", Size: math.Inf(1)},
		},
		Edges: []network.Edge{
			{Source: "a", Target: "b", Value: math.NaN()},
			{Source: "b", Target: "c", Value: 0.9},
		},
	}
	same := Point{X: 450, Y: 350}
	s := NewSimulation(snap, seeded(8), WithInitialPositions(map[string]Point{
		"a": same, "b": same, "c": same, "d": same,
	}))
	for _, b := range s.bodies {
		assert.Equal(t, DefaultMinRadius+DefaultCollidePadding, b.radius)
	}

	s.Run(DefaultMaxTicks)
	allFinite(t, s)

	// Coincident starts must still separate.
	pa, _ := s.Position("a")
	pb, _ := s.Position("b")
	assert.Greater(t, math.Hypot(pa.X-pb.X, pa.Y-pb.Y), 1.0)
}

func TestSimulation_ResetDegenerate(t *testing.T) {
	s := NewSimulation(sampleSnapshot(t), seeded(4))
	s.bodies[0].x = math.NaN()
	s.bodies[1].vy = math.Inf(-1)

	s.Tick()

	allFinite(t, s)
	assert.GreaterOrEqual(t, s.Recovered(), 2)
}

func TestSimulation_InitialPositionsIgnoreUnknown(t *testing.T) {
	s := NewSimulation(sampleSnapshot(t), seeded(1), WithInitialPositions(map[string]Point{
		"로맨스": {X: 10, Y: 20},
		"없음":  {X: 1, Y: 1},
		"드라마": {X: math.NaN(), Y: 5},
	}))
	p, ok := s.Position("로맨스")
	require.True(t, ok)
	assert.Equal(t, 10.0, p.X)
	assert.Equal(t, 20.0, p.Y)
	_, ok = s.Position("없음")
	assert.False(t, ok)
	allFinite(t, s)
}

func TestSimulation_Reheat(t *testing.T) {
	s := NewSimulation(sampleSnapshot(t), DefaultParams())
	s.Run(1000)
	require.True(t, s.Converged())
	s.Reheat(0.5)
	assert.Equal(t, 0.5, s.Alpha())
	s.Reheat(0.1)
	assert.Equal(t, 0.5, s.Alpha())
	s.Reheat(3)
	assert.Equal(t, 1.0, s.Alpha())
}

func TestParams_Normalized(t *testing.T) {
	p := Params{Width: 400, AlphaDecay: 2, VelocityDecay: math.NaN(), ChargeBase: -1}.Normalized()

	assert.Equal(t, 400.0, p.Width)
	assert.Equal(t, DefaultHeight, p.Height)
	assert.Equal(t, DefaultAlphaDecay, p.AlphaDecay)
	assert.Equal(t, DefaultVelocityDecay, p.VelocityDecay)
	assert.Equal(t, DefaultChargeBase, p.ChargeBase)
	assert.Equal(t, Point{X: 200, Y: DefaultHeight / 2}, p.Center())
	assert.InDelta(t, DefaultAlphaMin, math.Pow(1-DefaultAlphaDecay, DefaultMaxTicks), 1e-12)
}
