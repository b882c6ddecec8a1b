package layout

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/webtoonlab/tagnet/internal/network"
)

// ErrUnknownNode is returned when a drag targets a node not in the simulation.
var ErrUnknownNode = errors.New("node not in simulation")

// ErrInvalidPoint is returned for non-finite pointer coordinates.
var ErrInvalidPoint = errors.New("point coordinates must be finite")

// initialAngle is the golden angle used to spread initial positions.
var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position is a node's current location.
type Position struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned,omitempty"`
}

// body is the mutable simulation state of one node.
type body struct {
	id        string
	x, y      float64
	vx, vy    float64
	fx, fy    *float64
	radius    float64
	charge    float64
	influence float64
}

type link struct {
	source, target int
	distance       float64
	strength       float64
	bias           float64
}

// Simulation owns the live node positions of one layout run. It is not safe
// for concurrent use; Runner serializes access.
type Simulation struct {
	params      Params
	bodies      []body
	index       map[string]int
	links       []link
	alpha       float64
	alphaTarget float64
	ticks       int
	recovered   int
	rng         *rand.Rand
	logger      *zap.Logger
}

// SimOption configures a Simulation.
type SimOption func(*Simulation)

// WithSimLogger sets the logger used to report degenerate positions.
func WithSimLogger(l *zap.Logger) SimOption {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInitialPositions places the given nodes before the first tick. Ids
// missing from the snapshot are ignored.
func WithInitialPositions(pos map[string]Point) SimOption {
	return func(s *Simulation) {
		for id, p := range pos {
			i, ok := s.index[id]
			if !ok || !finite(p.X) || !finite(p.Y) {
				continue
			}
			s.bodies[i].x, s.bodies[i].y = p.X, p.Y
		}
	}
}

// NewSimulation prepares a layout run for the snapshot. Edges whose endpoints
// are missing are skipped.
func NewSimulation(snap *network.Snapshot, params Params, opts ...SimOption) *Simulation {
	params = params.Normalized()
	s := &Simulation{
		params: params,
		index:  make(map[string]int),
		alpha:  1,
		rng:    rand.New(rand.NewPCG(params.Seed, params.Seed^0x5851f42d4c957f2d)),
		logger: zap.NewNop(),
	}

	if snap != nil {
		s.bodies = make([]body, 0, len(snap.Nodes))
		for _, n := range snap.Nodes {
			if _, dup := s.index[n.ID]; dup {
				continue
			}
			s.index[n.ID] = len(s.bodies)
			s.bodies = append(s.bodies, body{
				id:        n.ID,
				radius:    math.Max(sanitizeSize(n.Size), params.MinRadius) + params.CollidePadding,
				charge:    -(params.ChargeBase + n.Influence*params.ChargeInfluence),
				influence: n.Influence,
			})
		}
	}
	s.initPositions()

	for _, opt := range opts {
		opt(s)
	}
	if snap != nil {
		s.initLinks(snap.Edges)
	}
	return s
}

// initPositions spreads nodes on a phyllotaxis spiral around the canvas
// center with a small seeded jitter so no two nodes coincide.
func (s *Simulation) initPositions() {
	c := s.params.Center()
	for i := range s.bodies {
		r := s.params.InitialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		s.bodies[i].x = c.X + r*math.Cos(a) + s.rng.Float64() - 0.5
		s.bodies[i].y = c.Y + r*math.Sin(a) + s.rng.Float64() - 0.5
	}
}

func (s *Simulation) initLinks(edges []network.Edge) {
	degree := make([]int, len(s.bodies))
	for _, e := range edges {
		si, okS := s.index[e.Source]
		ti, okT := s.index[e.Target]
		if !okS || !okT || si == ti {
			s.logger.Debug("skipping edge", zap.String("source", e.Source), zap.String("target", e.Target))
			continue
		}
		value := e.Value
		if !finite(value) || value < 0 {
			value = 0
		}
		s.links = append(s.links, link{
			source:   si,
			target:   ti,
			distance: math.Max(s.params.LinkDistance-value*s.params.LinkSpan, 1),
			strength: value * s.params.LinkStrength,
		})
		degree[si]++
		degree[ti]++
	}
	for i := range s.links {
		l := &s.links[i]
		l.bias = float64(degree[l.source]) / float64(degree[l.source]+degree[l.target])
	}
}

// Len returns the number of nodes.
func (s *Simulation) Len() int {
	return len(s.bodies)
}

// Params returns the normalized parameters in use.
func (s *Simulation) Params() Params {
	return s.params
}

// Alpha returns the current alpha.
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// Ticks returns the number of ticks applied so far.
func (s *Simulation) Ticks() int {
	return s.ticks
}

// Recovered returns how many degenerate positions have been reset.
func (s *Simulation) Recovered() int {
	return s.recovered
}

// Converged reports whether alpha has decayed below AlphaMin with no drag
// holding it up.
func (s *Simulation) Converged() bool {
	return s.alpha < s.params.AlphaMin && s.alphaTarget < s.params.AlphaMin
}

// Reheat raises alpha so the simulation starts moving again.
func (s *Simulation) Reheat(alpha float64) {
	if alpha > s.alpha {
		s.alpha = math.Min(alpha, 1)
	}
}

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.params.AlphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyCenter()
	s.applyCollide()

	keep := 1 - s.params.VelocityDecay
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.fx != nil {
			b.x, b.vx = *b.fx, 0
		} else {
			b.vx *= keep
			b.x += b.vx
		}
		if b.fy != nil {
			b.y, b.vy = *b.fy, 0
		} else {
			b.vy *= keep
			b.y += b.vy
		}
	}
	s.resetDegenerate()
	s.ticks++
}

// Run ticks until convergence or maxTicks, returning the ticks applied.
func (s *Simulation) Run(maxTicks int) int {
	n := 0
	for n < maxTicks && !s.Converged() {
		s.Tick()
		n++
	}
	return n
}

// resetDegenerate resets nodes whose position or velocity became non-finite.
func (s *Simulation) resetDegenerate() {
	c := s.params.Center()
	for i := range s.bodies {
		b := &s.bodies[i]
		if finite(b.x) && finite(b.y) && finite(b.vx) && finite(b.vy) {
			continue
		}
		s.recovered++
		s.logger.Warn("resetting degenerate node position",
			zap.String("id", b.id), zap.Int("tick", s.ticks))
		b.vx, b.vy = 0, 0
		b.x = c.X + (s.rng.Float64()-0.5)*s.params.InitialRadius
		b.y = c.Y + (s.rng.Float64()-0.5)*s.params.InitialRadius
		if b.fx != nil {
			b.x = *b.fx
		}
		if b.fy != nil {
			b.y = *b.fy
		}
	}
}

// Positions returns the current positions in node order.
func (s *Simulation) Positions() []Position {
	out := make([]Position, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = Position{ID: b.id, X: b.x, Y: b.y, Pinned: b.fx != nil || b.fy != nil}
	}
	return out
}

// PositionMap returns the current positions keyed by node id.
func (s *Simulation) PositionMap() map[string]Point {
	out := make(map[string]Point, len(s.bodies))
	for _, b := range s.bodies {
		out[b.id] = Point{X: b.x, Y: b.y}
	}
	return out
}

// Position returns the current position of a node.
func (s *Simulation) Position(id string) (Position, bool) {
	i, ok := s.index[id]
	if !ok {
		return Position{}, false
	}
	b := s.bodies[i]
	return Position{ID: b.id, X: b.x, Y: b.y, Pinned: b.fx != nil || b.fy != nil}, true
}

// DragStart pins a node at its current position and reheats the simulation.
func (s *Simulation) DragStart(id string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	s.alphaTarget = s.params.DragAlphaTarget
	b := &s.bodies[i]
	x, y := b.x, b.y
	b.fx, b.fy = &x, &y
	return nil
}

// DragMove moves a pinned node to p. The node sits exactly at p until the
// drag ends.
func (s *Simulation) DragMove(id string, p Point) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if !finite(p.X) || !finite(p.Y) {
		return ErrInvalidPoint
	}
	b := &s.bodies[i]
	x, y := p.X, p.Y
	b.fx, b.fy = &x, &y
	b.x, b.y = p.X, p.Y
	b.vx, b.vy = 0, 0
	return nil
}

// DragEnd releases a node back to the forces and lets alpha cool.
func (s *Simulation) DragEnd(id string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	b := &s.bodies[i]
	b.fx, b.fy = nil, nil
	if !s.anyPinned() {
		s.alphaTarget = 0
	}
	return nil
}

// Pinned reports whether a node is currently held by a drag.
func (s *Simulation) Pinned(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	return s.bodies[i].fx != nil || s.bodies[i].fy != nil
}

func (s *Simulation) anyPinned() bool {
	for _, b := range s.bodies {
		if b.fx != nil || b.fy != nil {
			return true
		}
	}
	return false
}

// jiggle returns a tiny random offset used to separate coincident nodes.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

func sanitizeSize(size float64) float64 {
	if !finite(size) || size <= 0 {
		return 0
	}
	return size
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
