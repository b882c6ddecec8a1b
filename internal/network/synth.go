package network

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/webtoonlab/tagnet/internal/tag"
)

// Default synthesis parameters. They are presentation heuristics carried over
// from the dashboard, not a statistical model.
const (
	DefaultMaxNodes        = 15
	DefaultInfluenceDecay  = 0.05
	DefaultInfluenceFloor  = 0.3
	DefaultSizeScale       = 3.0
	DefaultMinSize         = 20.0
	DefaultMaxSize         = 50.0
	DefaultPairWindow      = 3
	DefaultAcceptThreshold = 0.4
	DefaultMaxEdges        = 20
	DefaultWeightMin       = 0.3
	DefaultWeightSpan      = 0.6
	DefaultRatingBase      = 9.0
	DefaultRatingSpan      = 0.8
)

// Options tunes synthesis. Zero fields take their defaults.
type Options struct {
	MaxNodes        int     `yaml:"max_nodes,omitempty" json:"max_nodes"`
	InfluenceDecay  float64 `yaml:"influence_decay,omitempty" json:"influence_decay"`
	InfluenceFloor  float64 `yaml:"influence_floor,omitempty" json:"influence_floor"`
	SizeScale       float64 `yaml:"size_scale,omitempty" json:"size_scale"`
	MinSize         float64 `yaml:"min_size,omitempty" json:"min_size"`
	MaxSize         float64 `yaml:"max_size,omitempty" json:"max_size"`
	PairWindow      int     `yaml:"pair_window,omitempty" json:"pair_window"`
	AcceptThreshold float64 `yaml:"accept_threshold,omitempty" json:"accept_threshold"`
	MaxEdges        int     `yaml:"max_edges,omitempty" json:"max_edges"`
}

// DefaultOptions returns the dashboard's synthesis parameters.
func DefaultOptions() Options {
	return Options{
		MaxNodes:        DefaultMaxNodes,
		InfluenceDecay:  DefaultInfluenceDecay,
		InfluenceFloor:  DefaultInfluenceFloor,
		SizeScale:       DefaultSizeScale,
		MinSize:         DefaultMinSize,
		MaxSize:         DefaultMaxSize,
		PairWindow:      DefaultPairWindow,
		AcceptThreshold: DefaultAcceptThreshold,
		MaxEdges:        DefaultMaxEdges,
	}
}

// normalized fills zero or invalid fields with defaults.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxNodes <= 0 {
		o.MaxNodes = d.MaxNodes
	}
	if o.InfluenceDecay <= 0 {
		o.InfluenceDecay = d.InfluenceDecay
	}
	if o.InfluenceFloor <= 0 {
		o.InfluenceFloor = d.InfluenceFloor
	}
	if o.SizeScale <= 0 {
		o.SizeScale = d.SizeScale
	}
	if o.MinSize <= 0 {
		o.MinSize = d.MinSize
	}
	if o.MaxSize < o.MinSize {
		o.MaxSize = math.Max(d.MaxSize, o.MinSize)
	}
	if o.PairWindow <= 0 {
		o.PairWindow = d.PairWindow
	}
	if o.AcceptThreshold <= 0 {
		o.AcceptThreshold = d.AcceptThreshold
	}
	if o.MaxEdges <= 0 {
		o.MaxEdges = d.MaxEdges
	}
	return o
}

// WeightFunc produces a pseudo-correlation in (0,1] for two ranked nodes.
type WeightFunc func(a, b Node) float64

// Synthesizer turns tag frequencies or backend payloads into snapshots.
type Synthesizer struct {
	opts       Options
	classifier *tag.Classifier
	rng        *rand.Rand
	weight     WeightFunc
	logger     *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithOptions sets the synthesis parameters.
func WithOptions(o Options) Option {
	return func(s *Synthesizer) {
		s.opts = o.normalized()
	}
}

// WithSeed makes synthesized weights and ratings reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Synthesizer) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithWeightFunc replaces the random weight generator.
func WithWeightFunc(fn WeightFunc) Option {
	return func(s *Synthesizer) {
		s.weight = fn
	}
}

// WithClassifier sets the tag group classifier.
func WithClassifier(c *tag.Classifier) Option {
	return func(s *Synthesizer) {
		s.classifier = c
	}
}

// WithLogger sets the logger used to report dropped tags and edges.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSynthesizer creates a synthesizer. Without WithSeed the weights are
// drawn from a randomly seeded source.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		opts:       DefaultOptions(),
		classifier: tag.NewClassifier(nil),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.weight == nil {
		s.weight = s.randomWeight
	}
	return s
}

// Options returns the effective parameters.
func (s *Synthesizer) Options() Options {
	return s.opts
}

// randomWeight draws uniformly from [WeightMin, WeightMin+WeightSpan).
func (s *Synthesizer) randomWeight(_, _ Node) float64 {
	return DefaultWeightMin + s.rng.Float64()*DefaultWeightSpan
}

// Influence returns the rank-decayed influence for 0-based rank i.
func (s *Synthesizer) Influence(i int) float64 {
	return math.Max(s.opts.InfluenceFloor, 1-float64(i)*s.opts.InfluenceDecay)
}

// Size returns the clamped node radius for a tag count.
func (s *Synthesizer) Size(count int) float64 {
	return clamp(float64(count)*s.opts.SizeScale, s.opts.MinSize, s.opts.MaxSize)
}

// Synthesize builds a snapshot from frequencies ordered descending by count.
// Edges are synthesized, so the result is flagged as such.
func (s *Synthesizer) Synthesize(freqs []tag.Frequency, selected []string) *Snapshot {
	if len(freqs) == 0 {
		snap := Empty(true)
		snap.Summary = summarize(nil, nil, selected)
		return snap
	}

	sel := toSet(selected)

	// A tag keeps its first, highest-ranked entry; repeats do not count
	// toward MaxNodes.
	nodes := make([]Node, 0, min(len(freqs), s.opts.MaxNodes))
	seen := make(map[string]bool, cap(nodes))
	for _, f := range freqs {
		if len(nodes) == s.opts.MaxNodes {
			break
		}
		if f.Tag == "" || seen[f.Tag] {
			s.logger.Warn("skipping repeated or unnamed tag", zap.String("tag", f.Tag), zap.Int("count", f.Count))
			continue
		}
		seen[f.Tag] = true
		i := len(nodes)
		nodes = append(nodes, Node{
			ID:        f.Tag,
			Count:     f.Count,
			Influence: s.Influence(i),
			Size:      s.Size(f.Count),
			Group:     s.classifier.Classify(f.Tag),
			Selected:  sel[f.Tag],
			AvgRating: DefaultRatingBase + s.rng.Float64()*DefaultRatingSpan,
		})
	}
	n := len(nodes)

	edges := make([]Edge, 0, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < min(n, i+1+s.opts.PairWindow); j++ {
			w := s.weight(nodes[i], nodes[j])
			if w <= s.opts.AcceptThreshold {
				continue
			}
			w = math.Min(w, 1)
			edges = append(edges, Edge{
				Source:       nodes[i].ID,
				Target:       nodes[j].ID,
				Value:        w,
				Width:        EdgeWidth(w),
				CoOccurrence: math.Floor(w * float64(nodes[i].Count) * 0.5),
			})
		}
	}
	if len(edges) > s.opts.MaxEdges {
		edges = edges[:s.opts.MaxEdges]
	}

	return &Snapshot{
		Nodes:       nodes,
		Edges:       edges,
		Summary:     summarize(nodes, edges, selected),
		Synthesized: true,
	}
}

// FromBackend passes backend nodes and edges through, overlaying only the
// selected flag. Edges that reference unknown nodes or carry a non-finite or
// non-positive value are dropped and logged.
func (s *Synthesizer) FromBackend(nodes []Node, edges []Edge, selected []string) *Snapshot {
	sel := toSet(selected)
	outNodes := make([]Node, 0, len(nodes))
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" || ids[n.ID] {
			s.logger.Warn("dropping duplicate or unnamed node", zap.String("id", n.ID))
			continue
		}
		ids[n.ID] = true
		n.Selected = sel[n.ID]
		outNodes = append(outNodes, n)
	}

	outEdges := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if !ids[e.Source] || !ids[e.Target] {
			s.logger.Warn("dropping edge with unknown endpoint",
				zap.String("source", e.Source),
				zap.String("target", e.Target))
			continue
		}
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) || e.Value <= 0 {
			s.logger.Warn("dropping edge with invalid weight",
				zap.String("source", e.Source),
				zap.String("target", e.Target),
				zap.Float64("value", e.Value))
			continue
		}
		outEdges = append(outEdges, e)
	}

	return &Snapshot{
		Nodes:       outNodes,
		Edges:       outEdges,
		Summary:     summarize(outNodes, outEdges, selected),
		Synthesized: false,
	}
}

// EdgeWidth returns the stroke width for a correlation value.
func EdgeWidth(value float64) float64 {
	return math.Max(1, value*6)
}

// Validate reports the edges of a snapshot that reference unknown nodes.
func Validate(s *Snapshot) []Edge {
	if s == nil {
		return nil
	}
	ids := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		ids[n.ID] = true
	}
	var bad []Edge
	for _, e := range s.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			bad = append(bad, e)
		}
	}
	return bad
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
