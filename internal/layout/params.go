// Package layout computes force-directed positions for network snapshots.
//
// The model follows the usual velocity-Verlet style relaxation: each tick the
// link, charge, center and collision forces adjust node velocities, velocities
// decay, and positions advance. A decaying alpha scales the soft forces so the
// layout settles; dragging a node reheats it.
package layout

import "math"

// Default layout parameters.
const (
	DefaultWidth           = 900.0
	DefaultHeight          = 700.0
	DefaultLinkDistance    = 100.0
	DefaultLinkSpan        = 30.0
	DefaultLinkStrength    = 0.8
	DefaultChargeBase      = 200.0
	DefaultChargeInfluence = 100.0
	DefaultCenterStrength  = 1.0
	DefaultCollidePadding  = 8.0
	DefaultCollideStrength = 1.0
	DefaultMinRadius       = 1.0
	DefaultAlphaMin        = 0.001
	DefaultVelocityDecay   = 0.4
	DefaultDragAlphaTarget = 0.3
	DefaultInitialRadius   = 10.0
	DefaultMaxTicks        = 300
)

// DefaultAlphaDecay brings alpha from 1 to AlphaMin in about 300 ticks.
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/DefaultMaxTicks)

// Params configures a simulation. Zero fields take their defaults.
type Params struct {
	Width  float64 `yaml:"width,omitempty" json:"width"`
	Height float64 `yaml:"height,omitempty" json:"height"`

	// Link target distance is LinkDistance - value*LinkSpan; strength is
	// value*LinkStrength.
	LinkDistance float64 `yaml:"link_distance,omitempty" json:"link_distance"`
	LinkSpan     float64 `yaml:"link_span,omitempty" json:"link_span"`
	LinkStrength float64 `yaml:"link_strength,omitempty" json:"link_strength"`

	// Node charge is -(ChargeBase + influence*ChargeInfluence).
	ChargeBase      float64 `yaml:"charge_base,omitempty" json:"charge_base"`
	ChargeInfluence float64 `yaml:"charge_influence,omitempty" json:"charge_influence"`

	CenterStrength float64 `yaml:"center_strength,omitempty" json:"center_strength"`

	// Collision radius is max(size, MinRadius) + CollidePadding.
	CollidePadding  float64 `yaml:"collide_padding,omitempty" json:"collide_padding"`
	CollideStrength float64 `yaml:"collide_strength,omitempty" json:"collide_strength"`
	MinRadius       float64 `yaml:"min_radius,omitempty" json:"min_radius"`

	AlphaMin        float64 `yaml:"alpha_min,omitempty" json:"alpha_min"`
	AlphaDecay      float64 `yaml:"alpha_decay,omitempty" json:"alpha_decay"`
	VelocityDecay   float64 `yaml:"velocity_decay,omitempty" json:"velocity_decay"`
	DragAlphaTarget float64 `yaml:"drag_alpha_target,omitempty" json:"drag_alpha_target"`
	InitialRadius   float64 `yaml:"initial_radius,omitempty" json:"initial_radius"`

	Seed uint64 `yaml:"seed,omitempty" json:"seed"`
}

// DefaultParams returns the dashboard's force settings.
func DefaultParams() Params {
	return Params{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		LinkDistance:    DefaultLinkDistance,
		LinkSpan:        DefaultLinkSpan,
		LinkStrength:    DefaultLinkStrength,
		ChargeBase:      DefaultChargeBase,
		ChargeInfluence: DefaultChargeInfluence,
		CenterStrength:  DefaultCenterStrength,
		CollidePadding:  DefaultCollidePadding,
		CollideStrength: DefaultCollideStrength,
		MinRadius:       DefaultMinRadius,
		AlphaMin:        DefaultAlphaMin,
		AlphaDecay:      DefaultAlphaDecay,
		VelocityDecay:   DefaultVelocityDecay,
		DragAlphaTarget: DefaultDragAlphaTarget,
		InitialRadius:   DefaultInitialRadius,
	}
}

// Normalized fills zero or invalid fields with defaults.
func (p Params) Normalized() Params {
	d := DefaultParams()
	fill := func(v *float64, def float64) {
		if *v <= 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = def
		}
	}
	fill(&p.Width, d.Width)
	fill(&p.Height, d.Height)
	fill(&p.LinkDistance, d.LinkDistance)
	fill(&p.LinkSpan, d.LinkSpan)
	fill(&p.LinkStrength, d.LinkStrength)
	fill(&p.ChargeBase, d.ChargeBase)
	fill(&p.ChargeInfluence, d.ChargeInfluence)
	fill(&p.CenterStrength, d.CenterStrength)
	fill(&p.CollidePadding, d.CollidePadding)
	fill(&p.CollideStrength, d.CollideStrength)
	fill(&p.MinRadius, d.MinRadius)
	fill(&p.AlphaMin, d.AlphaMin)
	fill(&p.AlphaDecay, d.AlphaDecay)
	fill(&p.VelocityDecay, d.VelocityDecay)
	fill(&p.DragAlphaTarget, d.DragAlphaTarget)
	fill(&p.InitialRadius, d.InitialRadius)
	if p.AlphaDecay >= 1 {
		p.AlphaDecay = d.AlphaDecay
	}
	if p.VelocityDecay >= 1 {
		p.VelocityDecay = d.VelocityDecay
	}
	return p
}

// Center returns the canvas center.
func (p Params) Center() Point {
	return Point{X: p.Width / 2, Y: p.Height / 2}
}
