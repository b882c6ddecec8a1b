package interact

import (
	"errors"
	"math"
	"time"

	"github.com/webtoonlab/tagnet/internal/layout"
)

// Default click thresholds. A press that moves farther than ClickDistance
// becomes a drag; a press held longer than ClickDuration without moving is
// ignored.
const (
	DefaultClickDistance = 4.0
	DefaultClickDuration = 250 * time.Millisecond
)

// ErrNoPress is returned when a gesture event arrives without a press.
var ErrNoPress = errors.New("no pointer press in progress")

// Thresholds configures click versus drag disambiguation.
type Thresholds struct {
	ClickDistance float64       `yaml:"click_distance,omitempty" json:"click_distance"`
	ClickDuration time.Duration `yaml:"click_duration,omitempty" json:"click_duration"`
}

// DefaultThresholds returns the default click thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{ClickDistance: DefaultClickDistance, ClickDuration: DefaultClickDuration}
}

// Normalized fills zero or negative fields with defaults.
func (t Thresholds) Normalized() Thresholds {
	if t.ClickDistance <= 0 || math.IsNaN(t.ClickDistance) {
		t.ClickDistance = DefaultClickDistance
	}
	if t.ClickDuration <= 0 {
		t.ClickDuration = DefaultClickDuration
	}
	return t
}

// Pinner holds nodes during a drag. layout.Runner implements it.
type Pinner interface {
	DragStart(id string) error
	DragMove(id string, p layout.Point) error
	DragEnd(id string) error
}

// Selector toggles a tag. Controller implements it.
type Selector interface {
	SelectTag(tag string) []string
}

// Kind classifies a finished gesture.
type Kind int

const (
	KindNone Kind = iota
	KindClick
	KindDrag
)

func (k Kind) String() string {
	switch k {
	case KindClick:
		return "click"
	case KindDrag:
		return "drag"
	default:
		return "none"
	}
}

type press struct {
	id       string
	start    layout.Point
	at       time.Time
	dragging bool
}

// Gesture turns pointer events on a node into either a click, which toggles
// the tag, or a drag, which pins the node under the pointer. Only one press
// is tracked at a time.
type Gesture struct {
	thresholds Thresholds
	pinner     Pinner
	selector   Selector
	now        func() time.Time
	active     *press
}

// GestureOption configures a Gesture.
type GestureOption func(*Gesture)

// WithThresholds sets the click thresholds.
func WithThresholds(t Thresholds) GestureOption {
	return func(g *Gesture) {
		g.thresholds = t.Normalized()
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) GestureOption {
	return func(g *Gesture) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGesture creates a gesture tracker.
func NewGesture(pinner Pinner, selector Selector, opts ...GestureOption) *Gesture {
	g := &Gesture{
		thresholds: DefaultThresholds(),
		pinner:     pinner,
		selector:   selector,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Down starts a press on node id at p. A press already in progress is
// abandoned first.
func (g *Gesture) Down(id string, p layout.Point) error {
	if g.active != nil {
		if err := g.Cancel(); err != nil {
			return err
		}
	}
	g.active = &press{id: id, start: p, at: g.now()}
	return nil
}

// Move tracks the pointer. Once it leaves the click radius the press turns
// into a drag and the node follows the pointer.
func (g *Gesture) Move(p layout.Point) error {
	a := g.active
	if a == nil {
		return ErrNoPress
	}
	if !a.dragging {
		if math.Hypot(p.X-a.start.X, p.Y-a.start.Y) <= g.thresholds.ClickDistance {
			return nil
		}
		if err := g.pinner.DragStart(a.id); err != nil {
			g.active = nil
			return err
		}
		a.dragging = true
	}
	return g.pinner.DragMove(a.id, p)
}

// Up finishes the press at p. A drag releases the node and never toggles
// the selection. A short press that stayed within the click radius toggles
// the tag.
func (g *Gesture) Up(p layout.Point) (Kind, error) {
	a := g.active
	if a == nil {
		return KindNone, ErrNoPress
	}
	g.active = nil
	if a.dragging {
		return KindDrag, g.pinner.DragEnd(a.id)
	}
	if math.Hypot(p.X-a.start.X, p.Y-a.start.Y) > g.thresholds.ClickDistance {
		return KindNone, nil
	}
	if g.now().Sub(a.at) > g.thresholds.ClickDuration {
		return KindNone, nil
	}
	g.selector.SelectTag(a.id)
	return KindClick, nil
}

// Cancel abandons the current press, releasing a dragged node.
func (g *Gesture) Cancel() error {
	a := g.active
	g.active = nil
	if a != nil && a.dragging {
		return g.pinner.DragEnd(a.id)
	}
	return nil
}

// Active reports whether a press is in progress.
func (g *Gesture) Active() bool {
	return g.active != nil
}
