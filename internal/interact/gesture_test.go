package interact

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtoonlab/tagnet/internal/layout"
	"github.com/webtoonlab/tagnet/internal/network"
)

type recordingPinner struct {
	calls []string
	moves []layout.Point
	err   error
}

func (p *recordingPinner) DragStart(id string) error {
	p.calls = append(p.calls, "start:"+id)
	return p.err
}

func (p *recordingPinner) DragMove(id string, pt layout.Point) error {
	p.calls = append(p.calls, "move:"+id)
	p.moves = append(p.moves, pt)
	return nil
}

func (p *recordingPinner) DragEnd(id string) error {
	p.calls = append(p.calls, "end:"+id)
	return nil
}

type recordingSelector struct {
	sel *Selection
}

func (s *recordingSelector) SelectTag(tag string) []string {
	s.sel.Toggle(tag)
	return s.sel.Items()
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGesture(th Thresholds) (*Gesture, *recordingPinner, *recordingSelector, *fakeClock) {
	pin := &recordingPinner{}
	sel := &recordingSelector{sel: NewSelection()}
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := NewGesture(pin, sel, WithThresholds(th), WithClock(clock.now))
	return g, pin, sel, clock
}

func TestGesture_Click(t *testing.T) {
	g, pin, sel, clock := newTestGesture(DefaultThresholds())

	require.NoError(t, g.Down("액션", layout.Point{X: 100, Y: 100}))
	require.NoError(t, g.Move(layout.Point{X: 102, Y: 101}))
	clock.advance(100 * time.Millisecond)
	kind, err := g.Up(layout.Point{X: 102, Y: 101})

	require.NoError(t, err)
	assert.Equal(t, KindClick, kind)
	assert.Equal(t, []string{"액션"}, sel.sel.Items())
	assert.Empty(t, pin.calls, "a click never pins the node")
	assert.False(t, g.Active())
}

func TestGesture_Drag(t *testing.T) {
	g, pin, sel, _ := newTestGesture(DefaultThresholds())

	require.NoError(t, g.Down("액션", layout.Point{X: 100, Y: 100}))
	require.NoError(t, g.Move(layout.Point{X: 110, Y: 100}))
	require.NoError(t, g.Move(layout.Point{X: 150, Y: 180}))
	kind, err := g.Up(layout.Point{X: 100, Y: 100})

	require.NoError(t, err)
	assert.Equal(t, KindDrag, kind)
	assert.Equal(t, []string{"start:액션", "move:액션", "move:액션", "end:액션"}, pin.calls)
	assert.Equal(t, layout.Point{X: 150, Y: 180}, pin.moves[1])
	assert.Empty(t, sel.sel.Items(), "a drag never toggles the selection")
}

func TestGesture_Thresholds(t *testing.T) {
	tests := []struct {
		name string
		th   Thresholds
		move layout.Point
		hold time.Duration
		want Kind
	}{
		{"within defaults", Thresholds{}, layout.Point{X: 3}, 200 * time.Millisecond, KindClick},
		{"held too long", Thresholds{}, layout.Point{}, time.Second, KindNone},
		{"moved past default", Thresholds{}, layout.Point{X: 5}, 0, KindDrag},
		{"wide radius", Thresholds{ClickDistance: 20}, layout.Point{X: 15}, 0, KindClick},
		{"long hold allowed", Thresholds{ClickDuration: 2 * time.Second}, layout.Point{}, time.Second, KindClick},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _, clock := newTestGesture(tt.th)
			require.NoError(t, g.Down("로맨스", layout.Point{}))
			require.NoError(t, g.Move(tt.move))
			clock.advance(tt.hold)
			kind, err := g.Up(tt.move)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind, kind.String())
		})
	}
}

func TestGesture_UpFarWithoutMoveIsNotClick(t *testing.T) {
	g, pin, sel, _ := newTestGesture(DefaultThresholds())
	require.NoError(t, g.Down("로맨스", layout.Point{}))
	kind, err := g.Up(layout.Point{X: 50})
	require.NoError(t, err)
	assert.Equal(t, KindNone, kind)
	assert.Empty(t, pin.calls)
	assert.Empty(t, sel.sel.Items())
}

func TestGesture_Errors(t *testing.T) {
	g, pin, _, _ := newTestGesture(DefaultThresholds())

	assert.ErrorIs(t, g.Move(layout.Point{}), ErrNoPress)
	_, err := g.Up(layout.Point{})
	assert.ErrorIs(t, err, ErrNoPress)

	pin.err = errors.New("gone")
	require.NoError(t, g.Down("x", layout.Point{}))
	assert.Error(t, g.Move(layout.Point{X: 100}))
	assert.False(t, g.Active())
}

func TestGesture_CancelReleasesDrag(t *testing.T) {
	g, pin, _, _ := newTestGesture(DefaultThresholds())
	require.NoError(t, g.Down("a", layout.Point{}))
	require.NoError(t, g.Move(layout.Point{X: 30}))

	require.NoError(t, g.Down("b", layout.Point{}))
	assert.Equal(t, []string{"start:a", "move:a", "end:a"}, pin.calls)
	assert.True(t, g.Active())
	require.NoError(t, g.Cancel())
	assert.False(t, g.Active())
}

func TestGesture_WithRunner(t *testing.T) {
	snap := network.NewSynthesizer(network.WithSeed(5)).Synthesize(sampleFreqs, nil)
	r := layout.NewRunner(layout.DefaultParams(), layout.WithTickInterval(time.Hour))
	defer r.Close()
	r.Load(snap)

	sel := &recordingSelector{sel: NewSelection()}
	g := NewGesture(r, sel)

	start, ok := r.Position("판타지")
	require.True(t, ok)
	require.NoError(t, g.Down("판타지", layout.Point{X: start.X, Y: start.Y}))
	target := layout.Point{X: start.X + 80, Y: start.Y - 40}
	require.NoError(t, g.Move(target))

	p, _ := r.Position("판타지")
	assert.Equal(t, target.X, p.X)
	assert.Equal(t, target.Y, p.Y)
	assert.True(t, p.Pinned)

	kind, err := g.Up(target)
	require.NoError(t, err)
	assert.Equal(t, KindDrag, kind)
	p, _ = r.Position("판타지")
	assert.False(t, p.Pinned)
}
