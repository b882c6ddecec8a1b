package layout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/webtoonlab/tagnet/internal/network"
)

// DefaultTickInterval paces the tick loop at roughly 60 frames per second.
const DefaultTickInterval = 16 * time.Millisecond

// TickFunc observes a tick. It runs while the runner holds its lock, so it
// must not call back into the Runner.
type TickFunc func(gen uint64, positions []Position, alpha float64)

// Runner drives a Simulation on a ticker goroutine. Loading a new snapshot
// bumps the generation; ticks from a superseded generation are discarded
// before they touch any node.
type Runner struct {
	mu       sync.Mutex
	params   Params
	interval time.Duration
	onTick   TickFunc
	logger   *zap.Logger

	sim     *Simulation
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	closed  bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTickInterval sets the pause between ticks.
func WithTickInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithTickFunc registers a tick observer.
func WithTickFunc(fn TickFunc) RunnerOption {
	return func(r *Runner) {
		r.onTick = fn
	}
}

// WithRunnerLogger sets the logger for the runner and its simulations.
func WithRunnerLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates an idle runner.
func NewRunner(params Params, opts ...RunnerOption) *Runner {
	r := &Runner{
		params:   params.Normalized(),
		interval: DefaultTickInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load stops any running layout and starts a fresh simulation for snap.
// Nodes that persist from the previous snapshot keep their last position.
// It returns the new generation.
func (r *Runner) Load(snap *network.Snapshot) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.gen
	}

	r.stopLocked()
	var opts []SimOption
	opts = append(opts, WithSimLogger(r.logger))
	if r.sim != nil {
		opts = append(opts, WithInitialPositions(r.sim.PositionMap()))
	}
	r.gen++
	r.sim = NewSimulation(snap, r.params, opts...)
	r.logger.Debug("layout loaded",
		zap.Uint64("generation", r.gen),
		zap.Int("nodes", r.sim.Len()))
	r.startLocked()
	return r.gen
}

// Generation returns the current generation.
func (r *Runner) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Running reports whether the tick loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Positions returns a copy of the current positions.
func (r *Runner) Positions() []Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sim == nil {
		return nil
	}
	return r.sim.Positions()
}

// Position returns the current position of one node.
func (r *Runner) Position(id string) (Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sim == nil {
		return Position{}, false
	}
	return r.sim.Position(id)
}

// Alpha returns the current alpha, or zero with no simulation loaded.
func (r *Runner) Alpha() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sim == nil {
		return 0
	}
	return r.sim.Alpha()
}

// DragStart pins a node and restarts the tick loop if it had settled.
func (r *Runner) DragStart(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sim == nil {
		return ErrUnknownNode
	}
	if err := r.sim.DragStart(id); err != nil {
		return err
	}
	if !r.running && !r.closed {
		r.startLocked()
	}
	return nil
}

// DragMove moves a pinned node to p.
func (r *Runner) DragMove(id string, p Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sim == nil {
		return ErrUnknownNode
	}
	return r.sim.DragMove(id, p)
}

// DragEnd releases a pinned node.
func (r *Runner) DragEnd(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sim == nil {
		return ErrUnknownNode
	}
	return r.sim.DragEnd(id)
}

// Wait blocks until the current tick loop exits or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop halts the tick loop, keeping the simulation state.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Close stops the loop and releases the simulation. Later calls are no-ops.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	r.closed = true
	r.sim = nil
}

func (r *Runner) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.running = true
	go r.loop(ctx, r.gen, done)
}

func (r *Runner) stopLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.running = false
}

func (r *Runner) loop(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.step(gen, done) {
				return
			}
		}
	}
}

// step applies one tick if gen and the calling loop are still current. It
// returns false when the loop should exit, either because it was superseded
// or because the layout converged.
func (r *Runner) step(gen uint64, loop chan struct{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || loop != r.done || !r.running || r.sim == nil {
		r.logger.Debug("discarding stale tick", zap.Uint64("generation", gen), zap.Uint64("current", r.gen))
		return false
	}
	r.sim.Tick()
	if r.onTick != nil {
		r.onTick(gen, r.sim.Positions(), r.sim.Alpha())
	}
	if r.sim.Converged() {
		r.stopLocked()
		r.logger.Debug("layout converged", zap.Uint64("generation", gen), zap.Int("ticks", r.sim.Ticks()))
		return false
	}
	return true
}
