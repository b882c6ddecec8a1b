package interact

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/tag"
)

// DefaultRequestTimeout bounds a single network re-fetch.
const DefaultRequestTimeout = 10 * time.Second

// ErrNoSnapshot is returned by a Fetcher that produced neither a snapshot nor
// an error.
var ErrNoSnapshot = errors.New("fetcher returned no snapshot")

// Query scopes a network request.
type Query struct {
	SelectedTags   []string
	MinCorrelation float64
	MaxNodes       int
}

// Fetcher retrieves a network snapshot from the backend.
type Fetcher interface {
	FetchNetwork(ctx context.Context, q Query) (*network.Snapshot, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, q Query) (*network.Snapshot, error)

// FetchNetwork calls f.
func (f FetcherFunc) FetchNetwork(ctx context.Context, q Query) (*network.Snapshot, error) {
	return f(ctx, q)
}

// Source says where a displayed snapshot came from.
type Source string

const (
	SourceBackend   Source = "backend"
	SourceLastGood  Source = "last_good"
	SourceSynthesis Source = "synthesized"
	SourceSelection Source = "selection"
)

// Update is delivered to the snapshot callback whenever the displayed
// network changes.
type Update struct {
	Seq      uint64            `json:"seq"`
	Source   Source            `json:"source"`
	Snapshot *network.Snapshot `json:"snapshot"`
}

// SnapshotFunc observes displayed-network changes. It runs while the
// controller holds its lock, so it must not call back into the Controller.
type SnapshotFunc func(Update)

// Controller owns the selection of one network view. Selection changes are
// applied immediately and trigger an asynchronous re-fetch; only the
// response to the most recently issued request is ever applied.
type Controller struct {
	mu        sync.Mutex
	fetcher   Fetcher
	synth     *network.Synthesizer
	freqs     []tag.Frequency
	selection *Selection
	onUpdate  SnapshotFunc
	logger    *zap.Logger
	timeout   time.Duration

	minCorrelation float64
	maxNodes       int

	seq      uint64
	current  *network.Snapshot
	lastGood *network.Snapshot
	source   Source
	stale    int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithFrequencies sets the tag frequencies used to synthesize a network when
// no backend snapshot has ever been received.
func WithFrequencies(freqs []tag.Frequency) ControllerOption {
	return func(c *Controller) {
		c.freqs = tag.Rank(freqs)
	}
}

// WithSynthesizer sets the fallback synthesizer.
func WithSynthesizer(s *network.Synthesizer) ControllerOption {
	return func(c *Controller) {
		if s != nil {
			c.synth = s
		}
	}
}

// WithSnapshotFunc registers the displayed-network observer.
func WithSnapshotFunc(fn SnapshotFunc) ControllerOption {
	return func(c *Controller) {
		c.onUpdate = fn
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestTimeout bounds each re-fetch.
func WithRequestTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithQueryDefaults sets the correlation floor and node cap sent with every
// request.
func WithQueryDefaults(minCorrelation float64, maxNodes int) ControllerOption {
	return func(c *Controller) {
		c.minCorrelation = minCorrelation
		c.maxNodes = maxNodes
	}
}

// NewController creates a controller with an empty selection. Call Close to
// cancel in-flight requests.
func NewController(fetcher Fetcher, opts ...ControllerOption) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:   fetcher,
		synth:     network.NewSynthesizer(),
		selection: NewSelection(),
		logger:    zap.NewNop(),
		timeout:   DefaultRequestTimeout,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh re-fetches the network for the current selection and returns the
// request sequence number.
func (c *Controller) Refresh() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestLocked()
}

// SelectTag toggles tag and re-fetches the network scoped to the new
// selection. The selection flags of the displayed snapshot update at once.
func (c *Controller) SelectTag(t string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	selected := c.selection.Toggle(t)
	c.logger.Debug("tag toggled", zap.String("tag", t), zap.Bool("selected", selected))
	c.overlayLocked()
	c.requestLocked()
	return c.selection.Items()
}

// ResetSelection clears the selection and re-fetches the global network.
func (c *Controller) ResetSelection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Clear()
	c.overlayLocked()
	c.requestLocked()
	return c.selection.Items()
}

// FocusCategory replaces the selection with the tags of a predefined
// category.
func (c *Controller) FocusCategory(name string) ([]string, error) {
	cat, err := tag.LookupCategory(name)
	if err != nil {
		return nil, err
	}
	return c.FocusTags(cat.Tags), nil
}

// FocusTags replaces the selection with tags.
func (c *Controller) FocusTags(tags []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Replace(tags)
	c.overlayLocked()
	c.requestLocked()
	return c.selection.Items()
}

// Selection returns the selected tags in order.
func (c *Controller) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Items()
}

// Snapshot returns the displayed snapshot and where it came from. It is nil
// until the first request resolves.
func (c *Controller) Snapshot() (*network.Snapshot, Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.source
}

// Seq returns the sequence number of the latest issued request.
func (c *Controller) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// StaleResponses returns how many responses were discarded because a newer
// request had been issued.
func (c *Controller) StaleResponses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Wait blocks until every in-flight request has resolved.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight requests and waits for them to finish. The
// controller must not be used afterwards.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) query() Query {
	return Query{
		SelectedTags:   c.selection.Items(),
		MinCorrelation: c.minCorrelation,
		MaxNodes:       c.maxNodes,
	}
}

func (c *Controller) requestLocked() uint64 {
	c.seq++
	seq := c.seq
	q := c.query()
	c.wg.Add(1)
	go c.fetch(seq, q)
	return seq
}

func (c *Controller) fetch(seq uint64, q Query) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	var snap *network.Snapshot
	err := c.ctx.Err()
	if err == nil {
		if c.fetcher == nil {
			err = ErrNoSnapshot
		} else {
			snap, err = c.fetcher.FetchNetwork(ctx, q)
			if err == nil && snap == nil {
				err = ErrNoSnapshot
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.stale++
		c.logger.Debug("discarding stale network response",
			zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
		return
	}
	if errors.Is(c.ctx.Err(), context.Canceled) {
		return
	}
	if err != nil {
		c.logger.Warn("network fetch failed, using fallback",
			zap.Uint64("seq", seq), zap.Error(err))
		c.fallbackLocked(seq)
		return
	}
	c.lastGood = snap
	c.publishLocked(seq, SourceBackend, snap.WithSelection(c.selection.Items()))
}

// fallbackLocked shows the last good snapshot with the current selection, or
// a synthesized network if no backend snapshot was ever received.
func (c *Controller) fallbackLocked(seq uint64) {
	selected := c.selection.Items()
	if c.lastGood != nil {
		c.publishLocked(seq, SourceLastGood, c.lastGood.WithSelection(selected))
		return
	}
	c.publishLocked(seq, SourceSynthesis, c.synth.Synthesize(c.freqs, selected))
}

// overlayLocked refreshes the selection flags of the displayed snapshot
// without waiting for the re-fetch.
func (c *Controller) overlayLocked() {
	if c.current == nil {
		return
	}
	c.publishLocked(c.seq, SourceSelection, c.current.WithSelection(c.selection.Items()))
}

func (c *Controller) publishLocked(seq uint64, src Source, snap *network.Snapshot) {
	c.current = snap
	c.source = src
	if c.onUpdate != nil {
		c.onUpdate(Update{Seq: seq, Source: src, Snapshot: snap})
	}
}
