package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webtoonlab/tagnet/internal/interact"
	"github.com/webtoonlab/tagnet/internal/layout"
	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/tag"
)

var (
	exploreScript   string
	exploreInterval time.Duration
	exploreSettle   time.Duration
)

func init() {
	addNetworkFlags(exploreCmd)
	exploreCmd.Flags().StringVar(&exploreScript, "script", "", "Read commands from a file instead of stdin")
	exploreCmd.Flags().DurationVar(&exploreInterval, "interval", time.Millisecond, "Pause between layout ticks")
	exploreCmd.Flags().DurationVar(&exploreSettle, "settle-timeout", 10*time.Second, "Longest a settle command waits")
	rootCmd.AddCommand(exploreCmd)
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Drive an interactive network session from a script",
	Long: `Run a network session headlessly, reading one command per line.

Commands:
  click <tag>           Press and release on a node (toggles the tag)
  drag <tag> <x> <y>    Drag a node to x,y and release it
  select <tag>          Toggle a tag directly
  focus <category>      Replace the selection with a category's tags
  reset                 Clear the selection
  refresh               Re-fetch the network for the current selection
  settle                Wait until the layout stops moving
  wait <duration>       Let the layout run for a while, e.g. 200ms
  show                  Print the current positions

Blank lines and lines starting with # are ignored. Every command prints
one JSON event per line.

Examples:
  printf 'click 로맨스\nsettle\nshow\n' | tagnet explore --offline
  tagnet explore --script session.txt --human`,
	RunE: runExplore,
}

// scriptCommand is one parsed line of an explore script.
type scriptCommand struct {
	Line int
	Verb string
	Args []string
}

// scriptArity maps each verb to its argument count.
var scriptArity = map[string]int{
	"click":   1,
	"drag":    3,
	"select":  1,
	"focus":   1,
	"reset":   0,
	"refresh": 0,
	"settle":  0,
	"wait":    1,
	"show":    0,
}

// parseScript reads explore commands. Unknown verbs and wrong argument
// counts are reported with their line number.
func parseScript(r io.Reader) ([]scriptCommand, error) {
	var cmds []scriptCommand
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		verb := strings.ToLower(fields[0])
		want, ok := scriptArity[verb]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown command %q", line, fields[0])
		}
		if len(fields)-1 != want {
			return nil, fmt.Errorf("line %d: %s takes %d argument(s), got %d", line, verb, want, len(fields)-1)
		}
		cmd := scriptCommand{Line: line, Verb: verb, Args: fields[1:]}
		if err := cmd.check(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cmds = append(cmds, cmd)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return cmds, nil
}

func (c scriptCommand) check() error {
	switch c.Verb {
	case "drag":
		if _, err := c.point(); err != nil {
			return err
		}
	case "wait":
		if _, err := time.ParseDuration(c.Args[0]); err != nil {
			return fmt.Errorf("invalid duration %q", c.Args[0])
		}
	}
	return nil
}

func (c scriptCommand) point() (layout.Point, error) {
	x, err := strconv.ParseFloat(c.Args[1], 64)
	if err != nil {
		return layout.Point{}, fmt.Errorf("invalid x %q", c.Args[1])
	}
	y, err := strconv.ParseFloat(c.Args[2], 64)
	if err != nil {
		return layout.Point{}, fmt.Errorf("invalid y %q", c.Args[2])
	}
	return layout.Point{X: x, Y: y}, nil
}

// ExploreEvent reports the outcome of one script command.
type ExploreEvent struct {
	Line      int               `json:"line"`
	Command   string            `json:"command"`
	Gesture   string            `json:"gesture,omitempty"`
	Selection []string          `json:"selection"`
	Source    interact.Source   `json:"source,omitempty"`
	Seq       uint64            `json:"seq"`
	Nodes     int               `json:"nodes"`
	Links     int               `json:"links"`
	Alpha     float64           `json:"alpha"`
	Updates   []interact.Source `json:"updates,omitempty"`
	Positions []layout.Position `json:"positions,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// exploreSession wires a controller, a layout runner and a gesture tracker
// the way the dashboard's network view does.
type exploreSession struct {
	ctrl    *interact.Controller
	runner  *layout.Runner
	gesture *interact.Gesture
	settle  time.Duration

	mu      sync.Mutex
	updates []interact.Source
}

func newExploreSession(fetcher interact.Fetcher, freqs []tag.Frequency, synth *network.Synthesizer, log *zap.Logger) *exploreSession {
	s := &exploreSession{settle: exploreSettle}
	s.runner = layout.NewRunner(layoutParams(),
		layout.WithTickInterval(exploreInterval),
		layout.WithRunnerLogger(log.Named("layout")))
	q := networkQuery()
	s.ctrl = interact.NewController(fetcher,
		interact.WithFrequencies(freqs),
		interact.WithSynthesizer(synth),
		interact.WithControllerLogger(log.Named("interact")),
		interact.WithRequestTimeout(cfg.RequestTimeout),
		interact.WithQueryDefaults(q.MinCorrelation, q.MaxNodes),
		interact.WithSnapshotFunc(s.onUpdate))
	s.gesture = interact.NewGesture(s.runner, s.ctrl, interact.WithThresholds(cfg.Gesture))
	return s
}

// onUpdate runs under the controller lock. Selection overlays keep the node
// set, so the running layout is left alone.
func (s *exploreSession) onUpdate(u interact.Update) {
	s.mu.Lock()
	s.updates = append(s.updates, u.Source)
	s.mu.Unlock()
	if u.Source == interact.SourceSelection {
		return
	}
	s.runner.Load(u.Snapshot)
}

func (s *exploreSession) drainUpdates() []interact.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.updates
	s.updates = nil
	return out
}

func (s *exploreSession) Close() {
	s.ctrl.Close()
	s.runner.Close()
}

// start issues the initial request for the flag-selected tags.
func (s *exploreSession) start(tags []string) ExploreEvent {
	if len(tags) > 0 {
		s.ctrl.FocusTags(tags)
	} else {
		s.ctrl.Refresh()
	}
	s.ctrl.Wait()
	return s.event(scriptCommand{Verb: "start"})
}

// exec runs one command and waits for any re-fetch it triggered.
func (s *exploreSession) exec(ctx context.Context, c scriptCommand) ExploreEvent {
	var gesture interact.Kind
	var err error
	show := false

	switch c.Verb {
	case "click":
		gesture, err = s.click(c.Args[0])
	case "drag":
		p, _ := c.point()
		gesture, err = s.drag(c.Args[0], p)
	case "select":
		s.ctrl.SelectTag(c.Args[0])
	case "focus":
		_, err = s.ctrl.FocusCategory(c.Args[0])
	case "reset":
		s.ctrl.ResetSelection()
	case "refresh":
		s.ctrl.Refresh()
	case "settle":
		wctx, cancel := context.WithTimeout(ctx, s.settle)
		err = s.runner.Wait(wctx)
		cancel()
	case "wait":
		d, _ := time.ParseDuration(c.Args[0])
		select {
		case <-time.After(d):
		case <-ctx.Done():
			err = ctx.Err()
		}
	case "show":
		show = true
	}
	s.ctrl.Wait()

	ev := s.event(c)
	if c.Verb == "click" || c.Verb == "drag" {
		ev.Gesture = gesture.String()
	}
	if show {
		ev.Positions = s.runner.Positions()
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

func (s *exploreSession) click(id string) (interact.Kind, error) {
	pos, ok := s.runner.Position(id)
	if !ok {
		return interact.KindNone, fmt.Errorf("%w: %s", layout.ErrUnknownNode, id)
	}
	p := layout.Point{X: pos.X, Y: pos.Y}
	if err := s.gesture.Down(id, p); err != nil {
		return interact.KindNone, err
	}
	return s.gesture.Up(p)
}

func (s *exploreSession) drag(id string, to layout.Point) (interact.Kind, error) {
	pos, ok := s.runner.Position(id)
	if !ok {
		return interact.KindNone, fmt.Errorf("%w: %s", layout.ErrUnknownNode, id)
	}
	if err := s.gesture.Down(id, layout.Point{X: pos.X, Y: pos.Y}); err != nil {
		return interact.KindNone, err
	}
	if err := s.gesture.Move(to); err != nil {
		s.gesture.Cancel()
		return interact.KindNone, err
	}
	return s.gesture.Up(to)
}

func (s *exploreSession) event(c scriptCommand) ExploreEvent {
	snap, src := s.ctrl.Snapshot()
	ev := ExploreEvent{
		Line:      c.Line,
		Command:   strings.TrimSpace(c.Verb + " " + strings.Join(c.Args, " ")),
		Selection: s.ctrl.Selection(),
		Source:    src,
		Seq:       s.ctrl.Seq(),
		Alpha:     s.runner.Alpha(),
		Updates:   s.drainUpdates(),
	}
	if snap != nil {
		ev.Nodes = len(snap.Nodes)
		ev.Links = len(snap.Edges)
	}
	return ev
}

func runExplore(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if exploreScript != "" {
		f, err := os.Open(exploreScript)
		if err != nil {
			exitWithError(ExitDataError, "opening script: %v", err)
		}
		defer f.Close()
		in = f
	}
	cmds, err := parseScript(in)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	svc, _, closeFn := newService()
	defer closeFn()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var freqs []tag.Frequency
	if ta := svc.TagAnalysis(ctx).Data; ta != nil {
		freqs = ta.TagFrequency
	}

	sess := newExploreSession(svc.Fetcher(), freqs, newSynthesizer(), logger)
	defer sess.Close()

	emit := eventWriter(os.Stdout)
	if err := emit(sess.start(netTags)); err != nil {
		return err
	}
	for _, c := range cmds {
		if err := emit(sess.exec(ctx, c)); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// eventWriter prints events as JSON lines, or as one summary line each with
// --human.
func eventWriter(w io.Writer) func(ExploreEvent) error {
	if !humanOutput {
		enc := json.NewEncoder(w)
		return func(ev ExploreEvent) error {
			return enc.Encode(ev)
		}
	}
	return func(ev ExploreEvent) error {
		head := Brand.Sprint(ev.Command)
		if ev.Gesture != "" {
			head += Subtle.Sprintf(" (%s)", ev.Gesture)
		}
		fmt.Fprintf(w, "%s  %d tags, %d links  [%s]  selected: %s\n",
			head, ev.Nodes, ev.Links, ev.Source, strings.Join(ev.Selection, ", "))
		if ev.Error != "" {
			fmt.Fprintf(w, "  %s %s\n", Bad.Sprint("error:"), ev.Error)
		}
		for _, p := range ev.Positions {
			fmt.Fprintf(w, "  %-12s %8.1f %8.1f\n", p.ID, p.X, p.Y)
		}
		return nil
	}
}
