package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webtoonlab/tagnet/internal/api"
	"github.com/webtoonlab/tagnet/internal/dashboard"
	"github.com/webtoonlab/tagnet/internal/layout"
	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/storage"
	"github.com/webtoonlab/tagnet/internal/viz"
)

var (
	netTags           []string
	netMaxNodes       int
	netMinCorrelation float64

	layoutTicks  int
	layoutView   string
	layoutSave   bool
	layoutResume bool

	vizOutput      string
	vizFormat      string
	vizInteractive bool
)

func addNetworkFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&netTags, "tags", nil, "Selected tags (comma-separated)")
	cmd.Flags().IntVar(&netMaxNodes, "max-nodes", 0, "Maximum nodes (default from config)")
	cmd.Flags().Float64Var(&netMinCorrelation, "min-correlation", 0, "Minimum correlation for backend links (default from config)")
}

func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&layoutTicks, "ticks", layout.DefaultMaxTicks, "Maximum simulation ticks")
	cmd.Flags().StringVar(&layoutView, "view", "default", "Name under which positions are stored")
	cmd.Flags().BoolVar(&layoutSave, "save", false, "Store the final positions in the cache")
	cmd.Flags().BoolVar(&layoutResume, "resume", false, "Start from the stored positions")
}

func init() {
	addNetworkFlags(networkCmd)
	rootCmd.AddCommand(networkCmd)

	addNetworkFlags(layoutCmd)
	addLayoutFlags(layoutCmd)
	rootCmd.AddCommand(layoutCmd)

	addNetworkFlags(vizCmd)
	addLayoutFlags(vizCmd)
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizFormat, "format", "html", "Output format: html, svg, or cytoscape")
	vizCmd.Flags().BoolVar(&vizInteractive, "interactive", false, "Add a Cytoscape.js view to the HTML page")
	rootCmd.AddCommand(vizCmd)
}

func networkQuery() api.NetworkQuery {
	q := api.NetworkQuery{
		SelectedTags:   netTags,
		MinCorrelation: cfg.MinCorrelation,
		MaxNodes:       cfg.Network.MaxNodes,
	}
	if netMaxNodes > 0 {
		q.MaxNodes = netMaxNodes
	}
	if netMinCorrelation > 0 {
		q.MinCorrelation = netMinCorrelation
	}
	return q
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Fetch the tag co-occurrence network",
	Long: `Fetch the tag co-occurrence network scoped to the selected tags.

When the backend is unreachable the last cached network for the same query
is used, and otherwise a network is synthesized from the tag frequencies.
Synthesized link strengths are presentation data, not correlations.

Examples:
  tagnet network
  tagnet network --tags 로맨스,판타지 --max-nodes 20
  tagnet network --offline --seed 7 --human`,
	RunE: runNetwork,
}

// NetworkResponse is the response for the network command.
type NetworkResponse struct {
	Origin   dashboard.Origin  `json:"origin"`
	Error    string            `json:"error,omitempty"`
	Network  *network.Snapshot `json:"network"`
	Insights network.Insights  `json:"insights"`
}

func runNetwork(cmd *cobra.Command, args []string) error {
	svc, _, closeFn := newService()
	defer closeFn()

	res := svc.Network(cmd.Context(), networkQuery())
	resp := NetworkResponse{
		Origin:   res.Origin,
		Error:    res.Error,
		Network:  res.Data,
		Insights: network.Analyze(res.Data),
	}
	if !humanOutput {
		return outputJSON(resp)
	}

	snap := res.Data
	outputHuman("%s  %d tags, %d links  [%s]\n", Brand.Sprint("Tag network"),
		snap.Summary.TotalNodes, snap.Summary.TotalLinks, originBadge(res.Origin))
	if snap.Synthesized {
		outputHuman("%s\n", Subtle.Sprint("link strengths are synthesized"))
	}
	rows := make([][]string, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		mark := ""
		if n.Selected {
			mark = Good.Sprint("●")
		}
		rows = append(rows, []string{mark, n.ID, string(n.Group), fmt.Sprint(n.Count), fmt.Sprintf("%.2f", n.Influence)})
	}
	printTable([]string{"", "tag", "group", "count", "influence"}, rows)

	in := resp.Insights
	if in.CentralTag != "" {
		outputHuman("\ncentral tag: %s\n", in.CentralTag)
	}
	if in.StrongestSource != "" {
		outputHuman("strongest link: %s - %s (%.2f)\n", in.StrongestSource, in.StrongestTarget, in.StrongestValue)
	}
	if in.SelectedCount > 0 {
		outputHuman("selected: %d, avg rating %.2f\n", in.SelectedCount, in.SelectedAvgRating)
	}
	return nil
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Compute a force-directed layout of the network",
	Long: `Fetch the network and run the force simulation until it settles.

Examples:
  tagnet layout --offline --seed 3
  tagnet layout --tags 액션 --save
  tagnet layout --resume --ticks 50`,
	RunE: runLayout,
}

// LayoutResponse is the response for the layout command.
type LayoutResponse struct {
	Origin    dashboard.Origin  `json:"origin"`
	Ticks     int               `json:"ticks"`
	Alpha     float64           `json:"alpha"`
	Converged bool              `json:"converged"`
	Recovered int               `json:"recovered,omitempty"`
	Saved     int               `json:"saved,omitempty"`
	Params    layout.Params     `json:"params"`
	Positions []layout.Position `json:"positions"`
}

// layoutResult is a network together with its settled simulation.
type layoutResult struct {
	origin dashboard.Origin
	snap   *network.Snapshot
	sim    *layout.Simulation
	ticks  int
	saved  int
}

func computeLayout(ctx context.Context) (*layoutResult, error) {
	svc, db, closeFn := newService()
	defer closeFn()

	res := svc.Network(ctx, networkQuery())
	params := layoutParams()
	opts := []layout.SimOption{layout.WithSimLogger(logger.Named("layout"))}
	if layoutResume && db != nil {
		stored, err := db.LoadPositions(layoutView)
		if err != nil {
			return nil, fmt.Errorf("loading positions: %w", err)
		}
		initial := make(map[string]layout.Point, len(stored))
		for _, p := range stored {
			initial[p.NodeID] = layout.Point{X: p.X, Y: p.Y}
		}
		opts = append(opts, layout.WithInitialPositions(initial))
	}

	sim := layout.NewSimulation(res.Data, params, opts...)
	out := &layoutResult{origin: res.Origin, snap: res.Data, sim: sim}
	out.ticks = sim.Run(layoutTicks)
	logger.Debug("layout finished", zap.Int("ticks", out.ticks), zap.Bool("converged", sim.Converged()))

	if layoutSave {
		if db == nil {
			return nil, fmt.Errorf("cannot save positions: cache unavailable")
		}
		stored := make([]storage.NodePosition, 0, sim.Len())
		for _, p := range sim.Positions() {
			stored = append(stored, storage.NodePosition{NodeID: p.ID, X: p.X, Y: p.Y})
		}
		n, err := db.SavePositions(layoutView, stored)
		if err != nil {
			return nil, fmt.Errorf("saving positions: %w", err)
		}
		out.saved = n
	}
	return out, nil
}

func runLayout(cmd *cobra.Command, args []string) error {
	res, err := computeLayout(cmd.Context())
	if err != nil {
		return err
	}
	positions := res.sim.Positions()
	if !humanOutput {
		return outputJSON(LayoutResponse{
			Origin:    res.origin,
			Ticks:     res.ticks,
			Alpha:     res.sim.Alpha(),
			Converged: res.sim.Converged(),
			Recovered: res.sim.Recovered(),
			Saved:     res.saved,
			Params:    res.sim.Params(),
			Positions: positions,
		})
	}

	state := Warn.Sprint("still moving")
	if res.sim.Converged() {
		state = Good.Sprint("settled")
	}
	outputHuman("%s  %d ticks, alpha %.4f, %s  [%s]\n", Brand.Sprint("Layout"),
		res.ticks, res.sim.Alpha(), state, originBadge(res.origin))
	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{p.ID, fmt.Sprintf("%.1f", p.X), fmt.Sprintf("%.1f", p.Y)})
	}
	printTable([]string{"tag", "x", "y"}, rows)
	if res.saved > 0 {
		outputHuman("\nsaved %d positions as %q\n", res.saved, layoutView)
	}
	return nil
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Render the laid-out network",
	Long: `Render the tag network with its computed layout.

Nodes are colored by tag group and sized by frequency; selected tags are
outlined in red and the small yellow badge shows influence.

Examples:
  # Generate HTML to stdout
  tagnet viz > network.html

  # Generate SVG to a file
  tagnet viz --format svg --output network.svg

  # Cytoscape.js elements with preset positions
  tagnet viz --format cytoscape

  # Interactive page
  tagnet viz --interactive --tags 로맨스 --output network.html`,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	if !slices.Contains(viz.ValidFormats, vizFormat) {
		return fmt.Errorf("invalid format %q: must be %s", vizFormat, strings.Join(viz.ValidFormats, ", "))
	}

	res, err := computeLayout(cmd.Context())
	if err != nil {
		return err
	}
	graph := viz.BuildGraph(res.snap, res.sim.Positions(), res.sim.Params())

	var content string
	switch vizFormat {
	case "svg":
		content, err = viz.GenerateSVG(graph)
	case "cytoscape":
		content, err = graph.ToCytoscapeJSON()
		content += "\n"
	default:
		opts := viz.DefaultOptions()
		opts.Interactive = vizInteractive
		content, err = viz.GenerateHTML(graph, opts)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", vizFormat, err)
	}

	if vizOutput == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(vizOutput, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if !humanOutput {
		return outputJSON(StatusResponse{Status: "written", Path: vizOutput})
	}
	outputHuman("Visualization written to %s\n", vizOutput)
	return nil
}
