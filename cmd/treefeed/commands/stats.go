package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/treefeed/internal/config"
	"github.com/Sumatoshi-tech/treefeed/internal/observability"
	"github.com/Sumatoshi-tech/treefeed/internal/plot"
	"github.com/Sumatoshi-tech/treefeed/pkg/ancestry"
	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
	"github.com/Sumatoshi-tech/treefeed/pkg/dataset"
	"github.com/Sumatoshi-tech/treefeed/pkg/mathutil"
	"github.com/Sumatoshi-tech/treefeed/pkg/parallel"
)

// Output formats accepted by stats --format.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatPlot  = "plot"
)

// defaultStatsTop is the default length of the most-common-types table.
const defaultStatsTop = 10

var (
	// ErrUnknownFormat indicates a --format value outside the supported set.
	ErrUnknownFormat = errors.New("unknown format. Use one of: table, yaml, plot")
	// ErrPlotNeedsOut indicates --format plot without an --out path.
	ErrPlotNeedsOut = errors.New("--format plot requires --out")
)

// StatsOptions holds the resolved stats options.
type StatsOptions struct {
	In      string
	Format  string
	Out     string
	Workers int
	Limit   int
	Top     int
}

type statsExecutor func(ctx context.Context, opts StatsOptions, out io.Writer, rt *Runtime) error

// StatsCommand holds configuration and dependencies for the stats command.
type StatsCommand struct {
	in      string
	format  string
	out     string
	workers int
	limit   int
	top     int

	exec statsExecutor
}

// NewStatsCommand creates the stats command wired to the real summarizer.
func NewStatsCommand() *cobra.Command {
	return newStatsCommandWithDeps(runStats)
}

func newStatsCommandWithDeps(exec statsExecutor) *cobra.Command {
	sc := &StatsCommand{exec: exec}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a tree corpus",
		Long: `Summarize a corpus: tree, node, and leaf counts, depth and size extremes,
the most common node types, and (as a plot) the depth, size, and
value-length distributions.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.in, "in", "", "Input corpus path (JSON Lines; .lz4 read transparently)")
	cmd.Flags().StringVar(&sc.format, "format", FormatTable, "Output format: table, yaml, plot")
	cmd.Flags().StringVar(&sc.out, "out", "", "Plot HTML output path (plot format only)")
	cmd.Flags().IntVar(&sc.workers, "workers", config.DefaultPrepWorkers, "Number of parallel workers (0 = all CPUs)")
	cmd.Flags().IntVar(&sc.limit, "limit", 0, "Read at most this many input lines (0 = all)")
	cmd.Flags().IntVar(&sc.top, "top", defaultStatsTop, "Most common types shown (0 = none)")

	return cmd
}

func (sc *StatsCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("workers") {
		sc.workers = cfg.Prep.Workers
	}

	opts, err := sc.options()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	return sc.exec(cmd.Context(), opts, cmd.OutOrStdout(), rt)
}

func (sc *StatsCommand) options() (StatsOptions, error) {
	if sc.in == "" {
		return StatsOptions{}, ErrMissingInput
	}

	switch sc.format {
	case FormatTable, FormatYAML, FormatPlot:
	default:
		return StatsOptions{}, fmt.Errorf("%w: %q", ErrUnknownFormat, sc.format)
	}

	if sc.format == FormatPlot && sc.out == "" {
		return StatsOptions{}, ErrPlotNeedsOut
	}

	return StatsOptions{
		In:      sc.in,
		Format:  sc.format,
		Out:     sc.out,
		Workers: sc.workers,
		Limit:   sc.limit,
		Top:     sc.top,
	}, nil
}

func runStats(ctx context.Context, opts StatsOptions, out io.Writer, rt *Runtime) error {
	ctx, span := rt.Tracer.Start(ctx, "stats")
	defer span.End()

	startedAt := time.Now()

	lines, err := dataset.ReadLimit(opts.In, opts.Limit)
	if err != nil {
		return err
	}

	rt.Progressf("stats started trees=%s", humanize.Comma(int64(len(lines))))

	summarize := func(line []byte) (treeSummary, error) {
		s, sumErr := summarizeTree(line)
		if sumErr != nil {
			rt.Metrics.RecordTree(ctx, "stats", observability.StatusError)

			return s, sumErr
		}

		rt.Metrics.RecordTree(ctx, "stats", observability.StatusOK)

		return s, nil
	}

	summaries, err := parallel.Map(lines, summarize, parallel.Options{Workers: opts.Workers})
	if err != nil {
		return err
	}

	agg := aggregateStats(summaries)

	switch opts.Format {
	case FormatTable:
		renderStatsTable(out, buildStatsReport(agg, opts.Top))
	case FormatYAML:
		err = renderStatsYAML(out, buildStatsReport(agg, opts.Top))
	case FormatPlot:
		err = renderStatsPlot(opts.Out, agg)
	}

	if err != nil {
		return err
	}

	rt.Metrics.RecordStage(ctx, "stats", time.Since(startedAt))
	rt.Progressf("stats finished trees=%s in %s",
		humanize.Comma(int64(agg.trees)), time.Since(startedAt).Round(time.Millisecond))

	return nil
}

// treeSummary carries the per-tree tallies one corpus line contributes.
// A blank line leaves every field zero.
type treeSummary struct {
	nodes     int
	leaves    int
	depth     int
	types     map[string]int
	valueLens map[int]int
}

func summarizeTree(line []byte) (treeSummary, error) {
	var s treeSummary

	tree, err := ast.Parse(line)
	if err != nil {
		return s, err
	}

	if len(tree) == 0 {
		return s, nil
	}

	chains, err := ancestry.Build(tree)
	if err != nil {
		return s, err
	}

	s.nodes = len(tree)
	s.types = make(map[string]int)
	s.valueLens = make(map[int]int)

	for _, d := range ancestry.Depths(chains) {
		s.depth = mathutil.Max(s.depth, d)
	}

	for _, n := range tree {
		s.types[n.Type]++

		if n.IsLeaf() {
			s.leaves++
		}

		if n.Value != nil {
			s.valueLens[len(*n.Value)]++
		}
	}

	return s, nil
}

// corpusStats aggregates tree summaries across the corpus.
type corpusStats struct {
	trees        int
	nodes        int
	leaves       int
	maxNodes     int
	maxDepth     int
	depths       map[int]int
	nodesPerTree map[int]int
	valueLens    map[int]int
	typeFreq     map[string]int
}

func aggregateStats(summaries []treeSummary) corpusStats {
	agg := corpusStats{
		depths:       make(map[int]int),
		nodesPerTree: make(map[int]int),
		valueLens:    make(map[int]int),
		typeFreq:     make(map[string]int),
	}

	for _, s := range summaries {
		if s.nodes == 0 {
			continue
		}

		agg.trees++
		agg.nodes += s.nodes
		agg.leaves += s.leaves
		agg.maxNodes = mathutil.Max(agg.maxNodes, s.nodes)
		agg.maxDepth = mathutil.Max(agg.maxDepth, s.depth)
		agg.depths[s.depth]++
		agg.nodesPerTree[s.nodes]++

		for t, n := range s.types {
			agg.typeFreq[t] += n
		}

		for l, n := range s.valueLens {
			agg.valueLens[l] += n
		}
	}

	return agg
}

// typeCount is one node type with its corpus-wide occurrence count.
type typeCount struct {
	Type  string `json:"type"  yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

// statsReport is the serializable corpus summary.
type statsReport struct {
	Trees     int         `json:"trees"      yaml:"trees"`
	Nodes     int         `json:"nodes"      yaml:"nodes"`
	Leaves    int         `json:"leaves"     yaml:"leaves"`
	Values    int         `json:"values"     yaml:"values"`
	MaxNodes  int         `json:"max_nodes"  yaml:"max_nodes"`
	MaxDepth  int         `json:"max_depth"  yaml:"max_depth"`
	MeanNodes float64     `json:"mean_nodes" yaml:"mean_nodes"`
	TopTypes  []typeCount `json:"top_types,omitempty" yaml:"top_types,omitempty"`
}

func buildStatsReport(agg corpusStats, top int) statsReport {
	report := statsReport{
		Trees:    agg.trees,
		Nodes:    agg.nodes,
		Leaves:   agg.leaves,
		MaxNodes: agg.maxNodes,
		MaxDepth: agg.maxDepth,
		TopTypes: topTypes(agg.typeFreq, top),
	}

	for _, n := range agg.valueLens {
		report.Values += n
	}

	if agg.trees > 0 {
		report.MeanNodes = float64(agg.nodes) / float64(agg.trees)
	}

	return report
}

// topTypes returns the limit most frequent types, ties broken
// lexicographically.
func topTypes(freq map[string]int, limit int) []typeCount {
	if limit <= 0 {
		return nil
	}

	counts := make([]typeCount, 0, len(freq))
	for t, n := range freq {
		counts = append(counts, typeCount{Type: t, Count: n})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}

		return counts[i].Type < counts[j].Type
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}

	return counts
}

func renderStatsTable(out io.Writer, report statsReport) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Trees", humanize.Comma(int64(report.Trees))},
		{"Nodes", humanize.Comma(int64(report.Nodes))},
		{"Leaves", humanize.Comma(int64(report.Leaves))},
		{"Valued nodes", humanize.Comma(int64(report.Values))},
		{"Max nodes per tree", humanize.Comma(int64(report.MaxNodes))},
		{"Max depth", humanize.Comma(int64(report.MaxDepth))},
		{"Mean nodes per tree", fmt.Sprintf("%.1f", report.MeanNodes)},
	})

	fmt.Fprintln(out, tbl.Render())

	if len(report.TopTypes) == 0 {
		return
	}

	types := table.NewWriter()
	types.SetStyle(table.StyleLight)
	types.AppendHeader(table.Row{"Type", "Count"})

	for _, tc := range report.TopTypes {
		types.AppendRow(table.Row{tc.Type, humanize.Comma(int64(tc.Count))})
	}

	fmt.Fprintln(out, types.Render())
}

func renderStatsYAML(out io.Writer, report statsReport) error {
	encoder := yaml.NewEncoder(out)

	err := encoder.Encode(report)
	if err != nil {
		return errors.Join(fmt.Errorf("encode stats: %w", err), encoder.Close())
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("close stats encoder: %w", err)
	}

	return nil
}

func renderStatsPlot(path string, agg corpusStats) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}
	defer file.Close()

	depthBar := plot.HistogramBar("Tree depth", "per-tree maximum", "trees",
		plot.NewHistogramFromCounts(agg.depths, plot.DefaultBuckets))
	nodesBar := plot.HistogramBar("Nodes per tree", "", "trees",
		plot.NewHistogramFromCounts(agg.nodesPerTree, plot.DefaultBuckets))
	valuesBar := plot.HistogramBar("Value length", "bytes per valued node", "nodes",
		plot.NewHistogramFromCounts(agg.valueLens, plot.DefaultBuckets))

	return plot.RenderPage(file, "treefeed corpus stats", depthBar, nodesBar, valuesBar)
}
