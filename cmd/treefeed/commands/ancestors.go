package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treefeed/internal/config"
	"github.com/Sumatoshi-tech/treefeed/internal/observability"
	"github.com/Sumatoshi-tech/treefeed/pkg/ancestry"
	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
	"github.com/Sumatoshi-tech/treefeed/pkg/dataset"
	"github.com/Sumatoshi-tech/treefeed/pkg/parallel"
)

// AncestorsOptions holds the resolved ancestor extraction options.
type AncestorsOptions struct {
	In      string
	Out     string
	Workers int
	Limit   int
}

type ancestorsExecutor func(ctx context.Context, opts AncestorsOptions, rt *Runtime) error

// AncestorsCommand holds configuration and dependencies for the ancestors
// command.
type AncestorsCommand struct {
	in       string
	out      string
	workers  int
	compress bool
	limit    int

	exec ancestorsExecutor
}

// NewAncestorsCommand creates the ancestors command wired to the real
// extractor.
func NewAncestorsCommand() *cobra.Command {
	return newAncestorsCommandWithDeps(runAncestors)
}

func newAncestorsCommandWithDeps(exec ancestorsExecutor) *cobra.Command {
	ac := &AncestorsCommand{exec: exec}

	cmd := &cobra.Command{
		Use:   "ancestors",
		Short: "Emit per-node ancestor chains, one line per tree",
		Long: `Derive the ancestor chain of every node: the node index first, then each
ancestor walking up to the root. One output line per input tree, without
windowing; use prep --emit ancestors for windowed chains.`,
		Args: cobra.NoArgs,
		RunE: ac.run,
	}

	cmd.Flags().StringVar(&ac.in, "in", "", "Input corpus path (JSON Lines; .lz4 read transparently)")
	cmd.Flags().StringVar(&ac.out, "out", "", "Output corpus path")
	cmd.Flags().IntVar(&ac.workers, "workers", config.DefaultPrepWorkers, "Number of parallel workers (0 = all CPUs)")
	cmd.Flags().BoolVar(&ac.compress, "compress", config.DefaultPrepCompress, "lz4-compress the output")
	cmd.Flags().IntVar(&ac.limit, "limit", 0, "Read at most this many input lines (0 = all)")

	return cmd
}

func (ac *AncestorsCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	ac.applyConfig(cmd, cfg)

	opts, err := ac.options()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	return ac.exec(cmd.Context(), opts, rt)
}

func (ac *AncestorsCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("workers") {
		ac.workers = cfg.Prep.Workers
	}

	if !cmd.Flags().Changed("compress") {
		ac.compress = cfg.Prep.Compress
	}
}

func (ac *AncestorsCommand) options() (AncestorsOptions, error) {
	if ac.in == "" {
		return AncestorsOptions{}, ErrMissingInput
	}

	if ac.out == "" {
		return AncestorsOptions{}, ErrMissingOutput
	}

	out := ac.out
	if ac.compress && !strings.HasSuffix(out, dataset.CompressedExt) {
		out += dataset.CompressedExt
	}

	return AncestorsOptions{
		In:      ac.in,
		Out:     out,
		Workers: ac.workers,
		Limit:   ac.limit,
	}, nil
}

func runAncestors(ctx context.Context, opts AncestorsOptions, rt *Runtime) error {
	ctx, span := rt.Tracer.Start(ctx, "ancestors")
	defer span.End()

	startedAt := time.Now()

	lines, err := dataset.ReadLimit(opts.In, opts.Limit)
	if err != nil {
		return err
	}

	rt.Progressf("ancestors started trees=%s", humanize.Comma(int64(len(lines))))

	transform := func(line []byte) ([]byte, error) {
		chains, chainErr := chainLine(line)
		if chainErr != nil {
			rt.Metrics.RecordTree(ctx, "ancestors", observability.StatusError)

			return nil, chainErr
		}

		rt.Metrics.RecordTree(ctx, "ancestors", observability.StatusOK)

		return chains, nil
	}

	results, err := parallel.Map(lines, transform, parallel.Options{Workers: opts.Workers})
	if err != nil {
		return err
	}

	written, err := writeChains(opts.Out, results)
	if err != nil {
		return err
	}

	manifest := dataset.NewManifest([]string{opts.In}, []string{opts.Out}, nil)

	err = manifest.Save(opts.Out + dataset.ManifestExt)
	if err != nil {
		return err
	}

	rt.Metrics.RecordStage(ctx, "ancestors", time.Since(startedAt))
	rt.Progressf("ancestors finished trees=%s in %s",
		humanize.Comma(int64(written)), time.Since(startedAt).Round(time.Millisecond))

	return nil
}

// chainLine derives the marshalled ancestor chains of one corpus line.
// Blank lines and empty trees yield nil, which the writer skips.
func chainLine(line []byte) ([]byte, error) {
	tree, err := ast.Parse(line)
	if err != nil {
		return nil, err
	}

	if len(tree) == 0 {
		return nil, nil
	}

	chains, err := ancestry.Build(tree)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(chains)
	if err != nil {
		return nil, fmt.Errorf("encode chains: %w", err)
	}

	return data, nil
}

// writeChains writes non-nil chain lines in input order and returns the
// line count.
func writeChains(path string, results [][]byte) (int, error) {
	w, err := dataset.NewWriter(path)
	if err != nil {
		return 0, err
	}

	for _, line := range results {
		if line == nil {
			continue
		}

		err = w.WriteLine(line)
		if err != nil {
			return 0, errors.Join(err, w.Close())
		}
	}

	written := w.Count()

	err = w.Close()
	if err != nil {
		return 0, err
	}

	return written, nil
}
