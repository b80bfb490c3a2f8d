package commands

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treefeed/internal/config"
	"github.com/Sumatoshi-tech/treefeed/internal/observability"
	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
	"github.com/Sumatoshi-tech/treefeed/pkg/dataset"
	"github.com/Sumatoshi-tech/treefeed/pkg/parallel"
	"github.com/Sumatoshi-tech/treefeed/pkg/vocab"
)

// VocabOptions holds the resolved vocabulary build options.
type VocabOptions struct {
	In         string
	Out        string
	TopStrings int
	TopNumbers int
	Workers    int
	Limit      int
}

type vocabExecutor func(ctx context.Context, opts VocabOptions, rt *Runtime) error

// VocabCommand holds configuration and dependencies for the vocab command.
type VocabCommand struct {
	in         string
	out        string
	topStrings int
	topNumbers int
	workers    int
	limit      int

	exec vocabExecutor
}

// NewVocabCommand creates the vocab command wired to the real builder.
func NewVocabCommand() *cobra.Command {
	return newVocabCommandWithDeps(runVocab)
}

func newVocabCommandWithDeps(exec vocabExecutor) *cobra.Command {
	vc := &VocabCommand{exec: exec}

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Build the literal vocabulary from a tree corpus",
		Long: `Count string and numeric literals across the corpus and freeze the most
frequent into a vocabulary file. Literals outside the vocabulary are
replaced with placeholders by prep --emit types/values.`,
		Args: cobra.NoArgs,
		RunE: vc.run,
	}

	cmd.Flags().StringVar(&vc.in, "in", "", "Input corpus path (JSON Lines; .lz4 read transparently)")
	cmd.Flags().StringVar(&vc.out, "out", "", "Output vocabulary path")
	cmd.Flags().IntVar(&vc.topStrings, "top-str", config.DefaultTopStrings,
		"Keep this many most frequent string literals")
	cmd.Flags().IntVar(&vc.topNumbers, "top-num", config.DefaultTopNumbers,
		"Keep this many most frequent numeric literals")
	cmd.Flags().IntVar(&vc.workers, "workers", config.DefaultPrepWorkers, "Number of parallel workers (0 = all CPUs)")
	cmd.Flags().IntVar(&vc.limit, "limit", 0, "Read at most this many input lines (0 = all)")

	return cmd
}

func (vc *VocabCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	vc.applyConfig(cmd, cfg)

	opts, err := vc.options()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	return vc.exec(cmd.Context(), opts, rt)
}

func (vc *VocabCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("workers") {
		vc.workers = cfg.Prep.Workers
	}

	if !cmd.Flags().Changed("top-str") {
		vc.topStrings = cfg.Vocab.TopStrings
	}

	if !cmd.Flags().Changed("top-num") {
		vc.topNumbers = cfg.Vocab.TopNumbers
	}
}

func (vc *VocabCommand) options() (VocabOptions, error) {
	if vc.in == "" {
		return VocabOptions{}, ErrMissingInput
	}

	if vc.out == "" {
		return VocabOptions{}, ErrMissingOutput
	}

	return VocabOptions{
		In:         vc.in,
		Out:        vc.out,
		TopStrings: vc.topStrings,
		TopNumbers: vc.topNumbers,
		Workers:    vc.workers,
		Limit:      vc.limit,
	}, nil
}

func runVocab(ctx context.Context, opts VocabOptions, rt *Runtime) error {
	ctx, span := rt.Tracer.Start(ctx, "vocab")
	defer span.End()

	startedAt := time.Now()

	lines, err := dataset.ReadLimit(opts.In, opts.Limit)
	if err != nil {
		return err
	}

	rt.Progressf("vocab started trees=%s", humanize.Comma(int64(len(lines))))

	counter, err := countLiterals(ctx, lines, opts.Workers, rt)
	if err != nil {
		return err
	}

	lits := counter.Top(opts.TopStrings, opts.TopNumbers)

	err = lits.Save(opts.Out)
	if err != nil {
		return err
	}

	manifest := dataset.NewManifest([]string{opts.In}, []string{opts.Out}, map[string]string{
		"top_str": strconv.Itoa(opts.TopStrings),
		"top_num": strconv.Itoa(opts.TopNumbers),
	})

	err = manifest.Save(opts.Out + dataset.ManifestExt)
	if err != nil {
		return err
	}

	distinctStr, distinctNum := counter.Counts()
	keptStr, keptNum := lits.Size()

	rt.Metrics.RecordStage(ctx, "vocab", time.Since(startedAt))
	rt.Progressf("vocab finished str=%s/%s num=%s/%s in %s",
		humanize.Comma(int64(keptStr)), humanize.Comma(int64(distinctStr)),
		humanize.Comma(int64(keptNum)), humanize.Comma(int64(distinctNum)),
		time.Since(startedAt).Round(time.Millisecond))

	return nil
}

// countLiterals tallies literal frequencies with one Counter per chunk,
// merged in chunk order so repeated runs see identical tie-breaking.
func countLiterals(ctx context.Context, lines [][]byte, workers int, rt *Runtime) (*vocab.Counter, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	chunks := parallel.Chunks(len(lines), workers)

	count := func(bounds parallel.ChunkBounds) (*vocab.Counter, error) {
		counter := vocab.NewCounter()

		for _, line := range lines[bounds.Start:bounds.End] {
			tree, err := ast.Parse(line)
			if err != nil {
				rt.Metrics.RecordTree(ctx, "vocab", observability.StatusError)

				return nil, err
			}

			counter.Add(tree)
			rt.Metrics.RecordTree(ctx, "vocab", observability.StatusOK)
		}

		return counter, nil
	}

	counters, err := parallel.Map(chunks, count, parallel.Options{Workers: len(chunks)})
	if err != nil {
		return nil, err
	}

	total := vocab.NewCounter()
	for _, counter := range counters {
		total.Merge(counter)
	}

	return total, nil
}
