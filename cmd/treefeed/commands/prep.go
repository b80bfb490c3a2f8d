package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
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
	"github.com/Sumatoshi-tech/treefeed/pkg/separate"
	"github.com/Sumatoshi-tech/treefeed/pkg/tokenize"
	"github.com/Sumatoshi-tech/treefeed/pkg/vocab"
	"github.com/Sumatoshi-tech/treefeed/pkg/window"
)

// Emit kinds accepted by prep --emit.
const (
	EmitTrees     = "trees"
	EmitTypes     = "types"
	EmitValues    = "values"
	EmitTokens    = "tokens"
	EmitLeaves    = "leaves"
	EmitAncestors = "ancestors"
)

var (
	// ErrUnknownEmit indicates an --emit value outside the supported set.
	ErrUnknownEmit = errors.New(
		"unknown emit kind. Use one of: trees, types, values, tokens, leaves, ancestors",
	)
	// ErrTypesNeedAll indicates --emit types combined with --mode values.
	ErrTypesNeedAll = errors.New("--emit types requires --mode all")
	// ErrIndexCompressed indicates --index combined with a compressed output.
	ErrIndexCompressed = errors.New("--index requires an uncompressed output")
)

// PrepOptions holds the resolved prep pipeline options.
type PrepOptions struct {
	In            string
	Out           string
	Emit          string
	MaxLen        int
	Mode          separate.Mode
	VocabPath     string
	Subtokens     bool
	SubtokenLimit int
	Workers       int
	Index         bool
	Limit         int
}

type prepExecutor func(ctx context.Context, opts PrepOptions, rt *Runtime) error

// PrepCommand holds configuration and dependencies for the prep command.
type PrepCommand struct {
	in            string
	out           string
	emit          string
	maxLen        int
	mode          string
	vocabPath     string
	subtokens     bool
	subtokenLimit int
	workers       int
	compress      bool
	index         bool
	limit         int

	exec prepExecutor
}

// NewPrepCommand creates the prep command wired to the real pipeline.
func NewPrepCommand() *cobra.Command {
	return newPrepCommandWithDeps(runPrep)
}

func newPrepCommandWithDeps(exec prepExecutor) *cobra.Command {
	pc := &PrepCommand{exec: exec}

	cmd := &cobra.Command{
		Use:   "prep",
		Short: "Segment a tree corpus into training windows",
		Long: `Segment every tree of a JSON Lines corpus into training windows.

Each input line is one pre-order flattened tree. The selected --emit
transformation is applied per tree, the result is cut into windows of at
most --max-len elements, and each window is written as the JSON array
[items, offset], preserving input order across parallel workers.`,
		Args: cobra.NoArgs,
		RunE: pc.run,
	}

	cmd.Flags().StringVar(&pc.in, "in", "", "Input corpus path (JSON Lines; .lz4 read transparently)")
	cmd.Flags().StringVar(&pc.out, "out", "", "Output corpus path")
	cmd.Flags().StringVar(&pc.emit, "emit", EmitTrees,
		"Window contents: trees, types, values, tokens, leaves, ancestors")
	cmd.Flags().IntVar(&pc.maxLen, "max-len", config.DefaultPrepMaxLen, "Maximum window length")
	cmd.Flags().StringVar(&pc.mode, "mode", config.DefaultPrepMode, "Separation mode: all or values")
	cmd.Flags().StringVar(&pc.vocabPath, "vocab", "", "Literal vocabulary path (empty = substitute every literal)")
	cmd.Flags().BoolVar(&pc.subtokens, "subtokens", false, "Tokenize leaf values into subtokens (leaves emit only)")
	cmd.Flags().IntVar(&pc.subtokenLimit, "subtoken-limit", config.DefaultSubtokenLimit,
		"Maximum subtokens kept per value")
	cmd.Flags().IntVar(&pc.workers, "workers", config.DefaultPrepWorkers, "Number of parallel workers (0 = all CPUs)")
	cmd.Flags().BoolVar(&pc.compress, "compress", config.DefaultPrepCompress, "lz4-compress the output")
	cmd.Flags().BoolVar(&pc.index, "index", false, "Also write the byte-offset index")
	cmd.Flags().IntVar(&pc.limit, "limit", 0, "Read at most this many input lines (0 = all)")

	return cmd
}

func (pc *PrepCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	pc.applyConfig(cmd, cfg)

	opts, err := pc.options()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	return pc.exec(cmd.Context(), opts, rt)
}

// applyConfig fills flags not set on the command line from the config file.
func (pc *PrepCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("workers") {
		pc.workers = cfg.Prep.Workers
	}

	if !cmd.Flags().Changed("max-len") {
		pc.maxLen = cfg.Prep.MaxLen
	}

	if !cmd.Flags().Changed("mode") {
		pc.mode = cfg.Prep.Mode
	}

	if !cmd.Flags().Changed("subtoken-limit") {
		pc.subtokenLimit = cfg.Prep.SubtokenLimit
	}

	if !cmd.Flags().Changed("vocab") && cfg.Prep.VocabPath != "" {
		pc.vocabPath = cfg.Prep.VocabPath
	}

	if !cmd.Flags().Changed("compress") {
		pc.compress = cfg.Prep.Compress
	}
}

func (pc *PrepCommand) options() (PrepOptions, error) {
	if pc.in == "" {
		return PrepOptions{}, ErrMissingInput
	}

	if pc.out == "" {
		return PrepOptions{}, ErrMissingOutput
	}

	switch pc.emit {
	case EmitTrees, EmitTypes, EmitValues, EmitTokens, EmitLeaves, EmitAncestors:
	default:
		return PrepOptions{}, fmt.Errorf("%w: %q", ErrUnknownEmit, pc.emit)
	}

	mode, err := separate.ParseMode(pc.mode)
	if err != nil {
		return PrepOptions{}, err
	}

	if pc.emit == EmitTypes && mode != separate.ModeAll {
		return PrepOptions{}, ErrTypesNeedAll
	}

	if pc.maxLen <= 0 {
		return PrepOptions{}, window.ErrMaxLen
	}

	out := pc.out
	if pc.compress && !strings.HasSuffix(out, dataset.CompressedExt) {
		out += dataset.CompressedExt
	}

	if pc.index && strings.HasSuffix(out, dataset.CompressedExt) {
		return PrepOptions{}, ErrIndexCompressed
	}

	return PrepOptions{
		In:            pc.in,
		Out:           out,
		Emit:          pc.emit,
		MaxLen:        pc.maxLen,
		Mode:          mode,
		VocabPath:     pc.vocabPath,
		Subtokens:     pc.subtokens,
		SubtokenLimit: pc.subtokenLimit,
		Workers:       pc.workers,
		Index:         pc.index,
		Limit:         pc.limit,
	}, nil
}

func runPrep(ctx context.Context, opts PrepOptions, rt *Runtime) error {
	ctx, span := rt.Tracer.Start(ctx, "prep")
	defer span.End()

	startedAt := time.Now()

	lits, err := loadVocabulary(opts)
	if err != nil {
		return err
	}

	lines, err := dataset.ReadLimit(opts.In, opts.Limit)
	if err != nil {
		return err
	}

	rt.Progressf("prep started emit=%s trees=%s", opts.Emit, humanize.Comma(int64(len(lines))))

	transform := func(line []byte) ([][]byte, error) {
		done := rt.Metrics.TrackInflight(ctx, opts.Emit)
		defer done()

		windows, treeErr := prepTree(line, opts, lits)
		if treeErr != nil {
			rt.Metrics.RecordTree(ctx, opts.Emit, observability.StatusError)

			return nil, treeErr
		}

		rt.Metrics.RecordTree(ctx, opts.Emit, observability.StatusOK)
		rt.Metrics.AddWindows(ctx, opts.Emit, int64(len(windows)))

		return windows, nil
	}

	results, err := parallel.Map(lines, transform, parallel.Options{Workers: opts.Workers})
	if err != nil {
		return err
	}

	written, err := writeWindows(opts.Out, results)
	if err != nil {
		return err
	}

	if opts.Index {
		err = dataset.BuildIndex(opts.Out, opts.Out+dataset.IndexExt)
		if err != nil {
			return err
		}
	}

	manifest := dataset.NewManifest([]string{opts.In}, []string{opts.Out}, prepParams(opts))

	err = manifest.Save(opts.Out + dataset.ManifestExt)
	if err != nil {
		return err
	}

	rt.Metrics.RecordStage(ctx, opts.Emit, time.Since(startedAt))
	rt.Progressf("prep finished windows=%s in %s",
		humanize.Comma(int64(written)), time.Since(startedAt).Round(time.Millisecond))

	return nil
}

// loadVocabulary loads the literal vocabulary for the emits that substitute
// literals. Other emits never consult it. An empty path keeps the nil
// vocabulary, which substitutes every string and numeric literal.
func loadVocabulary(opts PrepOptions) (*vocab.Literals, error) {
	if opts.Emit != EmitTypes && opts.Emit != EmitValues {
		return nil, nil
	}

	if opts.VocabPath == "" {
		return nil, nil
	}

	return vocab.Load(opts.VocabPath)
}

// prepTree turns one corpus line into its window lines. Blank lines and
// empty trees produce no output.
func prepTree(line []byte, opts PrepOptions, lits *vocab.Literals) ([][]byte, error) {
	tree, err := ast.Parse(line)
	if err != nil {
		return nil, err
	}

	if len(tree) == 0 {
		return nil, nil
	}

	switch opts.Emit {
	case EmitTrees:
		return segmentJSON(tree, opts.MaxLen)
	case EmitTypes:
		types, _ := separate.TypesValues(tree, lits, opts.Mode)

		return segmentJSON(types, opts.MaxLen)
	case EmitValues:
		_, values := separate.TypesValues(tree, lits, opts.Mode)

		return segmentJSON(values, opts.MaxLen)
	case EmitTokens:
		return segmentJSON(ast.Tokens(tree, false), opts.MaxLen)
	case EmitLeaves:
		leaves := ast.Tokens(tree, true)

		if opts.Subtokens {
			return segmentJSON(tokenize.Flatten(leaves, opts.SubtokenLimit), opts.MaxLen)
		}

		return segmentJSON(leaves, opts.MaxLen)
	case EmitAncestors:
		chains, buildErr := ancestry.Build(tree)
		if buildErr != nil {
			return nil, buildErr
		}

		return segmentJSON(chains, opts.MaxLen)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEmit, opts.Emit)
}

// segmentJSON windows items and marshals each window as [items, offset].
func segmentJSON[T any](items []T, maxLen int) ([][]byte, error) {
	windows, err := window.Segment(items, maxLen)
	if err != nil {
		return nil, err
	}

	out := make([][]byte, len(windows))

	for i, w := range windows {
		data, err := json.Marshal([]any{w.Items, w.Offset})
		if err != nil {
			return nil, fmt.Errorf("encode window: %w", err)
		}

		out[i] = data
	}

	return out, nil
}

// writeWindows writes every tree's window lines in input order and returns
// the line count.
func writeWindows(path string, results [][][]byte) (int, error) {
	w, err := dataset.NewWriter(path)
	if err != nil {
		return 0, err
	}

	for _, windows := range results {
		for _, line := range windows {
			err = w.WriteLine(line)
			if err != nil {
				return 0, errors.Join(err, w.Close())
			}
		}
	}

	written := w.Count()

	err = w.Close()
	if err != nil {
		return 0, err
	}

	return written, nil
}

// prepParams records the run parameters in the output manifest.
func prepParams(opts PrepOptions) map[string]string {
	params := map[string]string{
		"emit":    opts.Emit,
		"max_len": strconv.Itoa(opts.MaxLen),
		"mode":    string(opts.Mode),
	}

	if opts.VocabPath != "" {
		params["vocab"] = opts.VocabPath
	}

	if opts.Subtokens {
		params["subtokens"] = "true"
		params["subtoken_limit"] = strconv.Itoa(opts.SubtokenLimit)
	}

	if opts.Limit > 0 {
		params["limit"] = strconv.Itoa(opts.Limit)
	}

	return params
}
