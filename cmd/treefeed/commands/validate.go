package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
	"github.com/Sumatoshi-tech/treefeed/pkg/ast/spec"
	"github.com/Sumatoshi-tech/treefeed/pkg/dataset"
)

// defaultMaxErrors is how many invalid lines validate reports before
// stopping.
const defaultMaxErrors = 20

// ErrCorpusInvalid reports that at least one corpus line failed validation.
var ErrCorpusInvalid = errors.New("corpus validation failed")

// ValidateOptions holds the resolved validation options.
type ValidateOptions struct {
	In        string
	MaxErrors int
	Limit     int
}

type validateExecutor func(opts ValidateOptions, out io.Writer) error

// ValidateCommand holds configuration and dependencies for the validate
// command.
type ValidateCommand struct {
	in        string
	maxErrors int
	limit     int
	colorize  bool
	nocolor   bool

	exec validateExecutor
}

// NewValidateCommand creates the validate command wired to the real checker.
func NewValidateCommand() *cobra.Command {
	return newValidateCommandWithDeps(runValidate)
}

func newValidateCommandWithDeps(exec validateExecutor) *cobra.Command {
	vc := &ValidateCommand{exec: exec}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a corpus against the tree schema",
		Long: `Check every corpus line against the flattened-tree JSON schema, then
against the structural invariants: child indices in range, children
strictly after parents, no node both valued and parented.`,
		Args: cobra.NoArgs,
		RunE: vc.run,
	}

	cmd.Flags().StringVar(&vc.in, "in", "", "Input corpus path (JSON Lines; .lz4 read transparently)")
	cmd.Flags().IntVar(&vc.maxErrors, "max-errors", defaultMaxErrors,
		"Stop after this many invalid lines (0 = report all)")
	cmd.Flags().IntVar(&vc.limit, "limit", 0, "Check at most this many lines (0 = all)")
	cmd.Flags().BoolVar(&vc.colorize, "color", false, "Force colored output")
	cmd.Flags().BoolVar(&vc.nocolor, "no-color", false, "Disable colored output")

	return cmd
}

func (vc *ValidateCommand) run(cmd *cobra.Command, _ []string) error {
	if vc.nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if vc.colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}

	if vc.in == "" {
		return ErrMissingInput
	}

	opts := ValidateOptions{
		In:        vc.in,
		MaxErrors: vc.maxErrors,
		Limit:     vc.limit,
	}

	return vc.exec(opts, cmd.OutOrStdout())
}

func runValidate(opts ValidateOptions, out io.Writer) error {
	schema, err := loadTreeSchema()
	if err != nil {
		return err
	}

	lines, err := dataset.ReadLimit(opts.In, opts.Limit)
	if err != nil {
		return err
	}

	checked, invalid := 0, 0

	for i, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		checked++

		problem := checkLine(schema, line)
		if problem == "" {
			continue
		}

		invalid++
		color.New(color.FgRed).Fprintf(out, "FAIL line %d: %s\n", i+1, problem)

		if opts.MaxErrors > 0 && invalid >= opts.MaxErrors {
			color.New(color.FgYellow).Fprintf(out, "stopping after %d errors\n", invalid)

			break
		}
	}

	if invalid > 0 {
		color.New(color.FgRed).Fprintf(out, "%d of %d lines invalid\n", invalid, checked)

		return fmt.Errorf("%w: %d invalid lines", ErrCorpusInvalid, invalid)
	}

	color.New(color.FgGreen).Fprintf(out, "PASS: %d lines valid\n", checked)

	return nil
}

// checkLine validates one line, returning an empty string when it passes.
func checkLine(schema *gojsonschema.Schema, line []byte) string {
	var doc any

	err := json.Unmarshal(line, &doc)
	if err != nil {
		return fmt.Sprintf("invalid JSON: %v", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Sprintf("schema validation: %v", err)
	}

	if !result.Valid() {
		verr := result.Errors()[0]

		return fmt.Sprintf("%s: %s", verr.Field(), verr.Description())
	}

	tree, err := ast.Parse(line)
	if err != nil {
		return err.Error()
	}

	err = ast.Validate(tree)
	if err != nil {
		return err.Error()
	}

	return ""
}

// loadTreeSchema compiles the embedded tree schema once per run.
func loadTreeSchema() (*gojsonschema.Schema, error) {
	data, err := spec.TreeSchemaFS.ReadFile("tree-schema.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return schema, nil
}
