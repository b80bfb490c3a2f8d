package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treefeed/internal/config"
	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
	"github.com/Sumatoshi-tech/treefeed/pkg/dataset"
	"github.com/Sumatoshi-tech/treefeed/pkg/separate"
	"github.com/Sumatoshi-tech/treefeed/pkg/vocab"
	"github.com/Sumatoshi-tech/treefeed/pkg/window"
)

func failingPrepExecutor(t *testing.T) prepExecutor {
	t.Helper()

	return func(_ context.Context, _ PrepOptions, _ *Runtime) error {
		t.Error("executor should not be called")

		return nil
	}
}

func TestPrepCommand_RequiresInput(t *testing.T) {
	t.Parallel()

	command := newPrepCommandWithDeps(failingPrepExecutor(t))

	_, _, err := executeCommand(t, command, "--out", "windows.jsonl")

	require.ErrorIs(t, err, ErrMissingInput)
}

func TestPrepCommand_RequiresOutput(t *testing.T) {
	t.Parallel()

	command := newPrepCommandWithDeps(failingPrepExecutor(t))

	_, _, err := executeCommand(t, command, "--in", "trees.jsonl")

	require.ErrorIs(t, err, ErrMissingOutput)
}

func TestPrepCommand_RejectsUnknownEmit(t *testing.T) {
	t.Parallel()

	command := newPrepCommandWithDeps(failingPrepExecutor(t))

	_, _, err := executeCommand(t, command,
		"--in", "trees.jsonl", "--out", "windows.jsonl", "--emit", "bogus")

	require.ErrorIs(t, err, ErrUnknownEmit)
}

func TestPrepCommand_RejectsTypesWithValuesMode(t *testing.T) {
	t.Parallel()

	command := newPrepCommandWithDeps(failingPrepExecutor(t))

	_, _, err := executeCommand(t, command,
		"--in", "trees.jsonl", "--out", "windows.jsonl", "--emit", "types", "--mode", "values")

	require.ErrorIs(t, err, ErrTypesNeedAll)
}

func TestPrepCommand_RejectsNonPositiveMaxLen(t *testing.T) {
	t.Parallel()

	command := newPrepCommandWithDeps(failingPrepExecutor(t))

	_, _, err := executeCommand(t, command,
		"--in", "trees.jsonl", "--out", "windows.jsonl", "--max-len", "0")

	require.ErrorIs(t, err, window.ErrMaxLen)
}

func TestPrepCommand_RejectsIndexWithCompress(t *testing.T) {
	t.Parallel()

	command := newPrepCommandWithDeps(failingPrepExecutor(t))

	_, _, err := executeCommand(t, command,
		"--in", "trees.jsonl", "--out", "windows.jsonl", "--compress", "--index")

	require.ErrorIs(t, err, ErrIndexCompressed)
}

func TestPrepCommand_ForwardsOptions(t *testing.T) {
	t.Parallel()

	var seen PrepOptions

	command := newPrepCommandWithDeps(func(_ context.Context, opts PrepOptions, _ *Runtime) error {
		seen = opts

		return nil
	})

	_, _, err := executeCommand(t, command,
		"--in", "trees.jsonl",
		"--out", "windows.jsonl",
		"--emit", "values",
		"--max-len", "128",
		"--mode", "values",
		"--vocab", "lits.json",
		"--workers", "3",
		"--limit", "10",
	)

	require.NoError(t, err)
	assert.Equal(t, PrepOptions{
		In:            "trees.jsonl",
		Out:           "windows.jsonl",
		Emit:          EmitValues,
		MaxLen:        128,
		Mode:          separate.ModeValues,
		VocabPath:     "lits.json",
		SubtokenLimit: config.DefaultSubtokenLimit,
		Workers:       3,
		Limit:         10,
	}, seen)
}

func TestPrepCommand_CompressAppendsSuffix(t *testing.T) {
	t.Parallel()

	var seen PrepOptions

	command := newPrepCommandWithDeps(func(_ context.Context, opts PrepOptions, _ *Runtime) error {
		seen = opts

		return nil
	})

	_, _, err := executeCommand(t, command,
		"--in", "trees.jsonl", "--out", "windows.jsonl", "--compress")

	require.NoError(t, err)
	assert.Equal(t, "windows.jsonl"+dataset.CompressedExt, seen.Out)
}

func TestPrepCommand_ConfigFillsUnsetFlags(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "treefeed.yaml")

	writeLines(t, cfgPath, []string{
		"prep:",
		"  max_len: 7",
		"  workers: 2",
	})

	var seen PrepOptions

	command := newPrepCommandWithDeps(func(_ context.Context, opts PrepOptions, _ *Runtime) error {
		seen = opts

		return nil
	})

	// Bypass executeCommand to control the --config flag.
	root := newTestRoot(command)
	root.SetArgs([]string{
		"prep", "--config", cfgPath,
		"--in", "trees.jsonl", "--out", "windows.jsonl", "--max-len", "9",
	})

	err := root.Execute()

	require.NoError(t, err)
	assert.Equal(t, 9, seen.MaxLen, "flag wins over config")
	assert.Equal(t, 2, seen.Workers, "config fills unset flags")
}

func TestPrep_TreesEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "trees.jsonl")
	out := filepath.Join(dir, "windows.jsonl")

	tree := []ast.Node{
		{Type: "Module", Children: []int{1, 4}},
		{Type: "FunctionDef", Children: []int{2, 3}},
		{Type: "Str", Value: strptr("doc")},
		{Type: "Num", Value: strptr("1")},
		{Type: "Pass"},
	}

	writeLines(t, in, []string{treeJSON(t, tree), ""})

	_, stderr, err := executeCommand(t, newPrepCommandWithDeps(runPrep),
		"--in", in, "--out", out, "--emit", "trees", "--max-len", "3", "--workers", "2")

	require.NoError(t, err)
	assert.Contains(t, stderr, "progress: prep started")
	assert.Contains(t, stderr, "progress: prep finished")

	lines, err := dataset.ReadAll(out)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	// Concatenating Items[Offset:] across windows reproduces the tree.
	var rebuilt []ast.Node

	offsets := make([]int, 0, len(lines))

	for _, line := range lines {
		items, offset := decodeWindow[[]ast.Node](t, line)
		rebuilt = append(rebuilt, items[offset:]...)
		offsets = append(offsets, offset)
	}

	assert.Equal(t, []int{0, 2, 2}, offsets)
	assert.Equal(t, tree, rebuilt)

	manifest, err := dataset.LoadManifest(out + dataset.ManifestExt)
	require.NoError(t, err)
	assert.Equal(t, []string{in}, manifest.Inputs)
	assert.Equal(t, "trees", manifest.Params["emit"])
	assert.Equal(t, "3", manifest.Params["max_len"])
}

func TestPrep_ValuesEmitSubstitutesLiterals(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "trees.jsonl")
	out := filepath.Join(dir, "values.jsonl")
	vocabPath := filepath.Join(dir, "lits.json")

	err := vocab.New([]string{"keep"}, nil).Save(vocabPath)
	require.NoError(t, err)

	tree := []ast.Node{
		{Type: "Module", Children: []int{1, 2, 3}},
		{Type: "Str", Value: strptr("keep")},
		{Type: "Str", Value: strptr("drop")},
		{Type: "Num", Value: strptr("42")},
	}

	writeLines(t, in, []string{treeJSON(t, tree)})

	_, _, err = executeCommand(t, newPrepCommandWithDeps(runPrep),
		"--in", in, "--out", out, "--emit", "values", "--vocab", vocabPath)

	require.NoError(t, err)

	lines, err := dataset.ReadAll(out)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	items, offset := decodeWindow[[]ast.Node](t, lines[0])

	require.Equal(t, 0, offset)
	require.Len(t, items, 4)
	assert.Equal(t, separate.Empty, *items[0].Value)
	assert.Equal(t, "keep", *items[1].Value)
	assert.Equal(t, separate.StrPlaceholder, *items[2].Value)
	assert.Equal(t, separate.NumPlaceholder, *items[3].Value)
	assert.Equal(t, []int{1, 2, 3}, items[0].Children, "values keep the tree's child links")
}

func TestPrep_LeavesSubtokensEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "trees.jsonl")
	out := filepath.Join(dir, "leaves.jsonl")

	tree := []ast.Node{
		{Type: "Module", Children: []int{1, 2}},
		{Type: "Name", Value: strptr("getUserID")},
		{Type: "Name", Value: strptr("")},
	}

	writeLines(t, in, []string{treeJSON(t, tree)})

	_, _, err := executeCommand(t, newPrepCommandWithDeps(runPrep),
		"--in", in, "--out", out, "--emit", "leaves", "--subtokens", "--subtoken-limit", "2")

	require.NoError(t, err)

	lines, err := dataset.ReadAll(out)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	items, offset := decodeWindow[[][]string](t, lines[0])

	assert.Equal(t, 0, offset)
	assert.Equal(t, [][]string{{"get", "user"}, {}}, items)
}

func TestPrep_AncestorsEmitWindowsChains(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "trees.jsonl")
	out := filepath.Join(dir, "chains.jsonl")

	tree := []ast.Node{
		{Type: "Module", Children: []int{1, 2}},
		{Type: "Pass"},
		{Type: "Pass"},
	}

	writeLines(t, in, []string{treeJSON(t, tree)})

	_, _, err := executeCommand(t, newPrepCommandWithDeps(runPrep),
		"--in", in, "--out", out, "--emit", "ancestors", "--max-len", "2")

	require.NoError(t, err)

	lines, err := dataset.ReadAll(out)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	first, firstOff := decodeWindow[[][]int](t, lines[0])
	second, secondOff := decodeWindow[[][]int](t, lines[1])

	assert.Equal(t, 0, firstOff)
	assert.Equal(t, [][]int{{0}, {1, 0}}, first)
	assert.Equal(t, 1, secondOff)
	assert.Equal(t, [][]int{{1, 0}, {2, 0}}, second)
}

func TestPrep_IndexWritesOffsets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "trees.jsonl")
	out := filepath.Join(dir, "windows.jsonl")

	line := treeJSON(t, []ast.Node{{Type: "Pass"}})

	writeLines(t, in, []string{line, line})

	_, _, err := executeCommand(t, newPrepCommandWithDeps(runPrep),
		"--in", in, "--out", out, "--index")

	require.NoError(t, err)

	offsets, err := dataset.ReadIndex(out + dataset.IndexExt)
	require.NoError(t, err)
	require.Len(t, offsets, 2)
	assert.Equal(t, int64(0), offsets[0])
}

func TestPrep_ReportsParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "trees.jsonl")
	out := filepath.Join(dir, "windows.jsonl")

	writeLines(t, in, []string{"{not json"})

	_, _, err := executeCommand(t, newPrepCommandWithDeps(runPrep),
		"--in", in, "--out", out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse tree")
}
