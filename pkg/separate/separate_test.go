package separate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
	"github.com/Sumatoshi-tech/treefeed/pkg/vocab"
)

func literalTree() []ast.Node {
	return []ast.Node{
		ast.NewInternal("Module", 1, 2, 3, 4),
		ast.NewLeaf(ast.TypeStr, "common"),
		ast.NewLeaf(ast.TypeStr, "rare"),
		ast.NewLeaf(ast.TypeNum, "42"),
		ast.NewLeaf("Name", "anything"),
	}
}

// vals projects the value tokens out of a values array.
func vals(nodes []ast.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Val()
	}

	return out
}

func TestTypesValues_Substitution(t *testing.T) {
	t.Parallel()

	lits := vocab.New([]string{"common"}, nil)

	types, values := TypesValues(literalTree(), lits, ModeAll)

	assert.Equal(t, []string{"Module", ast.TypeStr, ast.TypeStr, ast.TypeNum, "Name"}, ast.Types(types))
	assert.Equal(t, []string{Empty, "common", StrPlaceholder, NumPlaceholder, "anything"}, vals(values))
}

func TestTypesValues_OutputsAreNodeShaped(t *testing.T) {
	t.Parallel()

	tree := literalTree()
	types, values := TypesValues(tree, nil, ModeAll)

	require.Len(t, types, len(tree))
	require.Len(t, values, len(tree))

	// Child links carry through on both arrays; value nodes drop the type,
	// type nodes drop the value.
	assert.Equal(t, tree[0].Children, values[0].Children)
	assert.Equal(t, tree[0].Children, types[0].Children)
	assert.Empty(t, values[0].Type)
	assert.False(t, types[0].HasValue())

	// Every values node carries a value, including former valueless nodes.
	for i, n := range values {
		assert.True(t, n.HasValue(), "values node %d must carry a value", i)
	}
}

func TestTypesValues_NumberInVocabulary(t *testing.T) {
	t.Parallel()

	lits := vocab.New(nil, []string{"42"})

	_, values := TypesValues(literalTree(), lits, ModeValues)

	assert.Equal(t, "42", values[3].Val())
}

func TestTypesValues_NilVocabularySubstitutesAll(t *testing.T) {
	t.Parallel()

	_, values := TypesValues(literalTree(), nil, ModeValues)

	assert.Equal(t, []string{Empty, StrPlaceholder, StrPlaceholder, NumPlaceholder, "anything"}, vals(values))
}

func TestTypesValues_NonLiteralTypesNeverSubstituted(t *testing.T) {
	t.Parallel()

	tree := []ast.Node{ast.NewLeaf("Name", "neverSeenBefore")}

	_, values := TypesValues(tree, nil, ModeValues)

	assert.Equal(t, []string{"neverSeenBefore"}, vals(values))
}

func TestTypesValues_ValuesModeSkipsTypes(t *testing.T) {
	t.Parallel()

	types, values := TypesValues(literalTree(), nil, ModeValues)

	assert.Nil(t, types)
	assert.Len(t, values, 5)
}

func TestTypesValues_EmptyStringLiteralStillSubstituted(t *testing.T) {
	t.Parallel()

	tree := []ast.Node{ast.NewLeaf(ast.TypeStr, "")}

	_, values := TypesValues(tree, nil, ModeValues)

	assert.Equal(t, []string{StrPlaceholder}, vals(values))
}

func TestTypesValues_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	tree := literalTree()

	before := make([]ast.Node, len(tree))
	copy(before, tree)

	_, values := TypesValues(tree, nil, ModeAll)

	assert.Equal(t, before, tree)

	// Substituted outputs point at fresh strings, not the input's.
	for i := range tree {
		if before[i].Value != nil {
			assert.Equal(t, *before[i].Value, *tree[i].Value)
			assert.NotSame(t, tree[i].Value, values[i].Value)
		}
	}
}

func TestTypesValues_EmptyTree(t *testing.T) {
	t.Parallel()

	types, values := TypesValues(nil, nil, ModeAll)

	assert.Empty(t, types)
	assert.Empty(t, values)
}

func TestParseMode_KnownModes(t *testing.T) {
	t.Parallel()

	m, err := ParseMode("all")

	require.NoError(t, err)
	assert.Equal(t, ModeAll, m)

	m, err = ParseMode("VALUES")

	require.NoError(t, err)
	assert.Equal(t, ModeValues, m)
}

func TestParseMode_Unknown(t *testing.T) {
	t.Parallel()

	_, err := ParseMode("types")

	require.ErrorIs(t, err, ErrUnknownMode)
}
