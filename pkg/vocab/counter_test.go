package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
)

func treeWithLiterals(strs, nums []string) []ast.Node {
	tree := make([]ast.Node, 0, len(strs)+len(nums))

	for _, s := range strs {
		tree = append(tree, ast.NewLeaf(ast.TypeStr, s))
	}

	for _, n := range nums {
		tree = append(tree, ast.NewLeaf(ast.TypeNum, n))
	}

	return tree
}

func TestCounter_AddCountsByKind(t *testing.T) {
	t.Parallel()

	c := NewCounter()
	c.Add(treeWithLiterals([]string{"a", "a", "b"}, []string{"1"}))

	strs, nums := c.Counts()

	assert.Equal(t, 2, strs)
	assert.Equal(t, 1, nums)
}

func TestCounter_IgnoresNonLiterals(t *testing.T) {
	t.Parallel()

	c := NewCounter()
	c.Add([]ast.Node{
		ast.NewInternal("Module", 1),
		ast.NewLeaf("Name", "x"),
		{Type: "Pass"},
	})

	strs, nums := c.Counts()

	assert.Zero(t, strs)
	assert.Zero(t, nums)
}

func TestCounter_TopByFrequency(t *testing.T) {
	t.Parallel()

	c := NewCounter()
	c.Add(treeWithLiterals([]string{"rare", "hot", "hot", "hot", "warm", "warm"}, nil))

	l := c.Top(2, 0)

	assert.True(t, l.ContainsString("hot"))
	assert.True(t, l.ContainsString("warm"))
	assert.False(t, l.ContainsString("rare"))
}

func TestCounter_TopTiesBreakLexicographically(t *testing.T) {
	t.Parallel()

	c := NewCounter()
	c.Add(treeWithLiterals([]string{"b", "a", "c"}, nil))

	l := c.Top(2, 0)

	assert.True(t, l.ContainsString("a"))
	assert.True(t, l.ContainsString("b"))
	assert.False(t, l.ContainsString("c"))
}

func TestCounter_TopZeroKeepsNothing(t *testing.T) {
	t.Parallel()

	c := NewCounter()
	c.Add(treeWithLiterals([]string{"a"}, []string{"1"}))

	l := c.Top(0, 0)

	strs, nums := l.Size()

	assert.Zero(t, strs)
	assert.Zero(t, nums)
}

func TestCounter_Merge(t *testing.T) {
	t.Parallel()

	a := NewCounter()
	a.Add(treeWithLiterals([]string{"x", "y"}, []string{"1"}))

	b := NewCounter()
	b.Add(treeWithLiterals([]string{"y"}, []string{"2", "2"}))

	a.Merge(b)

	strs, nums := a.Counts()

	assert.Equal(t, 2, strs)
	assert.Equal(t, 2, nums)

	// y counted twice across counters beats x on frequency.
	l := a.Top(1, 1)

	assert.True(t, l.ContainsString("y"))
	assert.True(t, l.ContainsNumber("2"))
}
