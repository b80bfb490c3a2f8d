// Package ancestry derives per-node ancestor chains from pre-order trees.
package ancestry

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
)

// ErrMissingParent reports a non-root node that no earlier node claims as a
// child. Pre-order places parents before children, so by the time a node is
// visited its parent must already be on record.
var ErrMissingParent = errors.New("missing parent")

// Build returns, for every node i, the chain [i, parent(i), ..., 0]: the
// node itself first, then each ancestor walking up, ending at the root. The
// root counts as its own parent, which keeps its chain at exactly [0].
//
// Chains share no memory with each other or with the tree; callers may
// mutate them freely.
func Build(tree []ast.Node) ([][]int, error) {
	if len(tree) == 0 {
		return nil, nil
	}

	parents := make([]int, len(tree))
	for i := range parents {
		parents[i] = -1
	}

	parents[0] = 0

	chains := make([][]int, len(tree))

	for i, n := range tree {
		for _, c := range n.Children {
			if c >= 0 && c < len(tree) {
				parents[c] = i
			}
		}

		if parents[i] < 0 {
			return nil, fmt.Errorf("node %d: %w", i, ErrMissingParent)
		}

		up := chains[parents[i]]

		chain := make([]int, 0, len(up)+1)
		chain = append(chain, i)
		chain = append(chain, up...)

		chains[i] = chain
	}

	return chains, nil
}

// Depths returns the length of each chain. The root has depth 1.
func Depths(chains [][]int) []int {
	depths := make([]int, len(chains))

	for i, chain := range chains {
		depths[i] = len(chain)
	}

	return depths
}
