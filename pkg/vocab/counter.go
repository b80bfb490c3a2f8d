package vocab

import (
	"sort"

	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
)

// Counter accumulates literal frequencies across trees. Not safe for
// concurrent use; parallel builds keep one Counter per worker and Merge.
type Counter struct {
	strings map[string]int
	numbers map[string]int
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{
		strings: make(map[string]int),
		numbers: make(map[string]int),
	}
}

// Add counts every string and numeric literal in the tree.
func (c *Counter) Add(tree []ast.Node) {
	for _, n := range tree {
		if n.Value == nil {
			continue
		}

		switch n.Type {
		case ast.TypeStr:
			c.strings[*n.Value]++
		case ast.TypeNum:
			c.numbers[*n.Value]++
		}
	}
}

// Merge folds other into c.
func (c *Counter) Merge(other *Counter) {
	for v, n := range other.strings {
		c.strings[v] += n
	}

	for v, n := range other.numbers {
		c.numbers[v] += n
	}
}

// Counts returns the distinct string and numeric literal counts.
func (c *Counter) Counts() (strs, nums int) {
	return len(c.strings), len(c.numbers)
}

// Top freezes the most frequent literals into a vocabulary: up to topStr
// string literals and topNum numeric literals. Ties break lexicographically
// so the result is deterministic. Non-positive limits keep nothing of that
// kind.
func (c *Counter) Top(topStr, topNum int) *Literals {
	return New(topKeys(c.strings, topStr), topKeys(c.numbers, topNum))
}

func topKeys(freq map[string]int, limit int) []string {
	if limit <= 0 {
		return nil
	}

	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}

		return keys[i] < keys[j]
	})

	if len(keys) > limit {
		keys = keys[:limit]
	}

	return keys
}
