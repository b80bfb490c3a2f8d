// Package ast provides the flattened AST node structure treefeed operates
// on: trees serialized as pre-order node arrays, one tree per corpus line.
package ast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Literal node types subject to vocabulary substitution.
const (
	TypeStr = "Str"
	TypeNum = "Num"
)

// Sentinel errors for structural validation.
var (
	ErrIndexRange = errors.New("child index out of range")
	ErrOrder      = errors.New("child index does not follow parent")
	ErrBothKinds  = errors.New("node carries both value and children")
)

// Node is one element of a pre-order flattened tree.
//
// Exactly one of Value and Children is normally set: leaves carry Value
// (which may be the empty string), internal nodes carry Children as indices
// into the same array. A node with neither is a valueless leaf. The
// pre-order layout guarantees every child index is strictly greater than
// its parent's index, and index 0 is the root.
// The type tag is omitempty so that derived node arrays carrying only
// values (see package separate) serialize without an empty type key.
type Node struct {
	Type     string  `json:"type,omitempty"`
	Value    *string `json:"value,omitempty"`
	Children []int   `json:"children,omitempty"`
}

// NewInternal creates an internal node with the given child indices.
func NewInternal(nodeType string, children ...int) Node {
	return Node{Type: nodeType, Children: children}
}

// NewLeaf creates a leaf node carrying a value.
func NewLeaf(nodeType, value string) Node {
	return Node{Type: nodeType, Value: &value}
}

// IsLeaf reports whether the node has no children. A node deserialized from
// a record with an explicit empty children array is NOT a leaf; absence of
// the key is what makes a leaf.
func (n Node) IsLeaf() bool {
	return n.Children == nil
}

// HasValue reports whether the node carries a value, including the empty
// string.
func (n Node) HasValue() bool {
	return n.Value != nil
}

// Val returns the node value, or the empty string when absent.
func (n Node) Val() string {
	if n.Value == nil {
		return ""
	}

	return *n.Value
}

// Parse decodes one corpus line into a tree. Blank lines decode to a nil
// tree with no error, so corpus readers can skip them uniformly.
func Parse(data []byte) ([]Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var tree []Node

	err := json.Unmarshal(data, &tree)
	if err != nil {
		return nil, fmt.Errorf("parse tree: %w", err)
	}

	return tree, nil
}

// Types returns the type sequence of the tree in pre-order.
func Types(tree []Node) []string {
	types := make([]string, len(tree))

	for i, n := range tree {
		types[i] = n.Type
	}

	return types
}

// Values returns the value sequence of the tree in pre-order. Nodes without
// a value yield empty.
func Values(tree []Node, empty string) []string {
	values := make([]string, len(tree))

	for i, n := range tree {
		if n.Value != nil {
			values[i] = *n.Value
		} else {
			values[i] = empty
		}
	}

	return values
}

// Tokens flattens the tree into a token sequence in pre-order: nodes with a
// value contribute the value; valueless nodes contribute their type, or
// nothing when leavesOnly is set.
func Tokens(tree []Node, leavesOnly bool) []string {
	tokens := make([]string, 0, len(tree))

	for _, n := range tree {
		switch {
		case n.Value != nil:
			tokens = append(tokens, *n.Value)
		case !leavesOnly:
			tokens = append(tokens, n.Type)
		}
	}

	return tokens
}

// Leaves returns the indices of leaf nodes in pre-order.
func Leaves(tree []Node) []int {
	var leaves []int

	for i, n := range tree {
		if n.IsLeaf() {
			leaves = append(leaves, i)
		}
	}

	return leaves
}

// Validate checks the structural invariants of a flattened tree: child
// indices stay inside the array, children strictly follow their parents,
// and no node is both valued and parented.
func Validate(tree []Node) error {
	for i, n := range tree {
		if n.Value != nil && n.Children != nil {
			return fmt.Errorf("node %d: %w", i, ErrBothKinds)
		}

		for _, c := range n.Children {
			if c < 0 || c >= len(tree) {
				return fmt.Errorf("node %d: child %d: %w", i, c, ErrIndexRange)
			}

			if c <= i {
				return fmt.Errorf("node %d: child %d: %w", i, c, ErrOrder)
			}
		}
	}

	return nil
}
