// Package separate splits flattened trees into parallel type and value
// node arrays, substituting placeholders for literals outside the vocabulary.
package separate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/treefeed/pkg/ast"
	"github.com/Sumatoshi-tech/treefeed/pkg/vocab"
)

// Placeholder tokens emitted in value sequences.
const (
	StrPlaceholder = "<STR_LIT>"
	NumPlaceholder = "<NUM_LIT>"
	Empty          = "<EMPTY>"
)

// Mode selects which arrays TypesValues emits.
type Mode string

// Supported modes.
const (
	ModeAll    Mode = "all"    // types and values
	ModeValues Mode = "values" // values only
)

// ErrUnknownMode reports a mode string outside the supported set.
var ErrUnknownMode = errors.New("unknown mode")

// ParseMode converts a flag value into a Mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeAll:
		return ModeAll, nil
	case ModeValues:
		return ModeValues, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// TypesValues derives parallel node arrays from a tree. Both outputs have
// the tree's length and carry its child links, so window geometry and
// attention masks computed on the tree apply to them unchanged.
//
// In the values array, node i holds the input value when it is in the
// vocabulary, the kind placeholder when it is a string or numeric literal
// outside it, the raw value for non-literal leaves, and Empty for valueless
// nodes. In the types array, node i holds the input type verbatim; types
// are never substituted. Under ModeValues the types array is nil.
//
// The input tree is never mutated; callers reuse trees across passes.
// A nil vocabulary substitutes every string and numeric literal.
func TypesValues(tree []ast.Node, lits *vocab.Literals, mode Mode) (types, values []ast.Node) {
	values = make([]ast.Node, len(tree))

	if mode == ModeAll {
		types = make([]ast.Node, len(tree))
	}

	for i, n := range tree {
		token := valueToken(n, lits)
		values[i] = ast.Node{Value: &token, Children: n.Children}

		if types != nil {
			types[i] = ast.Node{Type: n.Type, Children: n.Children}
		}
	}

	return types, values
}

func valueToken(n ast.Node, lits *vocab.Literals) string {
	if n.Value == nil {
		return Empty
	}

	switch n.Type {
	case ast.TypeStr:
		if !lits.ContainsString(*n.Value) {
			return StrPlaceholder
		}
	case ast.TypeNum:
		if !lits.ContainsNumber(*n.Value) {
			return NumPlaceholder
		}
	}

	return *n.Value
}
