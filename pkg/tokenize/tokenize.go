// Package tokenize splits leaf values into lowercase subtokens for
// open-vocabulary sequence models.
package tokenize

import (
	"strings"
	"unicode"
)

// DefaultLimit caps the subtokens kept per value.
const DefaultLimit = 5

// Subtokens splits value at underscores and at lower-to-upper case
// transitions, lowercases every piece, drops empty pieces, and keeps at most
// DefaultLimit. Acronym runs stay together: "HTTPServer" is one subtoken.
func Subtokens(value string) []string {
	return SubtokensLimit(value, DefaultLimit)
}

// SubtokensLimit is Subtokens with an explicit cap. A non-positive limit
// falls back to DefaultLimit.
func SubtokensLimit(value string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		tokens []string
		cur    strings.Builder
		prev   rune
	)

	flush := func() {
		if cur.Len() == 0 {
			return
		}

		tokens = append(tokens, strings.ToLower(cur.String()))
		cur.Reset()
	}

	for _, r := range value {
		switch {
		case r == '_':
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}

		prev = r
	}

	flush()

	if len(tokens) > limit {
		tokens = tokens[:limit]
	}

	return tokens
}

// Flatten applies SubtokensLimit to every value in order. The result always
// has one (possibly empty, never nil) subtoken slice per input value, so it
// serializes as [] rather than null.
func Flatten(values []string, limit int) [][]string {
	out := make([][]string, len(values))

	for i, v := range values {
		tokens := SubtokensLimit(v, limit)
		if tokens == nil {
			tokens = []string{}
		}

		out[i] = tokens
	}

	return out
}
