// Package vocab maintains the literal vocabularies that drive rare-literal
// placeholder substitution: the string and numeric literals frequent enough
// to keep verbatim in training sequences.
package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Literals is a frozen vocabulary: the set of string and numeric literal
// values exempt from placeholder substitution. A nil *Literals behaves as
// the empty vocabulary.
type Literals struct {
	Strings map[string]struct{}
	Numbers map[string]struct{}
}

// literalsFile is the on-disk JSON shape.
type literalsFile struct {
	Str []string `json:"str"`
	Num []string `json:"num"`
}

// New builds a vocabulary from explicit literal lists.
func New(strs, nums []string) *Literals {
	l := &Literals{
		Strings: make(map[string]struct{}, len(strs)),
		Numbers: make(map[string]struct{}, len(nums)),
	}

	for _, s := range strs {
		l.Strings[s] = struct{}{}
	}

	for _, n := range nums {
		l.Numbers[n] = struct{}{}
	}

	return l
}

// Load reads a vocabulary file. Missing keys mean empty sets.
func Load(path string) (*Literals, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer file.Close()

	var lf literalsFile

	err = json.NewDecoder(file).Decode(&lf)
	if err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}

	return New(lf.Str, lf.Num), nil
}

// Save writes the vocabulary as JSON. Entries are sorted so repeated builds
// of the same corpus produce identical files.
func (l *Literals) Save(path string) error {
	lf := literalsFile{
		Str: sortedKeys(l.Strings),
		Num: sortedKeys(l.Numbers),
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vocabulary: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)

	err = encoder.Encode(lf)
	if err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}

	return nil
}

// ContainsString reports whether the string literal is in the vocabulary.
// Safe on a nil receiver.
func (l *Literals) ContainsString(value string) bool {
	if l == nil {
		return false
	}

	_, ok := l.Strings[value]

	return ok
}

// ContainsNumber reports whether the numeric literal is in the vocabulary.
// Safe on a nil receiver.
func (l *Literals) ContainsNumber(value string) bool {
	if l == nil {
		return false
	}

	_, ok := l.Numbers[value]

	return ok
}

// Size returns the string and numeric entry counts.
func (l *Literals) Size() (strs, nums int) {
	if l == nil {
		return 0, 0
	}

	return len(l.Strings), len(l.Numbers)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))

	for k := range set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
