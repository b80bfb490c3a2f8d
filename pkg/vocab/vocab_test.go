package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BuildsSets(t *testing.T) {
	t.Parallel()

	l := New([]string{"a", "b"}, []string{"1"})

	assert.True(t, l.ContainsString("a"))
	assert.True(t, l.ContainsString("b"))
	assert.False(t, l.ContainsString("c"))

	assert.True(t, l.ContainsNumber("1"))
	assert.False(t, l.ContainsNumber("2"))
}

func TestLiterals_NilIsEmpty(t *testing.T) {
	t.Parallel()

	var l *Literals

	assert.False(t, l.ContainsString("a"))
	assert.False(t, l.ContainsNumber("1"))

	strs, nums := l.Size()
	assert.Zero(t, strs)
	assert.Zero(t, nums)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lits.json")

	orig := New([]string{"hello", "world"}, []string{"0", "42"})

	require.NoError(t, orig.Save(path))

	loaded, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, orig.Strings, loaded.Strings)
	assert.Equal(t, orig.Numbers, loaded.Numbers)
}

func TestSave_SortedOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lits.json")

	require.NoError(t, New([]string{"z", "a", "m"}, nil).Save(path))

	data, err := os.ReadFile(path)

	require.NoError(t, err)
	assert.JSONEq(t, `{"str":["a","m","z"],"num":[]}`, string(data))
}

func TestLoad_MissingKeysMeanEmptySets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lits.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"str":["only"]}`), 0o644))

	l, err := Load(path)

	require.NoError(t, err)
	assert.True(t, l.ContainsString("only"))

	strs, nums := l.Size()
	assert.Equal(t, 1, strs)
	assert.Zero(t, nums)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	require.Error(t, err)
}

func TestLoad_MalformedJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"str": [`), 0o644))

	_, err := Load(path)

	require.Error(t, err)
}
