package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubtokens_CamelCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"get", "user", "id"}, Subtokens("getUserID"))
}

func TestSubtokens_SnakeCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"snake", "case", "name"}, Subtokens("snake_case_name"))
}

func TestSubtokens_MixedCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"parse", "json", "input"}, Subtokens("parseJson_input"))
}

func TestSubtokens_AcronymRunStaysTogether(t *testing.T) {
	t.Parallel()

	// No lower-to-upper transition inside an acronym run.
	assert.Equal(t, []string{"httpserver"}, Subtokens("HTTPServer"))
}

func TestSubtokens_LimitKeepsFirstFive(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"a", "b", "c", "d", "e"},
		Subtokens("a_b_c_d_e_f_g"))
}

func TestSubtokens_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Subtokens(""))
}

func TestSubtokens_OnlyUnderscores(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Subtokens("___"))
}

func TestSubtokens_LeadingAndDoubleUnderscores(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"init"}, Subtokens("__init__"))
}

func TestSubtokens_SingleWord(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"value"}, Subtokens("value"))
}

func TestSubtokens_DigitsPassThrough(t *testing.T) {
	t.Parallel()

	// Digits never open a boundary.
	assert.Equal(t, []string{"utf8", "decode"}, Subtokens("utf8Decode"))
}

func TestSubtokensLimit_ExplicitLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, SubtokensLimit("a_b_c", 2))
}

func TestSubtokensLimit_NonPositiveUsesDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"a", "b", "c", "d", "e"},
		SubtokensLimit("a_b_c_d_e_f", 0))
}

func TestFlatten_PerValue(t *testing.T) {
	t.Parallel()

	got := Flatten([]string{"getUser", "", "x_y"}, 0)

	assert.Equal(t, [][]string{
		{"get", "user"},
		{},
		{"x", "y"},
	}, got)
}

func TestFlatten_EmptyValueMarshalsAsEmptyArray(t *testing.T) {
	t.Parallel()

	got := Flatten([]string{""}, 0)

	// Non-nil so JSON output is [] and not null.
	assert.NotNil(t, got[0])
}
