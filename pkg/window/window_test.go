package window

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	items := make([]int, n)

	for i := range items {
		items[i] = i
	}

	return items
}

// supervised concatenates the newly-supervised tail of every window.
func supervised(windows []Window[int]) []int {
	var out []int

	for _, w := range windows {
		out = append(out, w.Items[w.Offset:]...)
	}

	return out
}

func TestSegment_ShortSequenceSingleWindow(t *testing.T) {
	t.Parallel()

	windows, err := Segment(seq(10), 100)

	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, seq(10), windows[0].Items)
	assert.Zero(t, windows[0].Offset)
}

func TestSegment_ExactLengthSingleWindow(t *testing.T) {
	t.Parallel()

	windows, err := Segment(seq(100), 100)

	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Zero(t, windows[0].Offset)
}

func TestSegment_EmptySequence(t *testing.T) {
	t.Parallel()

	windows, err := Segment([]int{}, 10)

	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Empty(t, windows[0].Items)
}

func TestSegment_NonPositiveMaxLen(t *testing.T) {
	t.Parallel()

	_, err := Segment(seq(5), 0)
	require.ErrorIs(t, err, ErrMaxLen)

	_, err = Segment(seq(5), -3)
	require.ErrorIs(t, err, ErrMaxLen)
}

func TestSegment_WorkedExample(t *testing.T) {
	t.Parallel()

	// 1700 nodes at window 1000: three windows, right-aligned tail.
	windows, err := Segment(seq(1700), 1000)

	require.NoError(t, err)
	require.Len(t, windows, 3)

	starts := []int{windows[0].Items[0], windows[1].Items[0], windows[2].Items[0]}
	offsets := []int{windows[0].Offset, windows[1].Offset, windows[2].Offset}

	assert.Equal(t, []int{0, 500, 700}, starts)
	assert.Equal(t, []int{0, 500, 800}, offsets)

	for _, w := range windows {
		assert.Len(t, w.Items, 1000)
	}
}

func TestSegment_EveryWindowFullLength(t *testing.T) {
	t.Parallel()

	windows, err := Segment(seq(2501), 1000)

	require.NoError(t, err)

	for i, w := range windows {
		assert.Len(t, w.Items, 1000, "window %d", i)
	}
}

func TestSegment_CoverageProperty(t *testing.T) {
	t.Parallel()

	cases := []struct {
		n      int
		maxLen int
	}{
		{n: 0, maxLen: 5},
		{n: 1, maxLen: 1},
		{n: 3, maxLen: 1},
		{n: 12, maxLen: 5},
		{n: 100, maxLen: 7},
		{n: 1001, maxLen: 1000},
		{n: 1700, maxLen: 1000},
		{n: 2500, maxLen: 1000},
		{n: 9999, maxLen: 128},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d_maxLen=%d", tc.n, tc.maxLen), func(t *testing.T) {
			t.Parallel()

			windows, err := Segment(seq(tc.n), tc.maxLen)

			require.NoError(t, err)

			// Every element supervised exactly once, in order.
			assert.Equal(t, seq(tc.n), supervised(windows))

			// Offsets stay inside their window.
			for i, w := range windows {
				assert.GreaterOrEqual(t, w.Offset, 0, "window %d", i)
				assert.LessOrEqual(t, w.Offset, len(w.Items), "window %d", i)
			}
		})
	}
}

func TestSegment_WindowsShareBacking(t *testing.T) {
	t.Parallel()

	items := seq(30)
	windows, err := Segment(items, 10)

	require.NoError(t, err)

	items[5] = -1

	assert.Equal(t, -1, windows[0].Items[5])
}

func TestCount_MatchesSegment(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 50, 99, 100, 101, 1700, 2500} {
		windows, err := Segment(seq(n), 100)
		require.NoError(t, err)

		count, err := Count(n, 100)
		require.NoError(t, err)

		assert.Equal(t, len(windows), count, "n=%d", n)
	}
}

func TestCount_NonPositiveMaxLen(t *testing.T) {
	t.Parallel()

	_, err := Count(10, 0)

	require.ErrorIs(t, err, ErrMaxLen)
}
