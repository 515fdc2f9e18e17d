package processmgr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBufferTail(t *testing.T) {
	t.Parallel()

	var b logBuffer
	assert.Nil(t, b.Tail(10))

	for i := 0; i < 5; i++ {
		b.Append(fmt.Sprintf("line %d", i))
	}
	assert.Equal(t, []string{"line 3", "line 4"}, b.Tail(2))
	assert.Equal(t, []string{"line 0", "line 1", "line 2", "line 3", "line 4"}, b.Tail(0))
	assert.Len(t, b.Tail(1000), 5)
}

func TestLogBufferWraps(t *testing.T) {
	t.Parallel()

	var b logBuffer
	for i := 0; i < LogBufferSize+7; i++ {
		b.Append(fmt.Sprintf("%d", i))
	}
	require.Equal(t, LogBufferSize, b.Len())

	all := b.Tail(0)
	require.Len(t, all, LogBufferSize)
	assert.Equal(t, "7", all[0])
	assert.Equal(t, fmt.Sprintf("%d", LogBufferSize+6), all[len(all)-1])
	assert.Equal(t, []string{fmt.Sprintf("%d", LogBufferSize+5), fmt.Sprintf("%d", LogBufferSize+6)}, b.Tail(2))
}

func TestLogManagerEvictsOldest(t *testing.T) {
	t.Parallel()

	lm := NewLogManager(2)
	lm.get("a").Append("from a")
	lm.get("b").Append("from b")

	lines, ok := lm.Tail("a", 10)
	require.True(t, ok)
	assert.Equal(t, []string{"from a"}, lines)

	lm.get("c")
	_, ok = lm.Tail("a", 10)
	assert.False(t, ok, "oldest session must be evicted")
	_, ok = lm.Tail("b", 10)
	assert.True(t, ok)

	// get is idempotent and does not reorder.
	assert.Same(t, lm.get("b"), lm.get("b"))
}

func TestScanLinesSplitsCarriageReturns(t *testing.T) {
	t.Parallel()

	data := []byte("frame=1\rframe=2\r\nlast")
	var got []string
	for len(data) > 0 {
		adv, tok, err := scanLines(data, true)
		require.NoError(t, err)
		got = append(got, string(tok))
		data = data[adv:]
	}
	assert.Equal(t, []string{"frame=1", "frame=2", "", "last"}, got)
}
