package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		chunk    int
		expected string
	}{
		{
			name:     "stops after n lines",
			input:    csvLines("a,b", "1,2", "3,4", "5,6", "7,8", "9,10"),
			n:        4,
			chunk:    DefaultChunkSize,
			expected: "a,b\n1,2\n3,4\n5,6",
		},
		{
			name:     "fewer lines than requested",
			input:    "a,b\n1,2",
			n:        4,
			chunk:    DefaultChunkSize,
			expected: "a,b\n1,2",
		},
		{
			name:     "fewer lines with trailing newline",
			input:    "a,b\n1,2\n",
			n:        4,
			chunk:    DefaultChunkSize,
			expected: "a,b\n1,2",
		},
		{
			name:     "crlf line endings",
			input:    "a,b\r\n1,2\r\n3,4\r\n",
			n:        2,
			chunk:    DefaultChunkSize,
			expected: "a,b\n1,2",
		},
		{
			name:     "byte order mark removed",
			input:    "\uFEFFa,b\n1,2\n",
			n:        2,
			chunk:    2,
			expected: "a,b\n1,2",
		},
		{
			name:     "single byte chunks",
			input:    csvLines("id,name", "1,Alice", "2,Bob"),
			n:        2,
			chunk:    1,
			expected: "id,name\n1,Alice",
		},
		{
			name:     "multibyte text across chunk boundaries",
			input:    csvLines("名前,都市", "山田,東京", "佐藤,大阪"),
			n:        3,
			chunk:    1,
			expected: "名前,都市\n山田,東京\n佐藤,大阪",
		},
		{
			name:     "empty file",
			input:    "",
			n:        4,
			chunk:    DefaultChunkSize,
			expected: "",
		},
		{
			name:     "blank lines are kept",
			input:    "a,b\n\n1,2\n",
			n:        3,
			chunk:    DefaultChunkSize,
			expected: "a,b\n\n1,2",
		},
		{
			name:     "leading blank lines do not count",
			input:    "\n\n\na,b\n1,2\n3,4\n",
			n:        2,
			chunk:    DefaultChunkSize,
			expected: "\n\n\na,b\n1,2",
		},
		{
			name:     "blank crlf lines do not count",
			input:    "a,b\r\n\r\n1,2\r\n3,4\r\n",
			n:        2,
			chunk:    3,
			expected: "a,b\n\n1,2",
		},
		{
			name:     "trailing blank lines dropped at end of file",
			input:    "a,b\n1,2\n\n\n",
			n:        4,
			chunk:    DefaultChunkSize,
			expected: "a,b\n1,2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadLines(context.Background(), BytesSource("t.csv", []byte(tt.input)), tt.n, tt.chunk, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.NotContains(t, got, "\uFFFD")
		})
	}
}

func TestReadLines_BoundedRead(t *testing.T) {
	src := newGeneratedSource(1_000_000)
	const chunk = 1024

	got, err := ReadLines(context.Background(), src, 4, chunk, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, len(strings.Split(got, "\n")))
	assert.True(t, strings.HasPrefix(got, "id,name,email\n"))
	assert.LessOrEqual(t, src.read.Load(), int64(2*chunk))
}

func TestReadLines_InvalidCount(t *testing.T) {
	_, err := ReadLines(context.Background(), BytesSource("t.csv", []byte("a\n")), 0, 8, 0)
	assert.Error(t, err)
}

func TestReadLines_ReadError(t *testing.T) {
	_, err := ReadLines(context.Background(), &failingSource{data: []byte("a,b\n")}, 4, 8, 0)
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, errBoom)
}

func TestReadLines_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadLines(ctx, BytesSource("t.csv", []byte("a,b\n1,2\n")), 2, 8, 0)
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFirstLines(t *testing.T) {
	assert.Equal(t, "a\nb", firstLines("a\nb\nc\n", 2))
	assert.Equal(t, "a\nb", firstLines("a\r\nb\r\n", 5))
	assert.Equal(t, "a", firstLines("a", 3))
	assert.Equal(t, "", firstLines("", 3))
	assert.Equal(t, "\na\n\nb", firstLines("\na\n\nb\nc\n", 2))
	assert.Equal(t, "a", firstLines("a\n\r\n\n", 2))
}

func TestReadLines_LineTooLong(t *testing.T) {
	const chunk, maxLine = 4096, 64 << 10
	src := newRepeatSource("abcdefgh,", 64<<20)

	got, err := ReadLines(context.Background(), src, 4, chunk, maxLine)

	require.ErrorIs(t, err, ErrLineTooLong)
	assert.ErrorIs(t, err, ErrHeaderUnreadable)
	assert.Empty(t, got)
	assert.LessOrEqual(t, src.read.Load(), int64(maxLine+chunk))
}

func TestReadLines_TooManyBlankLines(t *testing.T) {
	const chunk, maxLine = 256, 1024
	src := newRepeatSource("\n", 1<<20)

	_, err := ReadLines(context.Background(), src, 4, chunk, maxLine)

	require.ErrorIs(t, err, ErrLineTooLong)
	assert.LessOrEqual(t, src.read.Load(), int64(4*maxLine+chunk))
}

func TestReadLines_LongLineAfterPreview(t *testing.T) {
	input := "a,b\n1,2\n" + strings.Repeat("x", 100)

	got, err := ReadLines(context.Background(), BytesSource("t.csv", []byte(input)), 2, DefaultChunkSize, 32)

	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", got)
}
