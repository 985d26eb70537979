package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadLines returns the leading lines of src joined with "\n", up to and
// including the nth non-blank line.
//
// Chunks are decoded incrementally and the stream is cancelled as soon as n
// non-blank lines are complete, so the bytes read are bounded by the offset of
// that line break plus one chunk, whatever the file size. Blank lines (empty,
// or a lone "\r") are kept in the text but do not count toward n. If the file
// ends first, the lines accumulated so far are returned without trailing blank
// lines; the last one may lack a newline. A trailing "\r" is dropped from
// every line.
//
// A line longer than maxLineBytes, or more than n*maxLineBytes of text in
// total, fails with ErrLineTooLong. A non-positive maxLineBytes selects
// DefaultMaxLineBytes.
func ReadLines(ctx context.Context, src Source, n, chunkSize, maxLineBytes int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("read lines: line count must be positive, got %d", n)
	}
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}

	stream, err := OpenStream(ctx, src, chunkSize)
	if err != nil {
		return "", err
	}
	defer stream.Cancel()

	var (
		dec    utf8Decoder
		text   strings.Builder
		lines  = lineCounter{want: n}
		atHead = true
	)

	for {
		chunk, err := stream.Next(ctx)
		final := errors.Is(err, io.EOF)
		if err != nil && !final {
			return "", fmt.Errorf("read lines: %w", err)
		}

		piece := dec.decode(chunk, final)
		if atHead && piece != "" {
			piece = stripBOM(piece)
			atHead = false
		}

		lines.feed(piece)
		text.WriteString(piece)

		if lines.longest > maxLineBytes || (lines.count < n && text.Len() > n*maxLineBytes) {
			stream.Cancel()
			return "", fmt.Errorf("read lines: %w: more than %d bytes in a line", ErrLineTooLong, maxLineBytes)
		}
		if lines.count >= n || final {
			stream.Cancel()
			return firstLines(text.String(), n), nil
		}
	}
}

// lineCounter tracks non-blank line breaks across decoded pieces.
type lineCounter struct {
	want    int
	count   int
	cur     int  // length of the unterminated line
	first   byte // first byte of the unterminated line
	longest int
}

func (c *lineCounter) feed(s string) {
	for s != "" && c.count < c.want {
		i := strings.IndexByte(s, '\n')
		seg := s
		if i >= 0 {
			seg = s[:i]
		}
		if c.cur == 0 && seg != "" {
			c.first = seg[0]
		}
		c.cur += len(seg)
		c.longest = max(c.longest, c.cur)
		if i < 0 {
			return
		}

		if !(c.cur == 0 || (c.cur == 1 && c.first == '\r')) {
			c.count++
		}
		c.cur = 0
		s = s[i+1:]
	}
}

// firstLines returns the lines of text up to and including the nth non-blank
// one, joined with "\n". Trailing blank lines are dropped.
func firstLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	end, seen := 0, 0
	for i, line := range lines {
		if line == "" {
			continue
		}
		end = i + 1
		seen++
		if seen == n {
			break
		}
	}
	return strings.Join(lines[:end], "\n")
}
