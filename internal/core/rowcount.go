package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ContextCheckInterval is how often (in records) CountRows checks for
// context cancellation between chunk reads.
var ContextCheckInterval = 100

// RowCount is the outcome of a counting pass.
type RowCount struct {
	// Rows is the number of logical records seen, saturating at limit+1.
	Rows int
	// Exceeded is set when the count went past the limit and the pass
	// stopped early.
	Exceeded bool
}

// CountRows streams src through a CSV reader and counts logical records.
//
// A newline inside a quoted field does not end a record and fully empty lines
// are skipped. Every record counts, the header line included. As soon as the
// count exceeds limit the stream is cancelled and CountRows returns with
// Exceeded set, without scanning the rest of the file.
//
// A physical line longer than maxLineBytes fails with ErrLineTooLong, so a
// file without line breaks is never buffered whole. A non-positive
// maxLineBytes selects DefaultMaxLineBytes.
func CountRows(ctx context.Context, src Source, limit, chunkSize, maxLineBytes int) (RowCount, error) {
	if limit <= 0 {
		return RowCount{}, fmt.Errorf("%w: row limit must be positive, got %d", ErrInvalidPolicy, limit)
	}

	stream, err := OpenStream(ctx, src, chunkSize)
	if err != nil {
		return RowCount{}, err
	}
	defer stream.Cancel()

	r := csv.NewReader(newLineCapReader(stream, maxLineBytes))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	rows := 0
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			return RowCount{Rows: rows}, nil
		}
		if errors.Is(err, ErrLineTooLong) {
			stream.Cancel()
			return RowCount{Rows: rows}, fmt.Errorf("count rows: %w", err)
		}
		if err != nil {
			// Malformed records still occupy a row; only stream failures abort.
			var parseErr *csv.ParseError
			if errors.Is(err, ErrRead) || !errors.As(err, &parseErr) {
				return RowCount{}, fmt.Errorf("count rows: %w", wrapRead(err))
			}
		}

		rows++
		if rows > limit {
			stream.Cancel()
			return RowCount{Rows: rows, Exceeded: true}, nil
		}

		if rows%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return RowCount{}, fmt.Errorf("count rows: %w: %w", ErrRead, err)
			}
		}
	}
}

// wrapRead marks err as a read failure unless it already is one.
func wrapRead(err error) error {
	if errors.Is(err, ErrRead) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRead, err)
}

// lineCapReader fails with ErrLineTooLong once more than limit bytes arrive
// without a '\n'. Bytes up to the limit are still returned.
type lineCapReader struct {
	r     io.Reader
	limit int
	run   int // bytes since the last line break
}

func newLineCapReader(r io.Reader, limit int) *lineCapReader {
	if limit <= 0 {
		limit = DefaultMaxLineBytes
	}
	return &lineCapReader{r: r, limit: limit}
}

func (l *lineCapReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	for i, b := range p[:n] {
		if b == '\n' {
			l.run = 0
			continue
		}
		l.run++
		if l.run > l.limit {
			return i, fmt.Errorf("%w: more than %d bytes without a line break", ErrLineTooLong, l.limit)
		}
	}
	return n, err
}
