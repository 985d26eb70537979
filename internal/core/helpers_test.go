package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing/iotest"
)

var errBoom = errors.New("boom")

// countingSource records how often it is opened and how many bytes are pulled
// from it across all readers.
type countingSource struct {
	Source
	opens atomic.Int32
	read  atomic.Int64
}

func newCountingSource(name, data string) *countingSource {
	return &countingSource{Source: BytesSource(name, []byte(data))}
}

func (c *countingSource) Open(ctx context.Context) (io.ReadCloser, error) {
	c.opens.Add(1)
	rc, err := c.Source.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &countingReader{rc: rc, n: &c.read}, nil
}

type countingReader struct {
	rc io.ReadCloser
	n  *atomic.Int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	r.n.Add(int64(n))
	return n, err
}

func (r *countingReader) Close() error { return r.rc.Close() }

// generatedSource produces a header followed by rows data lines without
// materializing the file.
type generatedSource struct {
	header string
	row    string
	rows   int

	read atomic.Int64
}

func newGeneratedSource(rows int) *generatedSource {
	return &generatedSource{header: "id,name,email\n", row: "1,Alice,alice@example.com\n", rows: rows}
}

func (g *generatedSource) Name() string { return "generated.csv" }

func (g *generatedSource) Size() int64 {
	return int64(len(g.header) + g.rows*len(g.row))
}

func (g *generatedSource) Open(_ context.Context) (io.ReadCloser, error) {
	return &generatedReader{src: g, line: []byte(g.header), left: g.rows}, nil
}

type generatedReader struct {
	src  *generatedSource
	line []byte
	left int
}

func (r *generatedReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.line) == 0 {
			if r.left == 0 {
				break
			}
			r.left--
			r.line = []byte(r.src.row)
		}
		c := copy(p[n:], r.line)
		r.line = r.line[c:]
		n += c
	}
	r.src.read.Add(int64(n))
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (r *generatedReader) Close() error { return nil }

// repeatSource serves pattern over and over until size bytes have been
// produced, without materializing the file.
type repeatSource struct {
	pattern string
	size    int64

	read atomic.Int64
}

func newRepeatSource(pattern string, size int64) *repeatSource {
	return &repeatSource{pattern: pattern, size: size}
}

func (s *repeatSource) Name() string { return "repeated.csv" }
func (s *repeatSource) Size() int64  { return s.size }

func (s *repeatSource) Open(_ context.Context) (io.ReadCloser, error) {
	return &repeatReader{src: s, left: s.size}, nil
}

type repeatReader struct {
	src  *repeatSource
	off  int
	left int64
}

func (r *repeatReader) Read(p []byte) (int, error) {
	if r.left == 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.left {
		p = p[:r.left]
	}
	for i := range p {
		p[i] = r.src.pattern[r.off]
		r.off = (r.off + 1) % len(r.src.pattern)
	}
	r.left -= int64(len(p))
	r.src.read.Add(int64(len(p)))
	return len(p), nil
}

func (r *repeatReader) Close() error { return nil }

// failingSource serves data and then fails with errBoom.
type failingSource struct {
	data []byte
}

func (f *failingSource) Name() string { return "broken.csv" }
func (f *failingSource) Size() int64  { return int64(len(f.data)) }

func (f *failingSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(io.MultiReader(bytes.NewReader(f.data), iotest.ErrReader(errBoom))), nil
}

// unopenableSource fails on Open.
type unopenableSource struct{}

func (unopenableSource) Name() string { return "missing.csv" }
func (unopenableSource) Size() int64  { return 0 }

func (unopenableSource) Open(_ context.Context) (io.ReadCloser, error) {
	return nil, fmt.Errorf("open missing.csv: %w", errBoom)
}

// blockingSource returns readers that block until closed.
type blockingSource struct {
	opened chan struct{}
	once   sync.Once
}

func newBlockingSource() *blockingSource {
	return &blockingSource{opened: make(chan struct{})}
}

func (b *blockingSource) Name() string { return "slow.csv" }
func (b *blockingSource) Size() int64  { return 0 }

func (b *blockingSource) Open(_ context.Context) (io.ReadCloser, error) {
	b.once.Do(func() { close(b.opened) })
	return &blockingReader{closed: make(chan struct{})}, nil
}

type blockingReader struct {
	closed chan struct{}
	once   sync.Once
}

func (r *blockingReader) Read(_ []byte) (int, error) {
	<-r.closed
	return 0, io.ErrClosedPipe
}

func (r *blockingReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

// csvLines joins lines with "\n" and adds a trailing newline.
func csvLines(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}
