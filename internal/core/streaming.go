package core

// streaming.go provides the chunked byte stream both validation passes read
// from.
//
// A ByteStream pulls fixed-size chunks from a Source in file order and can be
// cancelled at any point. Cancellation is cooperative: once Cancel is called
// the underlying reader is closed and every later read resolves to io.EOF.
// Nothing is retried; a failing read surfaces immediately wrapped in ErrRead.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// DefaultChunkSize is the number of bytes requested from the source per read.
const DefaultChunkSize = 64 * 1024

// ByteStream is a cancellable, chunked cursor over a Source.
//
// A ByteStream has a single consumer. To stop it from another goroutine,
// cancel the context it was opened with.
type ByteStream struct {
	ctx  context.Context
	name string
	rc   io.ReadCloser
	buf  []byte

	// Unconsumed remainder of the last chunk, served by Read.
	pending []byte
	done    bool

	cancelled atomic.Bool
	stopWatch func() bool
	closeOnce sync.Once
	closeErr  error
	bytesRead atomic.Int64
}

// OpenStream opens a new, independent cursor on src.
// A non-positive chunkSize selects DefaultChunkSize.
func OpenStream(ctx context.Context, src Source, chunkSize int) (*ByteStream, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrRead, src.Name(), err)
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrRead, src.Name(), err)
	}

	s := &ByteStream{
		ctx:  ctx,
		name: src.Name(),
		rc:   rc,
		buf:  make([]byte, chunkSize),
	}
	s.stopWatch = context.AfterFunc(ctx, s.release)
	return s, nil
}

// Next returns the next chunk of the file. The returned slice is only valid
// until the following call. At end of file, or after Cancel, Next returns
// io.EOF.
func (s *ByteStream) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := s.ctxErr(ctx); err != nil {
			return nil, err
		}
		if s.done || s.cancelled.Load() {
			return nil, io.EOF
		}

		n, err := s.rc.Read(s.buf)
		s.bytesRead.Add(int64(n))

		// A read racing with Cancel may fail on the closed reader.
		if err := s.ctxErr(ctx); err != nil {
			return nil, err
		}
		if s.cancelled.Load() {
			return nil, io.EOF
		}
		if err != nil && !errors.Is(err, io.EOF) {
			s.done = true
			return nil, fmt.Errorf("%w: %s: %w", ErrRead, s.name, err)
		}
		if errors.Is(err, io.EOF) {
			s.done = true
		}
		if n > 0 {
			return s.buf[:n], nil
		}
	}
}

func (s *ByteStream) ctxErr(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		err = s.ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRead, s.name, err)
	}
	return nil
}

// Read implements io.Reader over the chunk sequence, using the context the
// stream was opened with.
func (s *ByteStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if len(s.pending) == 0 {
		chunk, err := s.Next(s.ctx)
		if err != nil {
			return 0, err
		}
		s.pending = chunk
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Cancel stops the stream and releases the underlying reader. It is safe to
// call more than once.
func (s *ByteStream) Cancel() {
	if s.stopWatch != nil {
		s.stopWatch()
	}
	s.release()
}

func (s *ByteStream) release() {
	s.cancelled.Store(true)
	s.closeOnce.Do(func() {
		s.closeErr = s.rc.Close()
	})
}

// Close implements io.Closer.
func (s *ByteStream) Close() error {
	s.Cancel()
	return s.closeErr
}

// Cancelled reports whether Cancel has been called.
func (s *ByteStream) Cancelled() bool {
	return s.cancelled.Load()
}

// BytesRead returns the number of bytes pulled from the source so far.
func (s *ByteStream) BytesRead() int64 {
	return s.bytesRead.Load()
}
