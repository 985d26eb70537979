package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Source is a read-only handle on a user-selected file.
//
// Every call to Open must return an independent reader positioned at the
// start of the file: the row count pass and the preview pass each open their
// own cursor and must not interfere with each other.
type Source interface {
	Name() string
	Size() int64
	Open(ctx context.Context) (io.ReadCloser, error)
}

type fileSource struct {
	path string
	size int64
}

// FileSource returns a Source backed by a file on disk.
func FileSource(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &fileSource{path: path, size: info.Size()}, nil
}

func (f *fileSource) Name() string { return filepath.Base(f.path) }
func (f *fileSource) Size() int64  { return f.size }

func (f *fileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource returns a Source over an in-memory buffer. The buffer is
// never modified.
func BytesSource(name string, data []byte) Source {
	return &bytesSource{name: name, data: data}
}

func (b *bytesSource) Name() string { return b.name }
func (b *bytesSource) Size() int64  { return int64(len(b.data)) }

func (b *bytesSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

type multipartSource struct {
	fh *multipart.FileHeader
}

// MultipartSource adapts an uploaded form file. FileHeader.Open hands out a
// fresh reader on each call, so both validation passes can run against it.
func MultipartSource(fh *multipart.FileHeader) Source {
	return &multipartSource{fh: fh}
}

func (m *multipartSource) Name() string { return m.fh.Filename }
func (m *multipartSource) Size() int64  { return m.fh.Size }

func (m *multipartSource) Open(_ context.Context) (io.ReadCloser, error) {
	return m.fh.Open()
}
