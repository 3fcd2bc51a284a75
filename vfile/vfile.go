// Package vfile provides byte-stream builders: values that can hand out any
// number of independent seekable readers over the same content. Hive walks
// open a builder more than once, so each reader keeps its own position.
package vfile

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/joshuapare/regwalk/internal/mmfile"
)

// Builder opens independent readers over one piece of content.
type Builder interface {
	Open() (io.ReadSeekCloser, error)
	Size() int64
}

// Memory serves readers over an in-memory buffer.
type Memory struct {
	b []byte
}

// NewMemory returns a builder over b. The buffer must not be modified while
// readers are open.
func NewMemory(b []byte) *Memory { return &Memory{b: b} }

// Open returns a fresh reader positioned at the start.
func (m *Memory) Open() (io.ReadSeekCloser, error) {
	return &reader{Reader: bytes.NewReader(m.b)}, nil
}

// Size returns the buffer length.
func (m *Memory) Size() int64 { return int64(len(m.b)) }

// File serves readers over a memory-mapped file. The mapping is released when
// the File is closed and every reader it handed out has been closed.
type File struct {
	path string
	m    *mmfile.Mapping

	mu     sync.Mutex
	refs   int
	closed bool
}

// NewFile maps path read-only.
func NewFile(path string) (*File, error) {
	m, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("vfile: %w", err)
	}
	return &File{path: path, m: m}, nil
}

// Path returns the mapped file's path.
func (f *File) Path() string { return f.path }

// Open returns a fresh reader positioned at the start.
func (f *File) Open() (io.ReadSeekCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, fmt.Errorf("vfile: open %s: %w", f.path, mmfile.ErrClosed)
	}
	f.refs++
	return &reader{Reader: bytes.NewReader(f.m.Bytes()), done: f.release}, nil
}

// Size returns the file length.
func (f *File) Size() int64 { return int64(f.m.Len()) }

// Close stops new readers from being opened.
func (f *File) Close() error {
	f.mu.Lock()
	f.closed = true
	last := f.refs == 0
	f.mu.Unlock()
	if last {
		return f.m.Close()
	}
	return nil
}

func (f *File) release() error {
	f.mu.Lock()
	f.refs--
	last := f.closed && f.refs == 0
	f.mu.Unlock()
	if last {
		return f.m.Close()
	}
	return nil
}

type reader struct {
	*bytes.Reader
	done func() error
	once sync.Once
}

func (r *reader) Close() error {
	var err error
	r.once.Do(func() {
		if r.done != nil {
			err = r.done()
		}
	})
	return err
}
