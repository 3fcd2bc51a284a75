// Package mmfile maps evidence files read-only so hive streams can be served
// without copying the file into the heap.
package mmfile

import (
	"errors"
	"sync"
)

// ErrClosed is returned when a mapping is used after Close.
var ErrClosed = errors.New("mmfile: mapping closed")

// Mapping is a read-only view of a whole file.
type Mapping struct {
	data    []byte
	release func([]byte) error

	once sync.Once
	err  error
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (m *Mapping) Bytes() []byte { return m.data }

// Len returns the mapped length.
func (m *Mapping) Len() int { return len(m.data) }

// Close releases the mapping. Repeated calls return the first result.
func (m *Mapping) Close() error {
	m.once.Do(func() {
		if m.release != nil && len(m.data) > 0 {
			m.err = m.release(m.data)
		}
		m.data = nil
	})
	return m.err
}
