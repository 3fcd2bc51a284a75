package registry

import (
	"io"
	"time"

	"github.com/joshuapare/regwalk/hive"
)

// Key is the cursor protocol the walker consumes. NextValue and NextKey
// return io.EOF once exhausted; any other error is an enumeration failure.
type Key interface {
	Name() string
	LastWritten() (time.Time, bool)
	NextValue(r io.ReadSeeker) (Value, error)
	NextKey(r io.ReadSeeker) (Key, error)
}

// Value is one enumerated value. Read may fail and still leave a partial
// payload for Decode; Decode returns (nil, nil) when nothing was read.
type Value interface {
	Name() string
	Size() uint32
	Read(r io.ReadSeeker) error
	Decode() (hive.Data, error)
}

// locator is implemented by keys that know where they live in the hive.
// The walker uses it to refuse entering the same key twice.
type locator interface {
	Offset() uint32
}

// FromHive adapts a decoder key to the walker's cursor protocol.
func FromHive(k *hive.Key) Key { return hiveKey{k} }

type hiveKey struct{ k *hive.Key }

func (h hiveKey) Name() string { return h.k.Name() }

func (h hiveKey) LastWritten() (time.Time, bool) { return h.k.LastWritten() }

func (h hiveKey) Offset() uint32 { return h.k.Offset() }

func (h hiveKey) NextValue(r io.ReadSeeker) (Value, error) {
	v, err := h.k.NextValue(r)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (h hiveKey) NextKey(r io.ReadSeeker) (Key, error) {
	child, err := h.k.NextKey(r)
	if err != nil {
		return nil, err
	}
	return hiveKey{child}, nil
}
