package hive

import (
	"fmt"
	"io"
	"time"

	"github.com/joshuapare/regwalk/internal/format"
)

// Key is a read-once cursor over one registry key's values and subkeys.
// Lists are loaded lazily on the first call to NextValue or NextKey; a list
// that fails to load keeps failing.
type Key struct {
	h      *Hive
	offset uint32
	nk     format.NKRecord
	name   string

	values     []uint32
	valuesErr  error
	valuesRead bool
	nextValue  int

	subkeys     []uint32
	subkeysErr  error
	subkeysRead bool
	nextSubkey  int
}

// Name returns the decoded key name.
func (k *Key) Name() string { return k.name }

// Offset returns the key's cell offset relative to the first bin.
func (k *Key) Offset() uint32 { return k.offset }

// LastWritten returns the key's last write time. ok is false when the record
// carries no usable timestamp.
func (k *Key) LastWritten() (time.Time, bool) {
	return format.FiletimeToTime(k.nk.LastWriteRaw)
}

// SubkeyCount returns the subkey count recorded in the key node.
func (k *Key) SubkeyCount() int { return int(k.nk.SubkeyCount) }

// ValueCount returns the value count recorded in the key node.
func (k *Key) ValueCount() int { return int(k.nk.ValueCount) }

// NextValue returns the next value of the key, reading from r. It returns
// io.EOF once all values have been produced.
func (k *Key) NextValue(r io.ReadSeeker) (*Value, error) {
	if !k.valuesRead {
		k.valuesRead = true
		k.values, k.valuesErr = k.loadValues(r)
	}
	if k.valuesErr != nil {
		return nil, k.valuesErr
	}
	if k.nextValue >= len(k.values) {
		return nil, io.EOF
	}
	off := k.values[k.nextValue]
	k.nextValue++

	payload, err := k.h.cell(r, off)
	if err != nil {
		return nil, fmt.Errorf("value %d of %q: %w", k.nextValue-1, k.name, err)
	}
	vk, err := format.DecodeVK(payload)
	if err != nil {
		return nil, fmt.Errorf("value %d of %q: %w", k.nextValue-1, k.name, wrapFormatErr(err))
	}
	return &Value{h: k.h, vk: vk, name: vk.Name()}, nil
}

// NextKey returns the next subkey, reading from r. It returns io.EOF once all
// subkeys have been produced.
func (k *Key) NextKey(r io.ReadSeeker) (*Key, error) {
	if !k.subkeysRead {
		k.subkeysRead = true
		k.subkeys, k.subkeysErr = k.loadSubkeys(r)
	}
	if k.subkeysErr != nil {
		return nil, k.subkeysErr
	}
	if k.nextSubkey >= len(k.subkeys) {
		return nil, io.EOF
	}
	off := k.subkeys[k.nextSubkey]
	k.nextSubkey++

	child, err := k.h.key(r, off)
	if err != nil {
		return nil, fmt.Errorf("subkey %d of %q: %w", k.nextSubkey-1, k.name, err)
	}
	return child, nil
}

func (k *Key) loadValues(r io.ReadSeeker) ([]uint32, error) {
	count := k.nk.ValueCount
	if count == 0 || k.nk.ValueListOffset == format.InvalidOffset {
		return nil, nil
	}
	if int64(count) > int64(k.h.opts.MaxValues) {
		return nil, limit(fmt.Sprintf("key %q value count %d exceeds MaxValues", k.name, count))
	}
	payload, err := k.h.cell(r, k.nk.ValueListOffset)
	if err != nil {
		return nil, fmt.Errorf("value list of %q: %w", k.name, err)
	}
	list, err := format.DecodeValueList(payload, count)
	if err != nil {
		return nil, fmt.Errorf("value list of %q: %w", k.name, wrapFormatErr(err))
	}
	return list, nil
}

func (k *Key) loadSubkeys(r io.ReadSeeker) ([]uint32, error) {
	expected := k.nk.SubkeyCount
	if expected == 0 || k.nk.SubkeyListOffset == format.InvalidOffset {
		return nil, nil
	}
	if int64(expected) > int64(k.h.opts.MaxSubkeys) {
		return nil, limit(fmt.Sprintf("key %q subkey count %d exceeds MaxSubkeys", k.name, expected))
	}
	payload, err := k.h.cell(r, k.nk.SubkeyListOffset)
	if err != nil {
		return nil, fmt.Errorf("subkey list of %q: %w", k.name, err)
	}
	kind, entries, err := format.DecodeSubkeyList(payload)
	if err != nil {
		return nil, fmt.Errorf("subkey list of %q: %w", k.name, wrapFormatErr(err))
	}
	if kind != format.ListRI {
		return clampList(entries, expected), nil
	}

	// RI lists hold leaf lists; nested RI lists are not valid.
	out := make([]uint32, 0, min(int(expected), len(entries)*128))
	for _, leafOff := range entries {
		leaf, err := k.h.cell(r, leafOff)
		if err != nil {
			return nil, fmt.Errorf("subkey list of %q: %w", k.name, err)
		}
		leafKind, offs, err := format.DecodeSubkeyList(leaf)
		if err != nil {
			return nil, fmt.Errorf("subkey list of %q: %w", k.name, wrapFormatErr(err))
		}
		if leafKind == format.ListRI {
			return nil, corrupt(fmt.Sprintf("subkey list of %q: nested ri list", k.name))
		}
		out = append(out, offs...)
		if len(out) > k.h.opts.MaxSubkeys {
			return nil, limit(fmt.Sprintf("key %q subkey list exceeds MaxSubkeys", k.name))
		}
	}
	return clampList(out, expected), nil
}

// clampList trims a list to the count recorded in the key node; lists that
// claim more entries than the node are trusted only up to the node count.
func clampList(list []uint32, expected uint32) []uint32 {
	if uint32(len(list)) > expected {
		return list[:expected]
	}
	return list
}
