package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/regwalk/internal/buf"
)

// ListKind identifies the flavour of a subkey list cell.
type ListKind int

const (
	ListUnknown ListKind = iota
	ListLI
	ListLF
	ListLH
	ListRI
)

// SubkeyListKind inspects the signature of a subkey list payload.
func SubkeyListKind(b []byte) ListKind {
	if len(b) < SignatureSize {
		return ListUnknown
	}
	sig := b[:SignatureSize]
	switch {
	case bytes.Equal(sig, LISignature):
		return ListLI
	case bytes.Equal(sig, LFSignature):
		return ListLF
	case bytes.Equal(sig, LHSignature):
		return ListLH
	case bytes.Equal(sig, RISignature):
		return ListRI
	}
	return ListUnknown
}

// DecodeSubkeyList extracts cell offsets from a leaf (LI/LF/LH) or indirect
// (RI) list. For leaves the offsets point at NK cells; for RI they point at
// further leaf lists which the caller resolves.
func DecodeSubkeyList(b []byte) (ListKind, []uint32, error) {
	kind := SubkeyListKind(b)
	if len(b) < ListHeaderSize {
		return kind, nil, fmt.Errorf("subkey list: %w", ErrTruncated)
	}
	entrySize := LIEntrySize
	switch kind {
	case ListLF, ListLH:
		entrySize = LFEntrySize
	case ListLI, ListRI:
	default:
		return kind, nil, fmt.Errorf("subkey list %q: %w", b[:SignatureSize], ErrUnsupported)
	}
	count := int(buf.U16LE(b[SignatureSize:]))
	table, ok := buf.Table(b, ListHeaderSize, count, entrySize)
	if !ok {
		return kind, nil, fmt.Errorf("subkey list: %w (%d entries of %d bytes)", ErrTruncated, count, entrySize)
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = buf.U32LE(table[i*entrySize:])
	}
	return kind, out, nil
}

// DecodeValueList decodes a value list: a bare array of VK cell offsets
// whose length is taken from the owning NK record.
func DecodeValueList(b []byte, count uint32) ([]uint32, error) {
	if count == 0 {
		return nil, nil
	}
	table, ok := buf.Table(b, 0, int(count), OffsetFieldSize)
	if !ok {
		return nil, fmt.Errorf("value list: %w (%d entries, %d bytes)", ErrTruncated, count, len(b))
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = buf.U32LE(table[i*OffsetFieldSize:])
	}
	return out, nil
}
