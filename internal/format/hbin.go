package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/regwalk/internal/buf"
)

// HBIN describes a hive bin header:
//
//	Offset  Size  Field
//	0x00    4     'h' 'b' 'i' 'n'
//	0x04    4     Offset of this bin relative to the first bin
//	0x08    4     Size of the bin, multiple of 0x1000
//	0x14    8     Timestamp (only meaningful in the first bin)
type HBIN struct {
	FileOffset uint32
	Size       uint32
}

// ParseHBIN validates the bin header at the start of b.
func ParseHBIN(b []byte) (HBIN, error) {
	if len(b) < HBINHeaderSize {
		return HBIN{}, fmt.Errorf("hbin: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:len(HBINSignature)], HBINSignature) {
		return HBIN{}, fmt.Errorf("hbin: %w", ErrSignatureMismatch)
	}
	size := buf.U32LE(b[HBINSizeOffset:])
	if size < HBINAlignment || size%HBINAlignment != 0 {
		return HBIN{}, fmt.Errorf("hbin: invalid size %#x", size)
	}
	return HBIN{
		FileOffset: buf.U32LE(b[HBINFileOffsetField:]),
		Size:       size,
	}, nil
}
