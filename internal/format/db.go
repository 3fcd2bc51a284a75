package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/regwalk/internal/buf"
)

// DBRecord is a big-data record. Values larger than DBChunkSize in hives of
// version 1.4 and later are split across blocks; the record points to a
// blocklist cell holding one cell offset per block.
//
//	Offset  Size  Field
//	0x00    2     'd' 'b'
//	0x02    2     Number of blocks
//	0x04    4     Blocklist cell offset
//	0x08    4     Unused
type DBRecord struct {
	NumBlocks       uint16
	BlocklistOffset uint32
}

// IsDBRecord reports whether b starts with the big-data signature.
func IsDBRecord(b []byte) bool {
	return len(b) >= SignatureSize && bytes.Equal(b[:SignatureSize], DBSignature)
}

// DecodeDB decodes a big-data record header.
func DecodeDB(b []byte) (DBRecord, error) {
	if len(b) < DBHeaderSize {
		return DBRecord{}, fmt.Errorf("db: %w (need %d bytes, have %d)", ErrTruncated, DBHeaderSize, len(b))
	}
	if !IsDBRecord(b) {
		return DBRecord{}, fmt.Errorf("db: %w", ErrSignatureMismatch)
	}
	return DBRecord{
		NumBlocks:       buf.U16LE(b[DBCountOffset:]),
		BlocklistOffset: buf.U32LE(b[DBBlocklistOffset:]),
	}, nil
}

// DecodeBlocklist decodes the block offsets referenced by a DB record.
func DecodeBlocklist(b []byte, n uint16) ([]uint32, error) {
	table, ok := buf.Table(b, 0, int(n), OffsetFieldSize)
	if !ok {
		return nil, fmt.Errorf("db blocklist: %w (%d blocks, %d bytes)", ErrTruncated, n, len(b))
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = buf.U32LE(table[i*OffsetFieldSize:])
	}
	return out, nil
}
