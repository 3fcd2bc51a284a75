package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/regwalk/internal/buf"
)

// Header captures the REGF base block fields needed to traverse a hive.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   4    'r' 'e' 'g' 'f'
//	 0x004   4    Primary sequence number
//	 0x008   4    Secondary sequence number
//	 0x00C   8    Last write timestamp (FILETIME)
//	 0x014   4    Major version
//	 0x018   4    Minor version
//	 0x01C   4    Type (0 = primary)
//	 0x024   4    Root cell offset (relative to first HBIN)
//	 0x028   4    Total size of HBIN data
//	 0x1FC   4    XOR checksum of the first 508 bytes
type Header struct {
	PrimarySequence   uint32
	SecondarySequence uint32
	LastWriteRaw      uint64
	MajorVersion      uint32
	MinorVersion      uint32
	Type              uint32
	RootCellOffset    uint32
	HiveBinsDataSize  uint32
	Checksum          uint32
	ChecksumValid     bool
}

// Dirty reports whether the sequence numbers disagree, meaning the hive was
// not cleanly flushed and transaction logs may hold newer data.
func (h Header) Dirty() bool {
	return h.PrimarySequence != h.SecondarySequence
}

// ParseHeader validates the signature and extracts the base block fields.
// A checksum mismatch is reported through ChecksumValid rather than as an
// error; evidence with a stale checksum is still walkable.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("regf header: %w (have %d, need %d)", ErrTruncated, len(b), HeaderSize)
	}
	if !bytes.Equal(b[:len(REGFSignature)], REGFSignature) {
		return Header{}, fmt.Errorf("regf header: %w", ErrSignatureMismatch)
	}
	sum := buf.U32LE(b[REGFCheckSumOffset:])
	return Header{
		PrimarySequence:   buf.U32LE(b[REGFPrimarySeqOffset:]),
		SecondarySequence: buf.U32LE(b[REGFSecondarySeqOffset:]),
		LastWriteRaw:      buf.U64LE(b[REGFTimeStampOffset:]),
		MajorVersion:      buf.U32LE(b[REGFMajorVersionOffset:]),
		MinorVersion:      buf.U32LE(b[REGFMinorVersionOffset:]),
		Type:              buf.U32LE(b[REGFTypeOffset:]),
		RootCellOffset:    buf.U32LE(b[REGFRootCellOffset:]),
		HiveBinsDataSize:  buf.U32LE(b[REGFDataSizeOffset:]),
		Checksum:          sum,
		ChecksumValid:     HeaderChecksum(b) == sum,
	}, nil
}

// HeaderChecksum computes the base block checksum: the XOR of the first 127
// dwords, with 0 mapped to 1 and 0xFFFFFFFF mapped to 0xFFFFFFFE.
func HeaderChecksum(b []byte) uint32 {
	if len(b) < REGFChecksumDwords*4 {
		return 0
	}
	var sum uint32
	for i := range REGFChecksumDwords {
		sum ^= buf.U32LE(b[i*4:])
	}
	switch sum {
	case 0:
		return 1
	case 0xFFFFFFFF:
		return 0xFFFFFFFE
	}
	return sum
}
