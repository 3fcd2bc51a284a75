package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/regwalk/internal/buf"
)

// NKRecord captures the fields of an NK (key node) record that a traversal
// needs. Layout (simplified):
//
//	Offset  Size  Field
//	0x00    2     'n' 'k'
//	0x02    2     Flags (0x20 => name stored as Windows-1252)
//	0x04    8     Last write time (FILETIME)
//	0x10    4     Parent cell offset
//	0x14    4     Number of subkeys
//	0x1C    4     Offset to subkey list
//	0x24    4     Number of values
//	0x28    4     Offset to value list
//	0x2C    4     Security offset
//	0x30    4     Class name offset
//	0x48    2     Name length (bytes)
//	0x4A    2     Class length (bytes)
//	0x4C    n     Name bytes
type NKRecord struct {
	Flags            uint16
	LastWriteRaw     uint64
	ParentOffset     uint32
	SubkeyCount      uint32
	SubkeyListOffset uint32
	ValueCount       uint32
	ValueListOffset  uint32
	SecurityOffset   uint32
	ClassNameOffset  uint32
	ClassLength      uint16
	NameRaw          []byte
}

// NameIsCompressed reports whether the name is stored in 8-bit form.
func (nk NKRecord) NameIsCompressed() bool {
	return nk.Flags&NKFlagCompressedName != 0
}

// Name decodes the key name to UTF-8.
func (nk NKRecord) Name() string {
	return DecodeName(nk.NameRaw, nk.NameIsCompressed())
}

// DecodeNK decodes an NK record payload. The name slice aliases b.
func DecodeNK(b []byte) (NKRecord, error) {
	if len(b) < NKMinSize {
		return NKRecord{}, fmt.Errorf("nk: %w (have %d, need %d)", ErrTruncated, len(b), NKMinSize)
	}
	if !bytes.Equal(b[:SignatureSize], NKSignature) {
		return NKRecord{}, fmt.Errorf("nk: %w", ErrSignatureMismatch)
	}
	nameLen := int(buf.U16LE(b[NKNameLenOffset:]))
	name, ok := buf.Slice(b, NKNameOffset, nameLen)
	if !ok {
		return NKRecord{}, fmt.Errorf("nk name: %w (need %d bytes from %d, have %d)",
			ErrTruncated, nameLen, NKNameOffset, len(b))
	}
	return NKRecord{
		Flags:            buf.U16LE(b[NKFlagsOffset:]),
		LastWriteRaw:     buf.U64LE(b[NKLastWriteOffset:]),
		ParentOffset:     buf.U32LE(b[NKParentOffset:]),
		SubkeyCount:      buf.U32LE(b[NKSubkeyCountOffset:]),
		SubkeyListOffset: buf.U32LE(b[NKSubkeyListOffset:]),
		ValueCount:       buf.U32LE(b[NKValueCountOffset:]),
		ValueListOffset:  buf.U32LE(b[NKValueListOffset:]),
		SecurityOffset:   buf.U32LE(b[NKSecurityOffset:]),
		ClassNameOffset:  buf.U32LE(b[NKClassNameOffset:]),
		ClassLength:      buf.U16LE(b[NKClassLenOffset:]),
		NameRaw:          name,
	}, nil
}
