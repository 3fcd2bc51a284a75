// Package format houses low-level decoders for the Windows Registry hive file
// format. Decoders operate on byte slices that the caller has already read
// from the backing stream; they never perform I/O and never panic on
// malformed input.
package format

var (
	// REGFSignature is the four-byte signature at the start of every hive file.
	REGFSignature = []byte{'r', 'e', 'g', 'f'}

	// HBINSignature is the four-byte signature at the beginning of each hive bin.
	HBINSignature = []byte{'h', 'b', 'i', 'n'}

	// NKSignature identifies an NK (Node Key) cell payload.
	NKSignature = []byte{'n', 'k'}

	// VKSignature identifies a VK (Value Key) cell payload.
	VKSignature = []byte{'v', 'k'}

	// LFSignature, LHSignature, and LISignature identify subkey list variants.
	// LF/LH include hashed names, while LI is a linear list without hashes.
	LFSignature = []byte{'l', 'f'}
	LHSignature = []byte{'l', 'h'}
	LISignature = []byte{'l', 'i'}

	// RISignature identifies an RI (indirect) subkey list whose entries point
	// at further LF/LH/LI lists.
	RISignature = []byte{'r', 'i'}

	// DBSignature identifies a Big Data (DB) record for large registry values.
	DBSignature = []byte{'d', 'b'}
)

const (
	// HeaderSize is the size of the REGF base block. Cell offsets stored in
	// the hive are relative to the first HBIN, which starts right after it.
	HeaderSize = 0x1000

	// HBINHeaderSize is the size of the HBIN header in bytes.
	HBINHeaderSize = 0x20

	// HBINAlignment is the required alignment (and size granularity) of bins.
	HBINAlignment = 0x1000

	// CellHeaderSize is the signed size field preceding every cell.
	CellHeaderSize = 4

	// CellAlignment is the required alignment of cells within HBINs.
	CellAlignment = 8

	// InvalidOffset marks an unused cell reference.
	InvalidOffset = 0xFFFFFFFF

	// SignatureSize is the size of two-byte record tags (nk, vk, lf, ...).
	SignatureSize = 2

	// OffsetFieldSize is the size of a cell reference (HCELL_INDEX).
	OffsetFieldSize = 4
)

// REGF base block field offsets.
const (
	REGFPrimarySeqOffset   = 0x004
	REGFSecondarySeqOffset = 0x008
	REGFTimeStampOffset    = 0x00C
	REGFMajorVersionOffset = 0x014
	REGFMinorVersionOffset = 0x018
	REGFTypeOffset         = 0x01C
	REGFFormatOffset       = 0x020
	REGFRootCellOffset     = 0x024
	REGFDataSizeOffset     = 0x028
	REGFClusterOffset      = 0x02C
	REGFFileNameOffset     = 0x030
	REGFFileNameSize       = 64
	REGFCheckSumOffset     = 0x1FC

	// REGFChecksumDwords is the number of leading dwords XORed into the checksum.
	REGFChecksumDwords = 127
)

// HBIN header field offsets.
const (
	HBINFileOffsetField = 0x04
	HBINSizeOffset      = 0x08
	HBINTimeStampOffset = 0x14
)

// NK record field offsets (payload start == "nk").
const (
	NKFlagsOffset          = 0x02
	NKLastWriteOffset      = 0x04
	NKParentOffset         = 0x10
	NKSubkeyCountOffset    = 0x14
	NKVolSubkeyCountOffset = 0x18
	NKSubkeyListOffset     = 0x1C
	NKVolSubkeyListOffset  = 0x20
	NKValueCountOffset     = 0x24
	NKValueListOffset      = 0x28
	NKSecurityOffset       = 0x2C
	NKClassNameOffset      = 0x30
	NKNameLenOffset        = 0x48
	NKClassLenOffset       = 0x4A
	NKNameOffset           = 0x4C

	NKMinSize = NKNameOffset
)

// NK flags.
const (
	NKFlagHiveExit       = 0x0002
	NKFlagHiveEntry      = 0x0004
	NKFlagNoDelete       = 0x0008
	NKFlagCompressedName = 0x0020
)

// VK record field offsets (payload start == "vk").
const (
	VKNameLenOffset = 0x02
	VKDataLenOffset = 0x04
	VKDataOffOffset = 0x08
	VKTypeOffset    = 0x0C
	VKFlagsOffset   = 0x10
	VKNameOffset    = 0x14

	VKMinSize = VKNameOffset

	// VKFlagASCIIName marks a value name stored in Windows-1252.
	VKFlagASCIIName = 0x0001

	// VKDataInlineBit is the high bit of DataLength; when set the payload
	// (at most four bytes) lives in the DataOffset field itself.
	VKDataInlineBit  = 0x80000000
	VKDataLengthMask = 0x7FFFFFFF
)

// Subkey and value list layout.
const (
	ListHeaderSize = 4 // signature + uint16 count
	LIEntrySize    = 4 // cell index
	LFEntrySize    = 8 // cell index + name hint/hash
)

// DB (big data) record layout.
const (
	DBCountOffset     = 0x02
	DBBlocklistOffset = 0x04
	DBHeaderSize      = 0x0C

	// DBChunkSize is the payload carried by each big-data block.
	DBChunkSize = 16344

	// DBMinorVersion is the first hive minor version that may store values
	// larger than DBChunkSize as big-data records.
	DBMinorVersion = 4
)

// Registry value type codes.
const (
	REGNone                     uint32 = 0
	REGSZ                       uint32 = 1
	REGExpandSZ                 uint32 = 2
	REGBinary                   uint32 = 3
	REGDWORD                    uint32 = 4
	REGDWORDBigEndian           uint32 = 5
	REGLink                     uint32 = 6
	REGMultiSZ                  uint32 = 7
	REGResourceList             uint32 = 8
	REGFullResourceDescriptor   uint32 = 9
	REGResourceRequirementsList uint32 = 10
	REGQWORD                    uint32 = 11
)

// Align8 returns n aligned up to the next cell boundary.
func Align8(n int) int {
	return (n + CellAlignment - 1) &^ (CellAlignment - 1)
}

// AlignHBIN returns n aligned up to the next bin boundary.
func AlignHBIN(n int) int {
	return (n + HBINAlignment - 1) &^ (HBINAlignment - 1)
}
