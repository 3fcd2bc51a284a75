package format

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/joshuapare/regwalk/internal/buf"
)

// VKRecord models a value key record. VK cells name a value and reference its
// payload, either inline in DataOffset or through another cell.
//
//	Offset  Size  Field
//	0x00    2     'v' 'k'
//	0x02    2     Name length
//	0x04    4     Data length (bit 31 => inline)
//	0x08    4     Data offset or inline data
//	0x0C    4     Value type
//	0x10    2     Flags (0x01 => name stored as Windows-1252)
//	0x14    n     Name bytes
type VKRecord struct {
	DataLength uint32
	DataOffset uint32
	Type       uint32
	Flags      uint16
	NameRaw    []byte
}

// NameIsASCII reports whether the name is stored as Windows-1252 bytes.
func (vk VKRecord) NameIsASCII() bool {
	return vk.Flags&VKFlagASCIIName != 0
}

// Name decodes the value name to UTF-8. Unnamed (default) values yield "".
func (vk VKRecord) Name() string {
	return DecodeName(vk.NameRaw, vk.NameIsASCII())
}

// DataInline reports whether the payload is stored in the DataOffset field.
func (vk VKRecord) DataInline() bool {
	return vk.DataLength&VKDataInlineBit != 0
}

// Size returns the declared payload length with the inline bit masked off.
func (vk VKRecord) Size() uint32 {
	return vk.DataLength & VKDataLengthMask
}

// InlineData returns the inline payload. Lengths beyond the four-byte field
// are clamped; callers that care compare against Size.
func (vk VKRecord) InlineData() []byte {
	var field [OffsetFieldSize]byte
	binary.LittleEndian.PutUint32(field[:], vk.DataOffset)
	n := min(int(vk.Size()), OffsetFieldSize)
	out := make([]byte, n)
	copy(out, field[:n])
	return out
}

// DecodeVK decodes a VK record payload. The name slice aliases b.
func DecodeVK(b []byte) (VKRecord, error) {
	if len(b) < VKMinSize {
		return VKRecord{}, fmt.Errorf("vk: %w (have %d, need %d)", ErrTruncated, len(b), VKMinSize)
	}
	if !bytes.Equal(b[:SignatureSize], VKSignature) {
		return VKRecord{}, fmt.Errorf("vk: %w", ErrSignatureMismatch)
	}
	nameLen := int(buf.U16LE(b[VKNameLenOffset:]))
	name, ok := buf.Slice(b, VKNameOffset, nameLen)
	if !ok {
		return VKRecord{}, fmt.Errorf("vk name: %w (need %d bytes from %d, have %d)",
			ErrTruncated, nameLen, VKNameOffset, len(b))
	}
	return VKRecord{
		DataLength: buf.U32LE(b[VKDataLenOffset:]),
		DataOffset: buf.U32LE(b[VKDataOffOffset:]),
		Type:       buf.U32LE(b[VKTypeOffset:]),
		Flags:      buf.U16LE(b[VKFlagsOffset:]),
		NameRaw:    name,
	}, nil
}
