package hive

import (
	"fmt"
	"io"

	"github.com/joshuapare/regwalk/internal/buf"
	"github.com/joshuapare/regwalk/internal/format"
)

// Value is one named value under a key. The VK record is decoded eagerly;
// the payload is only fetched by Read.
type Value struct {
	h    *Hive
	vk   format.VKRecord
	name string

	data []byte
	read bool
}

// Name returns the decoded value name; "" for the default value.
func (v *Value) Name() string { return v.name }

// Size returns the declared payload size in bytes.
func (v *Value) Size() uint32 { return v.vk.Size() }

// Type returns the declared registry type.
func (v *Value) Type() RegType { return RegType(v.vk.Type) }

// Read fetches the payload from r. On failure any bytes that could be
// recovered are kept, so Decode can still make use of a partial payload.
func (v *Value) Read(r io.ReadSeeker) error {
	v.read = true
	size := int(v.vk.Size())

	if v.vk.DataInline() {
		v.data = v.vk.InlineData()
		if size > format.OffsetFieldSize {
			return corrupt(fmt.Sprintf("value %q inline length %d exceeds field", v.name, size))
		}
		return nil
	}
	if size == 0 {
		v.data = []byte{}
		return nil
	}

	payload, err := v.h.cell(r, v.vk.DataOffset)
	if err != nil {
		return fmt.Errorf("value %q data: %w", v.name, err)
	}
	if size > format.DBChunkSize && v.h.head.MinorVersion >= format.DBMinorVersion && format.IsDBRecord(payload) {
		v.data, err = v.readBig(r, payload, size)
		return err
	}
	if len(payload) < size {
		v.data = payload
		return corrupt(fmt.Sprintf("value %q data truncated: declared %d, cell holds %d", v.name, size, len(payload)))
	}
	v.data = payload[:size]
	return nil
}

// readBig assembles a big-data payload from its blocks.
func (v *Value) readBig(r io.ReadSeeker, rec []byte, size int) ([]byte, error) {
	db, err := format.DecodeDB(rec)
	if err != nil {
		return nil, wrapFormatErr(err)
	}
	list, err := v.h.cell(r, db.BlocklistOffset)
	if err != nil {
		return nil, fmt.Errorf("value %q blocklist: %w", v.name, err)
	}
	blocks, err := format.DecodeBlocklist(list, db.NumBlocks)
	if err != nil {
		return nil, wrapFormatErr(err)
	}
	out := make([]byte, 0, size)
	for i, off := range blocks {
		block, err := v.h.cell(r, off)
		if err != nil {
			return out, fmt.Errorf("value %q block %d: %w", v.name, i, err)
		}
		n := min(len(block), format.DBChunkSize, size-len(out))
		out = append(out, block[:n]...)
		if len(out) == size {
			return out, nil
		}
	}
	return out, corrupt(fmt.Sprintf("value %q big data short: declared %d, assembled %d", v.name, size, len(out)))
}

// Decode converts the payload obtained by Read into Data. It returns
// (nil, nil) when no payload was obtained. Types outside the decoded set
// fail with ErrUnsupportedType.
func (v *Value) Decode() (Data, error) {
	if !v.read || v.data == nil {
		return nil, nil
	}
	switch v.Type() {
	case REG_NONE:
		return None{}, nil
	case REG_SZ, REG_EXPAND_SZ, REG_LINK:
		s, ok := format.DecodeUTF16String(v.data)
		if !ok {
			return nil, corrupt(fmt.Sprintf("value %q: odd-length string payload", v.name))
		}
		return String(s), nil
	case REG_DWORD:
		if len(v.data) < 4 {
			return nil, corrupt(fmt.Sprintf("value %q: dword payload of %d bytes", v.name, len(v.data)))
		}
		return Int32(buf.I32LE(v.data)), nil
	case REG_DWORD_BE:
		if len(v.data) < 4 {
			return nil, corrupt(fmt.Sprintf("value %q: dword payload of %d bytes", v.name, len(v.data)))
		}
		return Int32(int32(buf.U32BE(v.data))), nil
	default:
		return nil, &Error{Kind: ErrKindUnsupported, Msg: "value " + v.name + " has type " + v.Type().String(), Err: ErrUnsupportedType}
	}
}

// Payload returns the raw bytes obtained by Read.
func (v *Value) Payload() []byte { return v.data }
