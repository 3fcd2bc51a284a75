package hive

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/joshuapare/regwalk/internal/format"
)

// Info exposes registry hive header (REGF) metadata.
type Info struct {
	MajorVersion     uint32
	MinorVersion     uint32
	LastWrite        time.Time // zero when the header carries no timestamp
	RootCellOffset   uint32
	HiveBinsDataSize uint32
	Dirty            bool // sequence numbers disagree
	ChecksumValid    bool
}

// Hive is a decoded hive header plus the geometry needed to resolve cells.
// It retains the stream it was decoded from, which Root reads from; key
// cursors read from whichever stream their caller supplies.
type Hive struct {
	r       io.ReadSeeker
	head    format.Header
	opts    Options
	dataEnd int64 // absolute end of readable bin data
}

// Decode validates the base block and first bin of the hive in r.
func Decode(r io.ReadSeeker, opts Options) (*Hive, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, ioErr("size hive stream", err)
	}
	head := make([]byte, format.HeaderSize)
	if err := readAt(r, 0, head); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, &Error{Kind: ErrKindFormat, Msg: "hive shorter than base block", Err: ErrNotHive}
		}
		return nil, ioErr("read base block", err)
	}
	hdr, err := format.ParseHeader(head)
	if err != nil {
		if errors.Is(err, format.ErrSignatureMismatch) {
			return nil, ErrNotHive
		}
		return nil, wrapFormatErr(err)
	}

	bin := make([]byte, format.HBINHeaderSize)
	if err := readAt(r, format.HeaderSize, bin); err != nil {
		return nil, &Error{Kind: ErrKindFormat, Msg: "hive has no bins", Err: err}
	}
	if _, err := format.ParseHBIN(bin); err != nil {
		return nil, wrapFormatErr(err)
	}

	// A header that overstates the bin data is common in carved evidence;
	// clamp to what the stream actually holds.
	dataEnd := int64(format.HeaderSize) + int64(hdr.HiveBinsDataSize)
	if hdr.HiveBinsDataSize == 0 || dataEnd > size {
		dataEnd = size
	}

	return &Hive{
		r:       r,
		head:    hdr,
		opts:    opts.withDefaults(),
		dataEnd: dataEnd,
	}, nil
}

// Info returns header metadata.
func (h *Hive) Info() Info {
	lw, _ := format.FiletimeToTime(h.head.LastWriteRaw)
	return Info{
		MajorVersion:     h.head.MajorVersion,
		MinorVersion:     h.head.MinorVersion,
		LastWrite:        lw,
		RootCellOffset:   h.head.RootCellOffset,
		HiveBinsDataSize: h.head.HiveBinsDataSize,
		Dirty:            h.head.Dirty(),
		ChecksumValid:    h.head.ChecksumValid,
	}
}

// Root reads the root key from the stream the hive was decoded from.
func (h *Hive) Root() (*Key, error) {
	k, err := h.key(h.r, h.head.RootCellOffset)
	if err != nil {
		return nil, fmt.Errorf("root key: %w", err)
	}
	return k, nil
}

// key reads the NK record at off and wraps it in a fresh cursor.
func (h *Hive) key(r io.ReadSeeker, off uint32) (*Key, error) {
	payload, err := h.cell(r, off)
	if err != nil {
		return nil, err
	}
	nk, err := format.DecodeNK(payload)
	if err != nil {
		return nil, wrapFormatErr(err)
	}
	return &Key{h: h, offset: off, nk: nk, name: nk.Name()}, nil
}

// cell reads the payload of the allocated cell at the relative offset off.
func (h *Hive) cell(r io.ReadSeeker, off uint32) ([]byte, error) {
	if off == format.InvalidOffset {
		return nil, corrupt("reference to invalid cell offset")
	}
	abs := int64(format.HeaderSize) + int64(off)
	if abs+format.CellHeaderSize > h.dataEnd {
		return nil, corrupt(fmt.Sprintf("cell offset %#x out of range", off))
	}
	var raw [format.CellHeaderSize]byte
	if err := readAt(r, abs, raw[:]); err != nil {
		return nil, ioErr(fmt.Sprintf("read cell header at %#x", off), err)
	}
	ch, err := format.ParseCellHeader(raw[:])
	if err != nil {
		return nil, wrapFormatErr(err)
	}
	if !ch.Allocated {
		return nil, wrapFormatErr(fmt.Errorf("cell %#x: %w", off, format.ErrFreeCell))
	}
	if ch.Size > h.opts.MaxCellSize {
		return nil, limit(fmt.Sprintf("cell %#x size %d exceeds MaxCellSize", off, ch.Size))
	}
	if abs+int64(ch.Size) > h.dataEnd {
		return nil, wrapFormatErr(fmt.Errorf("cell %#x: %w", off, format.ErrTruncated))
	}
	payload := make([]byte, ch.PayloadSize())
	if err := readAt(r, abs+format.CellHeaderSize, payload); err != nil {
		return nil, ioErr(fmt.Sprintf("read cell %#x", off), err)
	}
	return payload, nil
}

func readAt(r io.ReadSeeker, off int64, p []byte) error {
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(r, p)
	return err
}
