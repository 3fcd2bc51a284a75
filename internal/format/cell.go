package format

import (
	"errors"
	"fmt"

	"github.com/joshuapare/regwalk/internal/buf"
)

// CellHeader is the decoded signed size that precedes every cell.
//
//	Offset  Size  Description
//	0x00    4     Signed size. Negative => allocated, positive => free.
//	              The absolute value includes the 4-byte header.
type CellHeader struct {
	Size      int // total size including the header
	Allocated bool
}

// PayloadSize is the number of bytes following the header.
func (c CellHeader) PayloadSize() int {
	return c.Size - CellHeaderSize
}

// ParseCellHeader decodes the four-byte cell header at the start of b.
func ParseCellHeader(b []byte) (CellHeader, error) {
	if len(b) < CellHeaderSize {
		return CellHeader{}, fmt.Errorf("cell: %w", ErrTruncated)
	}
	raw := buf.I32LE(b)
	if raw == 0 {
		return CellHeader{}, errors.New("cell: zero length")
	}
	allocated := raw < 0
	size := int(raw)
	if allocated {
		size = -size
	}
	if size < CellHeaderSize {
		return CellHeader{}, fmt.Errorf("cell: declared size too small (%d)", size)
	}
	return CellHeader{Size: size, Allocated: allocated}, nil
}
