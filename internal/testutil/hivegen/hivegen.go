// Package hivegen synthesizes registry hive images in memory for tests. It
// writes just enough of the format (base block, one bin, NK/VK/LH/RI/DB
// cells) for the decoder to walk, plus hooks that plant specific kinds of
// corruption.
package hivegen

import (
	"encoding/binary"
	"time"
	"unicode/utf16"

	"github.com/joshuapare/regwalk/internal/format"
)

// Builder accumulates a key tree and renders it as hive bytes.
type Builder struct {
	// MinorVersion is written to the base block. Big-data records are only
	// emitted for minor versions >= 4. Defaults to 5.
	MinorVersion uint32

	root *Key
}

// New returns a builder whose root key is named rootName.
func New(rootName string) *Builder {
	return &Builder{MinorVersion: 5, root: &Key{Name: rootName}}
}

// Root returns the root key description.
func (b *Builder) Root() *Key { return b.root }

// Key describes one key to be written.
type Key struct {
	Name      string
	LastWrite time.Time // zero writes a zero FILETIME
	UTF16Name bool      // store the name as UTF-16LE instead of Windows-1252

	values []Value
	keys   []*Key

	bogusValue   bool // extra value entry pointing at a non-vk cell
	badValueList bool // value list offset points past the end of the hive
	bogusSubkey  bool // extra subkey entry pointing at a non-nk cell
	badKeyList   bool // subkey list offset points past the end of the hive
	indirect     bool // write the subkey list as an ri list of two lh lists
	repeatSubkey bool // list the first subkey a second time
	linkSelf     bool // list the key as its own last subkey
}

// Value describes one value to be written.
type Value struct {
	Name string
	Type uint32
	Data []byte

	// DeclaredSize overrides the length written to the vk record when
	// non-zero. Declaring more than len(Data) yields a truncated payload.
	DeclaredSize uint32

	// Dangling points the data offset at an unreadable cell.
	Dangling bool
}

// Key appends a subkey and returns it.
func (k *Key) Key(name string) *Key {
	child := &Key{Name: name}
	k.keys = append(k.keys, child)
	return child
}

// Stamp sets the last write time.
func (k *Key) Stamp(t time.Time) *Key {
	k.LastWrite = t
	return k
}

// Add appends a fully specified value.
func (k *Key) Add(v Value) *Key {
	k.values = append(k.values, v)
	return k
}

// DWORD appends a REG_DWORD value.
func (k *Key) DWORD(name string, v uint32) *Key {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, v)
	return k.Add(Value{Name: name, Type: format.REGDWORD, Data: data})
}

// String appends a NUL-terminated REG_SZ value.
func (k *Key) String(name, s string) *Key {
	return k.Add(Value{Name: name, Type: format.REGSZ, Data: UTF16(s)})
}

// None appends an empty REG_NONE value.
func (k *Key) None(name string) *Key {
	return k.Add(Value{Name: name, Type: format.REGNone})
}

// BogusValue appends a value list entry that points at a non-vk cell.
func (k *Key) BogusValue() *Key {
	k.bogusValue = true
	return k
}

// BadValueList points the value list past the end of the hive.
func (k *Key) BadValueList() *Key {
	k.badValueList = true
	return k
}

// BogusSubkey appends a subkey list entry that points at a non-nk cell.
func (k *Key) BogusSubkey() *Key {
	k.bogusSubkey = true
	return k
}

// BadKeyList points the subkey list past the end of the hive.
func (k *Key) BadKeyList() *Key {
	k.badKeyList = true
	return k
}

// RepeatSubkey lists the first subkey twice.
func (k *Key) RepeatSubkey() *Key {
	k.repeatSubkey = true
	return k
}

// LinkSelf appends the key itself to its subkey list, closing a loop.
// It is ignored for keys written with Indirect.
func (k *Key) LinkSelf() *Key {
	k.linkSelf = true
	return k
}

// Indirect writes the subkey list through an ri list.
func (k *Key) Indirect() *Key {
	k.indirect = true
	return k
}

// UTF16 encodes s as NUL-terminated UTF-16LE.
func UTF16(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units)+2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2*i:], u)
	}
	return out
}

// Bytes renders the hive.
func (b *Builder) Bytes() []byte {
	w := &writer{minor: b.MinorVersion, data: make([]byte, format.HBINHeaderSize)}
	rootOff := w.key(b.root, true)

	// Pad the bin to a page boundary with one free cell.
	binSize := format.AlignHBIN(len(w.data))
	if slack := binSize - len(w.data); slack > 0 {
		free := make([]byte, slack)
		binary.LittleEndian.PutUint32(free, uint32(slack))
		w.data = append(w.data, free...)
	}
	copy(w.data, format.HBINSignature)
	binary.LittleEndian.PutUint32(w.data[format.HBINFileOffsetField:], 0)
	binary.LittleEndian.PutUint32(w.data[format.HBINSizeOffset:], uint32(binSize))

	head := make([]byte, format.HeaderSize)
	copy(head, format.REGFSignature)
	binary.LittleEndian.PutUint32(head[format.REGFPrimarySeqOffset:], 1)
	binary.LittleEndian.PutUint32(head[format.REGFSecondarySeqOffset:], 1)
	binary.LittleEndian.PutUint32(head[format.REGFMajorVersionOffset:], 1)
	binary.LittleEndian.PutUint32(head[format.REGFMinorVersionOffset:], b.MinorVersion)
	binary.LittleEndian.PutUint32(head[format.REGFFormatOffset:], 1)
	binary.LittleEndian.PutUint32(head[format.REGFRootCellOffset:], rootOff)
	binary.LittleEndian.PutUint32(head[format.REGFDataSizeOffset:], uint32(binSize))
	binary.LittleEndian.PutUint32(head[format.REGFClusterOffset:], 1)
	binary.LittleEndian.PutUint32(head[format.REGFCheckSumOffset:], format.HeaderChecksum(head))

	return append(head, w.data...)
}

// pastEnd is a cell offset no generated hive reaches.
const pastEnd = 0x7FFFFF00

type writer struct {
	minor uint32
	data  []byte // bin contents; offsets are relative to its start
}

// alloc appends an allocated cell holding payload and returns its offset.
func (w *writer) alloc(payload []byte) uint32 {
	off := uint32(len(w.data))
	size := format.Align8(len(payload) + format.CellHeaderSize)
	cell := make([]byte, size)
	binary.LittleEndian.PutUint32(cell, uint32(-int32(size)))
	copy(cell[format.CellHeaderSize:], payload)
	w.data = append(w.data, cell...)
	return off
}

// junk allocates a cell whose signature matches no record type.
func (w *writer) junk() uint32 {
	return w.alloc([]byte{'z', 'z', 0, 0, 0, 0, 0, 0})
}

func (w *writer) key(k *Key, root bool) uint32 {
	var vkOffs []uint32
	for _, v := range k.values {
		vkOffs = append(vkOffs, w.value(v))
	}
	if k.bogusValue {
		vkOffs = append(vkOffs, w.junk())
	}
	valueList := uint32(format.InvalidOffset)
	switch {
	case k.badValueList:
		valueList = pastEnd
	case len(vkOffs) > 0:
		valueList = w.alloc(offsets(vkOffs))
	}

	var nkOffs []uint32
	for _, child := range k.keys {
		nkOffs = append(nkOffs, w.key(child, false))
	}
	if k.repeatSubkey && len(nkOffs) > 0 {
		nkOffs = append(nkOffs, nkOffs[0])
	}
	if k.bogusSubkey {
		nkOffs = append(nkOffs, w.junk())
	}
	selfAt := -1
	if k.linkSelf && !k.indirect {
		selfAt = len(nkOffs)
		nkOffs = append(nkOffs, 0) // patched once the nk cell is placed
	}
	keyList := uint32(format.InvalidOffset)
	switch {
	case k.badKeyList:
		keyList = pastEnd
	case len(nkOffs) > 0 && k.indirect:
		half := (len(nkOffs) + 1) / 2
		a := w.alloc(leafList(nkOffs[:half]))
		b := w.alloc(leafList(nkOffs[half:]))
		keyList = w.alloc(indirectList([]uint32{a, b}))
	case len(nkOffs) > 0:
		keyList = w.alloc(leafList(nkOffs))
	}

	flags := uint16(format.NKFlagCompressedName)
	name := []byte(k.Name)
	if k.UTF16Name {
		flags = 0
		name = UTF16(k.Name)
		name = name[:len(name)-2]
	}
	if root {
		flags |= format.NKFlagHiveEntry | format.NKFlagNoDelete
	}
	nk := make([]byte, format.NKMinSize+len(name))
	copy(nk, format.NKSignature)
	binary.LittleEndian.PutUint16(nk[format.NKFlagsOffset:], flags)
	if !k.LastWrite.IsZero() {
		binary.LittleEndian.PutUint64(nk[format.NKLastWriteOffset:], format.TimeToFiletime(k.LastWrite))
	}
	binary.LittleEndian.PutUint32(nk[format.NKParentOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(nk[format.NKSubkeyCountOffset:], uint32(max(len(nkOffs), boolInt(k.badKeyList))))
	binary.LittleEndian.PutUint32(nk[format.NKSubkeyListOffset:], keyList)
	binary.LittleEndian.PutUint32(nk[format.NKVolSubkeyListOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(nk[format.NKValueCountOffset:], uint32(max(len(vkOffs), boolInt(k.badValueList))))
	binary.LittleEndian.PutUint32(nk[format.NKValueListOffset:], valueList)
	binary.LittleEndian.PutUint32(nk[format.NKSecurityOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint32(nk[format.NKClassNameOffset:], format.InvalidOffset)
	binary.LittleEndian.PutUint16(nk[format.NKNameLenOffset:], uint16(len(name)))
	copy(nk[format.NKNameOffset:], name)
	off := w.alloc(nk)
	if selfAt >= 0 {
		entry := int(keyList) + format.CellHeaderSize + format.ListHeaderSize + selfAt*format.LFEntrySize
		binary.LittleEndian.PutUint32(w.data[entry:], off)
	}
	return off
}

func (w *writer) value(v Value) uint32 {
	size := uint32(len(v.Data))
	if v.DeclaredSize != 0 {
		size = v.DeclaredSize
	}
	var dataLen, dataOff uint32
	switch {
	case v.Dangling:
		dataLen, dataOff = size, pastEnd
	case size <= format.OffsetFieldSize && len(v.Data) <= format.OffsetFieldSize:
		var field [format.OffsetFieldSize]byte
		copy(field[:], v.Data)
		dataLen = size | format.VKDataInlineBit
		dataOff = binary.LittleEndian.Uint32(field[:])
	case len(v.Data) > format.DBChunkSize && w.minor >= format.DBMinorVersion:
		dataLen, dataOff = size, w.bigData(v.Data)
	default:
		dataLen, dataOff = size, w.alloc(v.Data)
	}

	name := []byte(v.Name)
	vk := make([]byte, format.VKMinSize+len(name))
	copy(vk, format.VKSignature)
	binary.LittleEndian.PutUint16(vk[format.VKNameLenOffset:], uint16(len(name)))
	binary.LittleEndian.PutUint32(vk[format.VKDataLenOffset:], dataLen)
	binary.LittleEndian.PutUint32(vk[format.VKDataOffOffset:], dataOff)
	binary.LittleEndian.PutUint32(vk[format.VKTypeOffset:], v.Type)
	if len(name) > 0 {
		binary.LittleEndian.PutUint16(vk[format.VKFlagsOffset:], format.VKFlagASCIIName)
	}
	copy(vk[format.VKNameOffset:], name)
	return w.alloc(vk)
}

func (w *writer) bigData(data []byte) uint32 {
	var blocks []uint32
	for start := 0; start < len(data); start += format.DBChunkSize {
		end := min(start+format.DBChunkSize, len(data))
		blocks = append(blocks, w.alloc(data[start:end]))
	}
	list := w.alloc(offsets(blocks))
	db := make([]byte, format.DBHeaderSize)
	copy(db, format.DBSignature)
	binary.LittleEndian.PutUint16(db[format.DBCountOffset:], uint16(len(blocks)))
	binary.LittleEndian.PutUint32(db[format.DBBlocklistOffset:], list)
	return w.alloc(db)
}

func offsets(offs []uint32) []byte {
	out := make([]byte, len(offs)*format.OffsetFieldSize)
	for i, off := range offs {
		binary.LittleEndian.PutUint32(out[i*format.OffsetFieldSize:], off)
	}
	return out
}

func leafList(offs []uint32) []byte {
	out := make([]byte, format.ListHeaderSize+len(offs)*format.LFEntrySize)
	copy(out, format.LHSignature)
	binary.LittleEndian.PutUint16(out[format.SignatureSize:], uint16(len(offs)))
	for i, off := range offs {
		binary.LittleEndian.PutUint32(out[format.ListHeaderSize+i*format.LFEntrySize:], off)
	}
	return out
}

func indirectList(offs []uint32) []byte {
	out := make([]byte, format.ListHeaderSize+len(offs)*format.LIEntrySize)
	copy(out, format.RISignature)
	binary.LittleEndian.PutUint16(out[format.SignatureSize:], uint16(len(offs)))
	for i, off := range offs {
		binary.LittleEndian.PutUint32(out[format.ListHeaderSize+i*format.LIEntrySize:], off)
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
