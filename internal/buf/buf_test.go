package buf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLittleEndianReaders(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	assert.Equal(t, uint16(0x0201), U16LE(b))
	assert.Equal(t, uint32(0x04030201), U32LE(b))
	assert.Equal(t, uint64(0x0807060504030201), U64LE(b))
	assert.Equal(t, uint32(0x01020304), U32BE(b))
	assert.Equal(t, int32(-1), I32LE([]byte{0xff, 0xff, 0xff, 0xff}))
}

func TestReadersShortInput(t *testing.T) {
	assert.Zero(t, U16LE([]byte{1}))
	assert.Zero(t, U32LE([]byte{1, 2, 3}))
	assert.Zero(t, U64LE(nil))
	assert.Zero(t, I32LE([]byte{1}))
}

func TestAddOverflowSafe(t *testing.T) {
	sum, ok := AddOverflowSafe(10, 5)
	require.True(t, ok)
	assert.Equal(t, 15, sum)

	_, ok = AddOverflowSafe(math.MaxInt, 1)
	assert.False(t, ok)
	_, ok = AddOverflowSafe(math.MinInt, -1)
	assert.False(t, ok)
}

func TestSlice(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}

	got, ok := Slice(data, 1, 3)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)

	_, ok = Slice(data, 4, 2)
	assert.False(t, ok)
	_, ok = Slice(data, -1, 1)
	assert.False(t, ok)
	_, ok = Slice(data, 1, -1)
	assert.False(t, ok)
}

func TestTable(t *testing.T) {
	data := make([]byte, 20)

	got, ok := Table(data, 4, 2, 8)
	require.True(t, ok)
	assert.Len(t, got, 16)

	_, ok = Table(data, 4, 3, 8)
	assert.False(t, ok, "table overruns buffer")
	_, ok = Table(data, 0, math.MaxInt/2, 8)
	assert.False(t, ok, "size computation overflows")
	_, ok = Table(data, 0, -1, 4)
	assert.False(t, ok)
}
