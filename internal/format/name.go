package format

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// DecodeName converts an on-disk key or value name to UTF-8. Compressed names
// are Windows-1252; the rest are UTF-16LE. Undecodable sequences become
// U+FFFD so corrupt names never abort a traversal.
func DecodeName(raw []byte, compressed bool) string {
	if len(raw) == 0 {
		return ""
	}
	if compressed {
		if isASCII(raw) {
			return string(raw)
		}
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return string(bytes.ToValidUTF8(raw, []byte("�")))
		}
		return string(out)
	}
	return decodeUTF16(raw)
}

// DecodeUTF16String decodes a REG_SZ style payload: UTF-16LE with optional
// trailing NUL terminators. ok is false for odd-length payloads.
func DecodeUTF16String(data []byte) (string, bool) {
	if len(data)%2 != 0 {
		return "", false
	}
	for len(data) >= 2 && data[len(data)-2] == 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-2]
	}
	return decodeUTF16(data), true
}

func decodeUTF16(raw []byte) string {
	out, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	return string(out)
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
