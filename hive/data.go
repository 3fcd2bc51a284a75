package hive

import "strconv"

// Data is the closed set of payload encodings the decoder produces. The
// marker method keeps the set closed: adding an encoding means adding a type
// here, and every exhaustive switch over Data must then handle it.
type Data interface {
	isData()
}

// None is the payload of a REG_NONE value.
type None struct{}

// String is the payload of REG_SZ, REG_EXPAND_SZ, and REG_LINK values.
type String string

// Int32 is the payload of REG_DWORD and REG_DWORD_BIG_ENDIAN values.
type Int32 int32

func (None) isData()   {}
func (String) isData() {}
func (Int32) isData()  {}

// RegType enumerates Windows registry value types. The numbers align with
// Windows definitions.
type RegType uint32

const (
	REG_NONE                       RegType = 0
	REG_SZ                         RegType = 1
	REG_EXPAND_SZ                  RegType = 2
	REG_BINARY                     RegType = 3
	REG_DWORD                      RegType = 4
	REG_DWORD_BE                   RegType = 5
	REG_LINK                       RegType = 6
	REG_MULTI_SZ                   RegType = 7
	REG_RESOURCE_LIST              RegType = 8
	REG_FULL_RESOURCE_DESCRIPTOR   RegType = 9
	REG_RESOURCE_REQUIREMENTS_LIST RegType = 10
	REG_QWORD                      RegType = 11
)

var regTypeNames = map[RegType]string{
	REG_NONE:                       "REG_NONE",
	REG_SZ:                         "REG_SZ",
	REG_EXPAND_SZ:                  "REG_EXPAND_SZ",
	REG_BINARY:                     "REG_BINARY",
	REG_DWORD:                      "REG_DWORD",
	REG_DWORD_BE:                   "REG_DWORD_BE",
	REG_LINK:                       "REG_LINK",
	REG_MULTI_SZ:                   "REG_MULTI_SZ",
	REG_RESOURCE_LIST:              "REG_RESOURCE_LIST",
	REG_FULL_RESOURCE_DESCRIPTOR:   "REG_FULL_RESOURCE_DESCRIPTOR",
	REG_RESOURCE_REQUIREMENTS_LIST: "REG_RESOURCE_REQUIREMENTS_LIST",
	REG_QWORD:                      "REG_QWORD",
}

func (t RegType) String() string {
	if s, ok := regTypeNames[t]; ok {
		return s
	}
	// signed to match hivex output for invalid types
	return "UNKNOWN_TYPE_" + strconv.FormatInt(int64(int32(t)), 10)
}
