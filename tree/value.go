package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joshuapare/regwalk/vfile"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindString
	KindI32
	KindTime
	KindAttributes
	KindStream
)

var kindNames = [...]string{
	KindNone:       "none",
	KindString:     "string",
	KindI32:        "i32",
	KindTime:       "time",
	KindAttributes: "attributes",
	KindStream:     "stream",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func parseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return KindNone, fmt.Errorf("tree: unknown value kind %q", s)
}

// ErrStreamNotSerializable is returned when marshaling a stream value.
var ErrStreamNotSerializable = errors.New("tree: stream values cannot be serialized")

// Value is an attribute value. The zero Value is None.
type Value struct {
	kind   Kind
	s      string
	i      int32
	t      time.Time
	attrs  *Attributes
	stream vfile.Builder
}

// None returns the absent value.
func None() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// I32 returns a 32-bit integer value.
func I32(n int32) Value { return Value{kind: KindI32, i: n} }

// Time returns a timestamp value, normalized to UTC.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t.UTC()} }

// Group returns a nested attribute group. A nil group is stored as empty.
func Group(a *Attributes) Value {
	if a == nil {
		a = NewAttributes()
	}
	return Value{kind: KindAttributes, attrs: a}
}

// Stream returns a value that hands out readers over some content.
func Stream(b vfile.Builder) Value { return Value{kind: KindStream, stream: b} }

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is the absent value.
func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsI32() (int32, bool) { return v.i, v.kind == KindI32 }

func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindTime }

func (v Value) AsAttributes() (*Attributes, bool) { return v.attrs, v.kind == KindAttributes }

func (v Value) AsStream() (vfile.Builder, bool) { return v.stream, v.kind == KindStream }

// Equal reports whether v and o hold the same variant and content. Streams
// compare by identity.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindI32:
		return v.i == o.i
	case KindTime:
		return v.t.Equal(o.t)
	case KindAttributes:
		return v.attrs.Equal(o.attrs)
	case KindStream:
		return v.stream == o.stream
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindI32:
		return fmt.Sprint(v.i)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindAttributes:
		return fmt.Sprintf("{%d attributes}", v.attrs.Len())
	case KindStream:
		if v.stream == nil {
			return "<stream>"
		}
		return fmt.Sprintf("<stream %d bytes>", v.stream.Size())
	default:
		return "<none>"
	}
}

type valueJSON struct {
	Kind       string      `json:"kind"`
	String     *string     `json:"string,omitempty"`
	I32        *int32      `json:"i32,omitempty"`
	Time       *time.Time  `json:"time,omitempty"`
	Attributes *Attributes `json:"attributes,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	w := valueJSON{Kind: v.kind.String()}
	switch v.kind {
	case KindString:
		w.String = &v.s
	case KindI32:
		w.I32 = &v.i
	case KindTime:
		w.Time = &v.t
	case KindAttributes:
		w.Attributes = v.attrs
	case KindStream:
		return nil, ErrStreamNotSerializable
	}
	return json.Marshal(w)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var w valueJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	kind, err := parseKind(w.Kind)
	if err != nil {
		return err
	}
	switch kind {
	case KindNone:
		*v = None()
	case KindString:
		if w.String == nil {
			return fmt.Errorf("tree: string value without payload")
		}
		*v = String(*w.String)
	case KindI32:
		if w.I32 == nil {
			return fmt.Errorf("tree: i32 value without payload")
		}
		*v = I32(*w.I32)
	case KindTime:
		if w.Time == nil {
			return fmt.Errorf("tree: time value without payload")
		}
		*v = Time(*w.Time)
	case KindAttributes:
		*v = Group(w.Attributes)
	case KindStream:
		return ErrStreamNotSerializable
	}
	return nil
}
