package hive

import (
	"errors"

	"github.com/joshuapare/regwalk/internal/format"
)

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindFormat      ErrKind = iota // malformed headers/signatures (e.g., bad "regf")
	ErrKindCorrupt                    // structural corruption (bad sizes/offsets/tags)
	ErrKindUnsupported                // valid feature we don't decode
	ErrKindLimit                      // a configured resource limit was exceeded
	ErrKindIO                         // the backing stream failed
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors by kind and message so wrapped copies compare
// equal to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

// Sentinels returned by the decoder.
var (
	// ErrNotHive indicates the stream lacks a valid "regf" header.
	ErrNotHive = &Error{Kind: ErrKindFormat, Msg: "not a registry hive (bad regf header)"}
	// ErrCorrupt indicates structural inconsistency.
	ErrCorrupt = &Error{Kind: ErrKindCorrupt, Msg: "corrupt hive structure"}
	// ErrUnsupportedType indicates a value type outside the decoded set.
	ErrUnsupportedType = &Error{Kind: ErrKindUnsupported, Msg: "unsupported value type"}
	// ErrLimit indicates a record exceeded a configured limit.
	ErrLimit = &Error{Kind: ErrKindLimit, Msg: "hive limit exceeded"}
)

func ioErr(msg string, err error) error {
	return &Error{Kind: ErrKindIO, Msg: msg, Err: err}
}

func corrupt(msg string) error {
	return &Error{Kind: ErrKindCorrupt, Msg: msg, Err: ErrCorrupt}
}

func limit(msg string) error {
	return &Error{Kind: ErrKindLimit, Msg: msg, Err: ErrLimit}
}

func wrapFormatErr(err error) error {
	switch {
	case errors.Is(err, format.ErrTruncated):
		return &Error{Kind: ErrKindCorrupt, Msg: "hive truncated", Err: err}
	case errors.Is(err, format.ErrFreeCell):
		return &Error{Kind: ErrKindCorrupt, Msg: "cell marked free", Err: err}
	case errors.Is(err, format.ErrUnsupported):
		return &Error{Kind: ErrKindUnsupported, Msg: "unsupported record", Err: err}
	case errors.Is(err, format.ErrSignatureMismatch):
		return &Error{Kind: ErrKindCorrupt, Msg: "unexpected record", Err: err}
	default:
		return &Error{Kind: ErrKindCorrupt, Msg: err.Error(), Err: err}
	}
}
