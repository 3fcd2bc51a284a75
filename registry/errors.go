package registry

// ErrKind classifies failures that stop Run before a walk starts.
type ErrKind int

const (
	ErrKindArgumentMissing   ErrKind = iota // the file node id does not resolve
	ErrKindValueMissing                     // the file node has no "data" attribute
	ErrKindValueTypeMismatch                // "data" is not a stream
	ErrKindStream                           // the stream could not be opened
	ErrKindHiveFormat                       // the decoder rejected the bytes or found no root
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindArgumentMissing:
		return "argument missing"
	case ErrKindValueMissing:
		return "value missing"
	case ErrKindValueTypeMismatch:
		return "value type mismatch"
	case ErrKindStream:
		return "stream"
	case ErrKindHiveFormat:
		return "hive format"
	default:
		return "unknown"
	}
}

// Error is a typed pre-walk failure with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error
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

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrArgumentMissing   = &Error{Kind: ErrKindArgumentMissing, Msg: "file node not found"}
	ErrValueMissing      = &Error{Kind: ErrKindValueMissing, Msg: "file node has no data attribute"}
	ErrValueTypeMismatch = &Error{Kind: ErrKindValueTypeMismatch, Msg: "data attribute is not a stream"}
	ErrStream            = &Error{Kind: ErrKindStream, Msg: "cannot open data stream"}
	ErrHiveFormat        = &Error{Kind: ErrKindHiveFormat, Msg: "not a usable registry hive"}
)
