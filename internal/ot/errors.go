package ot

import "fmt"

// Kind categorizes a submit failure per spec.md §7.
type Kind int

const (
	// KindBadRev: the client cited a base revision the server has
	// never reached.
	KindBadRev Kind = iota
	// KindBadOp: a position or length falls outside the document or
	// mid-codepoint.
	KindBadOp
	// KindConflict: transform refused an overlapping concurrent edit.
	KindConflict
	// KindTooLarge: applying the op would grow the document past the
	// configured maximum size. A transport-level guard, not part of
	// the transform algebra itself.
	KindTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindBadRev:
		return "BadRev"
	case KindBadOp:
		return "BadOp"
	case KindConflict:
		return "Conflict"
	case KindTooLarge:
		return "TooLarge"
	default:
		return "Unknown"
	}
}

// Error is the error type Submit and transform return. Its Kind
// drives the wire-level desync reason (spec.md §7).
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func badRev(format string, args ...interface{}) error {
	return &Error{Kind: KindBadRev, Msg: fmt.Sprintf(format, args...)}
}

func badOp(format string, args ...interface{}) error {
	return &Error{Kind: KindBadOp, Msg: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func tooLarge(format string, args ...interface{}) error {
	return &Error{Kind: KindTooLarge, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, if err is an *Error. Wrapped
// errors are not unwrapped. Returns ok=false for any other error.
func KindOf(err error) (Kind, bool) {
	if oe, ok := err.(*Error); ok {
		return oe.Kind, true
	}
	return 0, false
}
