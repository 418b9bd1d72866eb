package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Compile errors
// ---------------------------------------------------------------------------

// ErrorKind classifies a compile error raised by the symbol table.
type ErrorKind int

const (
	ErrUnknownIdent ErrorKind = iota
	ErrRedefinition
	ErrFieldClash
	ErrAmbiguousField
	ErrWithDuplicate
	ErrUnknownType
	ErrDuplicateType
	ErrConstAssign
	ErrFunctionScope
)

// String returns a short name for an ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownIdent:
		return "unknown identifier"
	case ErrRedefinition:
		return "redefinition"
	case ErrFieldClash:
		return "field clash"
	case ErrAmbiguousField:
		return "ambiguous field"
	case ErrWithDuplicate:
		return "duplicate with type"
	case ErrUnknownType:
		return "unknown type"
	case ErrDuplicateType:
		return "duplicate type"
	case ErrConstAssign:
		return "assignment to constant"
	case ErrFunctionScope:
		return "function scope mismatch"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a fatal compile diagnostic. The symbol table never recovers from
// one; the driving pipeline abandons the current compilation unit.
type Error struct {
	Kind ErrorKind
	Line int // source line, 0 if unknown to the table
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func newError(kind ErrorKind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}
