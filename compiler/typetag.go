package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Type tags
// ---------------------------------------------------------------------------

// ValueType discriminates the kinds a type tag can take. Record types carry
// an index into the struct table next to the discriminant.
type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeVector
	TypeStruct
	TypeFunction
	TypeNil
	TypeAny
)

// String returns the built-in display name for a ValueType.
func (v ValueType) String() string {
	switch v {
	case TypeUndefined:
		return "undefined"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeVector:
		return "vector"
	case TypeStruct:
		return "struct"
	case TypeFunction:
		return "function"
	case TypeNil:
		return "nil"
	case TypeAny:
		return "any"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(v))
	}
}

// Type tags an identifier, field or return value. It is stored by value and
// compared by discriminant plus struct index.
type Type struct {
	T   ValueType
	Idx int // struct table index when T == TypeStruct, -1 otherwise
}

// BuiltinType returns a tag for a non-record kind.
func BuiltinType(t ValueType) Type {
	return Type{T: t, Idx: -1}
}

// StructType returns a tag for the record type at the given struct table index.
func StructType(idx int) Type {
	return Type{T: TypeStruct, Idx: idx}
}
