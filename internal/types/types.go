package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindInt
	KindUint
	KindFloat
	KindComplex
	KindPointer
	KindClass
	KindFn
	KindArray
	KindSlice
	KindDelegate
	KindVector
	KindStruct
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	case KindPointer:
		return "pointer"
	case KindClass:
		return "class"
	case KindFn:
		return "fn"
	case KindArray:
		return "array"
	case KindSlice:
		return "slice"
	case KindDelegate:
		return "delegate"
	case KindVector:
		return "vector"
	case KindStruct:
		return "struct"
	case KindAlias:
		return "alias"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats.
//
// For floats and complex numbers Width80 denotes the target's extended
// `real` type; its storage size is decided by the layout target.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	Width80  Width = 80
)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32 // for arrays and vectors
	Width   Width  // for numeric primitives
	Payload uint32 // side-table slot for nominal kinds
}

// Descriptor helpers ---------------------------------------------------------

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeComplex describes a complex number whose halves have the given width.
func MakeComplex(width Width) Type {
	return Type{Kind: KindComplex, Width: width}
}

// MakePointer describes a raw pointer.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// MakeArray describes a fixed-length array T[N].
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeSlice describes a dynamic array T[] (length + pointer pair).
func MakeSlice(elem TypeID) Type {
	return Type{Kind: KindSlice, Elem: elem}
}

// MakeVector describes a SIMD vector of count elements.
func MakeVector(elem TypeID, count uint32) Type {
	return Type{Kind: KindVector, Elem: elem, Count: count}
}

// MakeDelegate describes a delegate (context pointer + function pointer).
func MakeDelegate() Type {
	return Type{Kind: KindDelegate}
}

// MakeClass describes a class reference.
func MakeClass() Type {
	return Type{Kind: KindClass}
}

// IsComplex80 reports whether the descriptor is the extended-precision complex.
func (t Type) IsComplex80() bool {
	return t.Kind == KindComplex && t.Width == Width80
}
