// Package llir models the low-level, LLVM-shaped side of argument lowering:
// literal type descriptors, the target data layout, and the code-generation
// primitives the ABI rewrites are expressed with.
//
// Two Builder implementations are provided. TextBuilder renders textual LLVM
// IR. Machine executes the same primitives over byte buffers, which makes the
// rewrites observable in tests.
package llir

import (
	"fmt"
	"strings"
)

// Type is an LLVM literal type. Literal types are uniqued structurally, so
// two types are the same type iff their String forms are equal.
type Type interface {
	String() string
	llType()
}

// IntType is iN.
type IntType struct{ Bits int }

// FloatKind enumerates the IEEE formats used by the lowering.
type FloatKind uint8

const (
	Half FloatKind = iota + 1
	Float
	Double
	FP128
)

// FloatType is half, float, double or fp128.
type FloatType struct{ Kind FloatKind }

// PointerType is the opaque ptr type.
type PointerType struct{}

// VoidType is void.
type VoidType struct{}

// StructType is a struct { T0, T1, ... }. A struct with a Name is an
// identified struct: it is referenced as %Name and never equals a literal
// struct of the same body.
type StructType struct {
	Name   string
	Elems  []Type
	Packed bool
}

// ArrayType is [N x T].
type ArrayType struct {
	Len  uint64
	Elem Type
}

// VectorType is <N x T>.
type VectorType struct {
	Len  uint64
	Elem Type
}

func (IntType) llType()     {}
func (FloatType) llType()   {}
func (PointerType) llType() {}
func (VoidType) llType()    {}
func (*StructType) llType() {}
func (ArrayType) llType()   {}
func (VectorType) llType()  {}

func (t IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

func (t FloatType) String() string {
	switch t.Kind {
	case Half:
		return "half"
	case Float:
		return "float"
	case Double:
		return "double"
	case FP128:
		return "fp128"
	default:
		return fmt.Sprintf("float(%d)", t.Kind)
	}
}

func (PointerType) String() string { return "ptr" }
func (VoidType) String() string    { return "void" }

func (t *StructType) String() string {
	if t.Name != "" {
		return "%" + sanitizeName(t.Name)
	}
	return t.Body()
}

// Body returns the struct body without the identified-struct name.
func (t *StructType) Body() string {
	if len(t.Elems) == 0 {
		if t.Packed {
			return "<{}>"
		}
		return "{}"
	}
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	body := "{ " + strings.Join(parts, ", ") + " }"
	if t.Packed {
		return "<" + body + ">"
	}
	return body
}

func (t ArrayType) String() string  { return fmt.Sprintf("[%d x %s]", t.Len, t.Elem) }
func (t VectorType) String() string { return fmt.Sprintf("<%d x %s>", t.Len, t.Elem) }

// Common types.
var (
	I1  Type = IntType{Bits: 1}
	I8  Type = IntType{Bits: 8}
	I16 Type = IntType{Bits: 16}
	I32 Type = IntType{Bits: 32}
	I64 Type = IntType{Bits: 64}

	F32  Type = FloatType{Kind: Float}
	F64  Type = FloatType{Kind: Double}
	F128 Type = FloatType{Kind: FP128}

	Ptr  Type = PointerType{}
	Void Type = VoidType{}
)

// Int returns iN.
func Int(bits int) Type { return IntType{Bits: bits} }

// Struct returns a non-packed literal struct of elems.
func Struct(elems ...Type) *StructType {
	return &StructType{Elems: elems}
}

// Equal reports whether a and b denote the same literal type.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// IsFloat reports whether t is a floating-point scalar.
func IsFloat(t Type) bool {
	_, ok := t.(FloatType)
	return ok
}

// TypeDefs renders the definitions of every identified struct reachable from
// tys, dependencies first.
func TypeDefs(tys ...Type) string {
	var sb strings.Builder
	seen := make(map[string]struct{})
	var visit func(t Type)
	visit = func(t Type) {
		switch tt := t.(type) {
		case *StructType:
			if tt.Name != "" {
				if _, ok := seen[tt.Name]; ok {
					return
				}
				seen[tt.Name] = struct{}{}
			}
			for _, e := range tt.Elems {
				visit(e)
			}
			if tt.Name != "" {
				fmt.Fprintf(&sb, "%s = type %s\n", tt, tt.Body())
			}
		case ArrayType:
			visit(tt.Elem)
		case VectorType:
			visit(tt.Elem)
		}
	}
	for _, t := range tys {
		visit(t)
	}
	return sb.String()
}
