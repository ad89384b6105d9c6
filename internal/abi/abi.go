// Package abi lowers source-level function signatures to the machine calling
// convention of a target.
//
// For every parameter, return value and C vararg the target ABI decides
// whether the value travels in its natural representation or through one of
// a closed set of rewrites, and provides the pair of transforms that convert
// between the value's memory image and its ABI-facing shape.
package abi

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"rvabi/internal/layout"
	"rvabi/internal/llir"
	"rvabi/internal/trace"
	"rvabi/internal/types"
)

// ErrUnsupportedTarget is returned by ForTarget for architectures without an
// ABI implementation.
var ErrUnsupportedTarget = errors.New("unsupported ABI target")

// UnwindTableKind is the unwind-table requirement of generated functions.
type UnwindTableKind uint8

const (
	UnwindNone UnwindTableKind = iota
	UnwindSync
	UnwindAsync
)

func (k UnwindTableKind) String() string {
	switch k {
	case UnwindSync:
		return "sync"
	case UnwindAsync:
		return "async"
	default:
		return "none"
	}
}

// Attrs is a set of IR parameter attributes.
type Attrs uint8

const (
	AttrByVal Attrs = 1 << iota
	AttrSRet
	AttrNoAlias
	AttrNoCapture
)

// Has reports whether all attributes in x are set.
func (a Attrs) Has(x Attrs) bool { return a&x == x }

func (a Attrs) String() string {
	var parts []string
	if a.Has(AttrSRet) {
		parts = append(parts, "sret")
	}
	if a.Has(AttrByVal) {
		parts = append(parts, "byval")
	}
	if a.Has(AttrNoAlias) {
		parts = append(parts, "noalias")
	}
	if a.Has(AttrNoCapture) {
		parts = append(parts, "nocapture")
	}
	return strings.Join(parts, " ")
}

// Arg describes one parameter, return value or vararg of a lowered signature.
type Arg struct {
	Name string
	// Type is the source type; it is never changed by the lowering.
	Type types.TypeID
	// LLType is the IR type the value travels as. Rewrites replace it with
	// their ABI-facing type.
	LLType llir.Type
	// ByRef is set when the IR passes the address of the value.
	ByRef bool
	// Pointee is the natural IR type behind a ByRef address.
	Pointee llir.Type
	Attrs   Attrs
	Rewrite Rewrite
}

// FuncTy is a lowered function signature.
type FuncTy struct {
	Ret *Arg
	// SRet is the hidden result pointer when the result is returned in memory.
	SRet      *Arg
	Args      []*Arg
	Varargs   []*Arg
	CVariadic bool
}

// DValue is a source value at a call site or function entry: either an
// address holding the value (an lvalue) or the value itself.
type DValue struct {
	Type types.TypeID
	v    llir.Value
	lval bool
}

// LVal returns a value stored at addr.
func LVal(t types.TypeID, addr llir.Value) DValue {
	return DValue{Type: t, v: addr, lval: true}
}

// RVal returns a first-class value of the type's natural IR type.
func RVal(t types.TypeID, v llir.Value) DValue {
	return DValue{Type: t, v: v}
}

// IsLVal reports whether the value is addressable.
func (d DValue) IsLVal() bool { return d.lval }

// Addr returns the address of an lvalue.
func (d DValue) Addr() llir.Value {
	if !d.lval {
		panic("abi: address of an rvalue")
	}
	return d.v
}

// Value returns the first-class value of an rvalue.
func (d DValue) Value() llir.Value {
	if d.lval {
		panic("abi: first-class value of an lvalue")
	}
	return d.v
}

// TargetABI is the calling-convention contract consumed by call lowering and
// function prologue generation.
type TargetABI interface {
	DefaultUnwindTableKind() UnwindTableKind
	// VaListType is the source type of a va_list cursor.
	VaListType() types.TypeID
	// ReturnInArg reports whether the result goes through a hidden pointer.
	ReturnInArg(fn *types.FnInfo, needsThis bool) bool
	// PassByVal reports whether a parameter is bit-copied onto the stack.
	PassByVal(fn *types.FnInfo, t types.TypeID) bool

	RewriteFunctionType(fty *FuncTy)
	RewriteVarargs(fty *FuncTy, args []*Arg)
	RewriteArgument(fty *FuncTy, arg *Arg)

	// LLType is the natural IR type of a source type.
	LLType(t types.TypeID) llir.Type

	// Put converts a source value into the shape arg travels as.
	Put(b llir.Builder, arg *Arg, dv DValue) llir.Value
	// GetLVal converts an incoming ABI value back into addressable storage of
	// the source type.
	GetLVal(b llir.Builder, arg *Arg, v llir.Value) llir.Value
	// GetRVal is GetLVal followed by a load of the source type.
	GetRVal(b llir.Builder, arg *Arg, v llir.Value) llir.Value
}

// ForTarget returns the ABI implementation for the target's architecture.
func ForTarget(target layout.Target, in *types.Interner, le *layout.LayoutEngine, opts ...Option) (TargetABI, error) {
	switch target.Arch {
	case "riscv64":
		return NewRISCV64(target, in, le, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTarget, target.Triple)
	}
}

// Option configures an ABI object.
type Option func(*baseABI)

// WithTracer makes the ABI emit one arg-scope event per classification,
// parented to the given span.
func WithTracer(t trace.Tracer, parent uint64) Option {
	return func(a *baseABI) {
		if t == nil {
			t = trace.Nop
		}
		a.tracer = t
		a.parentSpan = parent
	}
}

// baseABI holds the collaborators and the target-independent behavior shared
// by all ABIs: natural IR types, the generic rewrites and default transforms.
type baseABI struct {
	target layout.Target
	types  *types.Interner
	layout *layout.LayoutEngine
	dl     llir.DataLayout

	tracer     trace.Tracer
	parentSpan uint64

	lltypes map[types.TypeID]llir.Type
}

func newBaseABI(target layout.Target, in *types.Interner, le *layout.LayoutEngine, dl llir.DataLayout) baseABI {
	return baseABI{
		target:  target,
		types:   in,
		layout:  le,
		dl:      dl,
		tracer:  trace.Nop,
		lltypes: make(map[types.TypeID]llir.Type),
	}
}

func (a *baseABI) sizeOf(t types.TypeID) int {
	size, err := a.layout.SizeOf(t)
	if err != nil {
		panic(layoutPanic(a.types, t, err))
	}
	return size
}

func (a *baseABI) alignOf(t types.TypeID) int {
	align, err := a.layout.AlignOf(t)
	if err != nil {
		panic(layoutPanic(a.types, t, err))
	}
	return align
}

func layoutPanic(in *types.Interner, t types.TypeID, err error) string {
	return fmt.Sprintf("abi: no layout for %s: %v", types.Label(in, t), err)
}

// byteCount converts a layout quantity for the builder.
func byteCount(n int) uint64 {
	v, err := safecast.Conv[uint64](n)
	if err != nil {
		panic(fmt.Sprintf("abi: invalid byte count %d: %v", n, err))
	}
	return v
}
