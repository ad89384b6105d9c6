package abi

import (
	"rvabi/internal/layout"
	"rvabi/internal/llir"
	"rvabi/internal/types"
)

// RISCV64 implements the LP64D calling convention of 64-bit RISC-V.
//
// Small structs whose flattened form holds a float travel in FP registers
// (hardfloat), complex80 goes through memory, other aggregates of at most 16
// bytes are reinterpreted as integers, and everything else is handled by
// ReturnInArg/PassByVal or left as is.
type RISCV64 struct {
	baseABI
}

var _ TargetABI = (*RISCV64)(nil)

// NewRISCV64 returns the riscv64 ABI over the given type collaborators.
func NewRISCV64(target layout.Target, in *types.Interner, le *layout.LayoutEngine, opts ...Option) *RISCV64 {
	abi := &RISCV64{baseABI: newBaseABI(target, in, le, llir.RISCV64())}
	for _, opt := range opts {
		opt(&abi.baseABI)
	}
	return abi
}

// DefaultUnwindTableKind is async on Linux and none elsewhere.
func (abi *RISCV64) DefaultUnwindTableKind() UnwindTableKind {
	if abi.target.OS == layout.OSLinux {
		return UnwindAsync
	}
	return UnwindNone
}

// VaListType is void*.
func (abi *RISCV64) VaListType() types.TypeID {
	return abi.types.Builtins().VoidPtr
}

// ReturnInArg reports true for non-POD results and results above 16 bytes.
func (abi *RISCV64) ReturnInArg(fn *types.FnInfo, _ bool) bool {
	if fn == nil || fn.RefResult {
		return false
	}
	rt := fn.Result
	return !abi.types.IsPOD(rt) || abi.sizeOf(rt) > 16
}

// PassByVal reports true for POD types above 16 bytes, except complex80
// which is rewritten to an indirect copy instead.
func (abi *RISCV64) PassByVal(_ *types.FnInfo, t types.TypeID) bool {
	_, tt := abi.types.Base(t)
	if tt.IsComplex80() {
		return false
	}
	return abi.types.IsPOD(t) && abi.sizeOf(t) > 16
}

// RewriteFunctionType classifies the result and the by-value parameters.
func (abi *RISCV64) RewriteFunctionType(fty *FuncTy) {
	rewriteFunctionType(abi, fty)
}

// RewriteVarargs classifies by-value C varargs. Varargs never use FP
// registers.
func (abi *RISCV64) RewriteVarargs(fty *FuncTy, args []*Arg) {
	for _, arg := range args {
		if !arg.ByRef {
			abi.rewriteArgument(fty, arg, true)
		}
	}
}

// RewriteArgument classifies one parameter or the result.
func (abi *RISCV64) RewriteArgument(fty *FuncTy, arg *Arg) {
	abi.rewriteArgument(fty, arg, false)
}

func (abi *RISCV64) rewriteArgument(_ *FuncTy, arg *Arg, vararg bool) {
	if arg.ByRef {
		return
	}
	abi.rewriteArgumentDefault(arg)
	if arg.Rewrite != RewriteNone {
		abi.traceDecision(arg, vararg, "non-pod")
		return
	}

	if !vararg && abi.requireHardfloat(arg.Type) {
		abi.applyTo(arg, RewriteHardfloat)
		abi.traceDecision(arg, vararg, "float slots")
		return
	}

	_, tt := abi.types.Base(arg.Type)
	if tt.IsComplex80() {
		// {real, real} goes through memory
		abi.applyTo(arg, RewriteIndirectByval)
		abi.traceDecision(arg, vararg, "complex80")
		return
	}

	if abi.types.IsAggregate(arg.Type) {
		if size := abi.sizeOf(arg.Type); size > 0 && size <= 16 {
			if size > 8 && abi.alignOf(arg.Type) < 16 {
				// {i64, i64} keeps the pair in an aligned register pair
				abi.applyToIfNotObsolete(arg, RewriteInteger2)
				abi.traceDecision(arg, vararg, "two eightbytes")
			} else {
				abi.applyToIfNotObsolete(arg, RewriteInteger)
				abi.traceDecision(arg, vararg, "integer")
			}
			return
		}
	}
	abi.traceDecision(arg, vararg, "natural")
}
