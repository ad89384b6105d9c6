package abi

import (
	"fmt"

	"rvabi/internal/llir"
)

// Rewrite selects how an argument deviates from its natural representation.
// The set is closed; every switch over it is exhaustive.
type Rewrite uint8

const (
	// RewriteNone passes the value in its natural IR type.
	RewriteNone Rewrite = iota
	// RewriteHardfloat passes a struct as a record of at most two scalars so
	// floating-point members land in FP argument registers.
	RewriteHardfloat
	// RewriteIndirectByval passes the address of a caller-made copy.
	RewriteIndirectByval
	// RewriteInteger reinterprets the bits as one integer, or an i64 followed
	// by a smaller integer above 8 bytes.
	RewriteInteger
	// RewriteInteger2 reinterprets the bits as a pair of i64.
	RewriteInteger2
)

func (r Rewrite) String() string {
	switch r {
	case RewriteNone:
		return "none"
	case RewriteHardfloat:
		return "hardfloat"
	case RewriteIndirectByval:
		return "indirect-byval"
	case RewriteInteger:
		return "integer"
	case RewriteInteger2:
		return "integer2"
	default:
		return fmt.Sprintf("Rewrite(%d)", uint8(r))
	}
}

// abiType is the IR type an argument of source type arg.Type travels as
// under r.
func (a *baseABI) abiType(r Rewrite, arg *Arg) llir.Type {
	switch r {
	case RewriteNone:
		return a.LLType(arg.Type)
	case RewriteHardfloat:
		return a.hardfloatType(arg.Type)
	case RewriteIndirectByval:
		return llir.Ptr
	case RewriteInteger:
		return integerType(a.sizeOf(arg.Type))
	case RewriteInteger2:
		return llir.Struct(llir.I64, llir.I64)
	default:
		panic(fmt.Sprintf("abi: unknown rewrite %d", uint8(r)))
	}
}

// applyTo attaches r to arg and switches its IR type to the ABI-facing type.
func (a *baseABI) applyTo(arg *Arg, r Rewrite) {
	arg.LLType = a.abiType(r, arg)
	arg.Rewrite = r
	if r == RewriteIndirectByval {
		arg.Attrs |= AttrNoAlias | AttrNoCapture
	}
}

// applyToIfNotObsolete applies r unless the argument already travels as the
// rewritten type.
func (a *baseABI) applyToIfNotObsolete(arg *Arg, r Rewrite) bool {
	if arg.LLType != nil && llir.Equal(a.abiType(r, arg), arg.LLType) {
		return false
	}
	a.applyTo(arg, r)
	return true
}

// Put converts dv into the shape arg travels as.
func (a *baseABI) Put(b llir.Builder, arg *Arg, dv DValue) llir.Value {
	if arg.ByRef {
		return a.addressOf(b, dv)
	}
	switch arg.Rewrite {
	case RewriteNone:
		if dv.IsLVal() {
			return b.Load(a.LLType(arg.Type), dv.Addr(), "")
		}
		return dv.Value()
	case RewriteHardfloat:
		return a.hardfloatPut(b, arg, dv)
	case RewriteIndirectByval:
		return a.indirectPut(b, arg, dv)
	case RewriteInteger, RewriteInteger2:
		return a.bitcastPut(b, arg, dv)
	default:
		panic(fmt.Sprintf("abi: unknown rewrite %d", uint8(arg.Rewrite)))
	}
}

// GetLVal turns the incoming v back into storage holding the source value.
func (a *baseABI) GetLVal(b llir.Builder, arg *Arg, v llir.Value) llir.Value {
	if arg.ByRef {
		return v
	}
	switch arg.Rewrite {
	case RewriteNone:
		return b.AllocaDump(v, a.LLType(arg.Type), byteCount(a.alignOf(arg.Type)), "")
	case RewriteHardfloat:
		return a.hardfloatGetLVal(b, arg, v)
	case RewriteIndirectByval:
		return v
	case RewriteInteger, RewriteInteger2:
		return a.bitcastGetLVal(b, arg, v)
	default:
		panic(fmt.Sprintf("abi: unknown rewrite %d", uint8(arg.Rewrite)))
	}
}

// GetRVal loads the source value out of GetLVal's storage.
func (a *baseABI) GetRVal(b llir.Builder, arg *Arg, v llir.Value) llir.Value {
	return b.Load(a.LLType(arg.Type), a.GetLVal(b, arg, v), "")
}

// addressOf returns the address of dv, spilling rvalues to fresh storage.
func (a *baseABI) addressOf(b llir.Builder, dv DValue) llir.Value {
	if dv.IsLVal() {
		return dv.Addr()
	}
	return b.AllocaDump(dv.Value(), a.LLType(dv.Type), byteCount(a.alignOf(dv.Type)), "")
}
