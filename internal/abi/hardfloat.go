package abi

import (
	"fmt"

	"rvabi/internal/llir"
	"rvabi/internal/types"
)

// requireHardfloat reports whether t is passed through FP registers: a struct
// (or a bare complex32/complex64) flattening to one or two slots of which at
// least one is floating-point.
func (a *baseABI) requireHardfloat(t types.TypeID) bool {
	_, tt := a.types.Base(t)
	switch {
	case tt.Kind == types.KindStruct:
	case tt.Kind == types.KindComplex && (tt.Width == types.Width32 || tt.Width == types.Width64):
	default:
		return false
	}
	ff := a.Flatten(t)
	return ff.Outcome == FlatSlots && a.hasFloatSlot(ff)
}

// hardfloatType is the record of t's flattened slots. Float slots keep their
// type, other slots become integers of the slot's width.
func (a *baseABI) hardfloatType(t types.TypeID) *llir.StructType {
	ff := a.Flatten(t)
	if ff.Outcome != FlatSlots {
		panic(fmt.Sprintf("abi: hardfloat rewrite of %s, which flattens to %s", types.Label(a.types, t), ff.Outcome))
	}
	slots := ff.Slots()
	elems := make([]llir.Type, len(slots))
	for i, s := range slots {
		if a.types.IsFloating(s.Type) {
			elems[i] = a.LLType(s.Type)
		} else {
			elems[i] = llir.Int(a.sizeOf(s.Type) * 8)
		}
	}
	return llir.Struct(elems...)
}

func (a *baseABI) hardfloatPut(b llir.Builder, arg *Arg, dv DValue) llir.Value {
	if !dv.IsLVal() {
		panic(fmt.Sprintf("abi: hardfloat rewrite of %s needs an lvalue", types.Label(a.types, arg.Type)))
	}
	ff := a.Flatten(arg.Type)
	asType := a.hardfloatType(arg.Type)
	dl := b.DataLayout()
	addr := dv.Addr()
	buf := b.RawAlloca(asType, dl.ABIAlign(asType), "hardfloat_arg_storage")
	for i, s := range ff.Slots() {
		b.MemCpy(
			b.GEP(asType, buf, 0, i),
			b.GEP1(llir.I8, addr, byteCount(s.Offset)),
			byteCount(a.sizeOf(s.Type)),
		)
	}
	return b.Load(asType, buf, "hardfloat_arg")
}

func (a *baseABI) hardfloatGetLVal(b llir.Builder, arg *Arg, v llir.Value) llir.Value {
	ff := a.Flatten(arg.Type)
	asType := a.hardfloatType(arg.Type)
	dl := b.DataLayout()
	buf := b.AllocaDump(v, asType, dl.ABIAlign(asType), "hardfloat_param")
	ret := b.RawAlloca(a.LLType(arg.Type), byteCount(a.alignOf(arg.Type)), "hardfloat_param_storage")
	for i, s := range ff.Slots() {
		b.MemCpy(
			b.GEP1(llir.I8, ret, byteCount(s.Offset)),
			b.GEP(asType, buf, 0, i),
			byteCount(a.sizeOf(s.Type)),
		)
	}
	return ret
}
