package abi

import (
	"fmt"

	"fortio.org/safecast"

	"rvabi/internal/llir"
	"rvabi/internal/types"
)

// LLType returns the natural IR type of t. Source structs become identified
// structs whose explicit byte padding reproduces the layout engine's field
// offsets and size.
func (a *baseABI) LLType(t types.TypeID) llir.Type {
	id, tt := a.types.Base(t)
	if cached, ok := a.lltypes[id]; ok {
		return cached
	}
	var out llir.Type
	switch tt.Kind {
	case types.KindVoid:
		out = llir.Void
	case types.KindBool:
		out = llir.I8
	case types.KindInt, types.KindUint:
		out = llir.Int(a.sizeOf(id) * 8)
	case types.KindFloat:
		out = a.floatType(tt.Width)
	case types.KindComplex:
		half := a.floatType(tt.Width)
		out = llir.Struct(half, half)
	case types.KindPointer, types.KindClass, types.KindFn:
		out = llir.Ptr
	case types.KindSlice:
		out = llir.Struct(llir.Int(a.target.PtrSize*8), llir.Ptr)
	case types.KindDelegate:
		out = llir.Struct(llir.Ptr, llir.Ptr)
	case types.KindArray:
		out = llir.ArrayType{Len: elemCount(tt.Count), Elem: a.LLType(tt.Elem)}
	case types.KindVector:
		out = llir.VectorType{Len: elemCount(tt.Count), Elem: a.LLType(tt.Elem)}
	case types.KindStruct:
		st := &llir.StructType{Name: a.structName(id)}
		// registered before the body so pointers back to it resolve
		a.lltypes[id] = st
		a.fillStruct(id, st)
		return st
	default:
		panic(fmt.Sprintf("abi: no IR type for %s", types.Label(a.types, id)))
	}
	a.lltypes[id] = out
	return out
}

func (a *baseABI) floatType(w types.Width) llir.Type {
	switch w {
	case types.Width32:
		return llir.F32
	case types.Width80:
		if a.target.RealIsQuad() {
			return llir.F128
		}
		return llir.F64
	default:
		return llir.F64
	}
}

func (a *baseABI) structName(id types.TypeID) string {
	if info, ok := a.types.StructInfo(id); ok && info.Name != "" {
		return info.Name
	}
	return fmt.Sprintf("struct.%d", id)
}

func (a *baseABI) fillStruct(id types.TypeID, st *llir.StructType) {
	fields, err := a.layout.Fields(id)
	if err != nil {
		panic(layoutPanic(a.types, id, err))
	}
	size := a.sizeOf(id)
	attrs, _ := a.types.TypeLayoutAttrs(id)
	dl := a.dl

	var elems []llir.Type
	off := 0
	natural := !attrs.Packed
	for _, f := range fields {
		if f.Offset > off {
			elems = append(elems, padding(f.Offset-off))
			off = f.Offset
		}
		ft := a.LLType(f.Type)
		elems = append(elems, ft)
		if natural && byteCount(off)%dl.ABIAlign(ft) != 0 {
			natural = false
		}
		off += a.sizeOf(f.Type)
	}
	if size > off {
		elems = append(elems, padding(size-off))
	}
	st.Elems = elems
	st.Packed = !natural
	if natural && dl.AllocSize(st) != byteCount(size) {
		st.Packed = true
	}
}

func elemCount(n uint32) uint64 {
	count, err := safecast.Conv[uint64](n)
	if err != nil {
		panic(fmt.Sprintf("abi: invalid element count %d", n))
	}
	return count
}

func padding(n int) llir.Type {
	count, err := safecast.Conv[uint64](n)
	if err != nil {
		panic(fmt.Sprintf("abi: invalid padding %d", n))
	}
	return llir.ArrayType{Len: count, Elem: llir.I8}
}
