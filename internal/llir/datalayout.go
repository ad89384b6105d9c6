package llir

import "fmt"

// DataLayout answers size and alignment queries for LL types.
type DataLayout struct {
	// Layout is the LLVM data layout string of the target.
	Layout   string
	PtrSize  uint64
	PtrAlign uint64
	// MaxIntAlign caps the ABI alignment of wide integers (i128:128 on riscv64).
	MaxIntAlign uint64
}

// RISCV64 returns the data layout of riscv64 LP64D.
func RISCV64() DataLayout {
	return DataLayout{
		Layout:      "e-m:e-p:64:64-i64:64-i128:128-n32:64-S128",
		PtrSize:     8,
		PtrAlign:    8,
		MaxIntAlign: 16,
	}
}

// StoreSize is the number of bytes written by a store of t.
func (dl DataLayout) StoreSize(t Type) uint64 {
	switch tt := t.(type) {
	case IntType:
		return uint64(tt.Bits+7) / 8
	case FloatType:
		return dl.floatSize(tt)
	case VectorType:
		bits := tt.Len * dl.bitWidth(tt.Elem)
		return (bits + 7) / 8
	default:
		return dl.AllocSize(t)
	}
}

// AllocSize is the store size rounded up to the ABI alignment: the stride
// between consecutive values of t in memory.
func (dl DataLayout) AllocSize(t Type) uint64 {
	switch tt := t.(type) {
	case IntType, FloatType, VectorType:
		return alignTo(dl.StoreSize(t), dl.ABIAlign(t))
	case PointerType:
		return dl.PtrSize
	case VoidType:
		return 0
	case *StructType:
		sl := dl.structLayout(tt)
		return sl.size
	case ArrayType:
		return tt.Len * dl.AllocSize(tt.Elem)
	default:
		panic(fmt.Sprintf("llir: no size for %v", t))
	}
}

// ABIAlign is the ABI alignment of t in bytes.
func (dl DataLayout) ABIAlign(t Type) uint64 {
	switch tt := t.(type) {
	case IntType:
		a := uint64(1)
		for a*8 < uint64(tt.Bits) && a < dl.maxIntAlign() {
			a *= 2
		}
		return a
	case FloatType:
		return dl.floatSize(tt)
	case PointerType:
		return dl.PtrAlign
	case VoidType:
		return 1
	case *StructType:
		if tt.Packed {
			return 1
		}
		return dl.structLayout(tt).align
	case ArrayType:
		return dl.ABIAlign(tt.Elem)
	case VectorType:
		a := uint64(1)
		for a < dl.StoreSize(tt) {
			a *= 2
		}
		return a
	default:
		panic(fmt.Sprintf("llir: no alignment for %v", t))
	}
}

// ElemOffset returns the byte offset of element i of st.
func (dl DataLayout) ElemOffset(st *StructType, i int) uint64 {
	sl := dl.structLayout(st)
	if i < 0 || i >= len(sl.offsets) {
		panic(fmt.Sprintf("llir: element %d out of range for %v", i, st))
	}
	return sl.offsets[i]
}

type structLayout struct {
	offsets []uint64
	size    uint64
	align   uint64
}

func (dl DataLayout) structLayout(st *StructType) structLayout {
	sl := structLayout{offsets: make([]uint64, len(st.Elems)), align: 1}
	var off uint64
	for i, e := range st.Elems {
		a := uint64(1)
		if !st.Packed {
			a = dl.ABIAlign(e)
		}
		off = alignTo(off, a)
		sl.offsets[i] = off
		off += dl.AllocSize(e)
		sl.align = max(sl.align, a)
	}
	sl.size = alignTo(off, sl.align)
	return sl
}

func (dl DataLayout) floatSize(t FloatType) uint64 {
	switch t.Kind {
	case Half:
		return 2
	case Float:
		return 4
	case Double:
		return 8
	case FP128:
		return 16
	default:
		panic(fmt.Sprintf("llir: unknown float kind %d", t.Kind))
	}
}

func (dl DataLayout) bitWidth(t Type) uint64 {
	switch tt := t.(type) {
	case IntType:
		return uint64(tt.Bits)
	case FloatType:
		return dl.floatSize(tt) * 8
	case PointerType:
		return dl.PtrSize * 8
	default:
		return dl.AllocSize(t) * 8
	}
}

func (dl DataLayout) maxIntAlign() uint64 {
	if dl.MaxIntAlign == 0 {
		return 8
	}
	return dl.MaxIntAlign
}

func alignTo(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
