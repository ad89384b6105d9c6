package layout

import (
	"fmt"
	"math/bits"

	"fortio.org/safecast"

	"rvabi/internal/types"
)

// MaxObjectSize bounds every computed size. riscv64 user space spans at most
// 2^47 bytes under sv48, so no larger object can be addressed.
const MaxObjectSize = 1 << 47

func sizeError(id types.TypeID, what string) *LayoutError {
	return &LayoutError{
		Kind: LayoutErrLengthConversion,
		Type: id,
		Err:  fmt.Errorf("%s exceeds %d bytes", what, MaxObjectSize),
	}
}

func (e *LayoutEngine) computeLayout(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	if id == types.NoTypeID || e.Types == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	tt, ok := e.Types.Lookup(id)
	if !ok {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownType, Type: id}
	}

	switch tt.Kind {
	case types.KindVoid:
		return TypeLayout{Size: 0, Align: 1}, nil

	case types.KindBool:
		return TypeLayout{Size: 1, Align: 1}, nil

	case types.KindInt, types.KindUint:
		if tt.Width == types.WidthAny {
			return e.ptrLayout(), nil
		}
		return scalarLayoutBytes(int(tt.Width) / 8), nil

	case types.KindFloat:
		return e.floatLayout(tt.Width), nil

	case types.KindComplex:
		half := e.floatLayout(tt.Width)
		return TypeLayout{Size: 2 * half.Size, Align: half.Align}, nil

	case types.KindPointer, types.KindClass, types.KindFn:
		return e.ptrLayout(), nil

	case types.KindSlice, types.KindDelegate:
		// length/context word followed by a pointer
		ptr := e.ptrLayout()
		return TypeLayout{Size: 2 * ptr.Size, Align: ptr.Align}, nil

	case types.KindArray:
		return e.arrayFixedLayout(id, tt.Elem, tt.Count, state)

	case types.KindVector:
		el, err := e.layoutOf(tt.Elem, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		n, cerr := safecast.Conv[int](tt.Count)
		if cerr != nil {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: id, Err: cerr}
		}
		size := el.Size * n
		align := 1
		for align < size && align < 16 {
			align *= 2
		}
		return TypeLayout{Size: roundUp(size, align), Align: align}, nil

	case types.KindStruct:
		return e.structLayoutWithAttrs(id, state)

	default:
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownType, Type: id}
	}
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func (e *LayoutEngine) floatLayout(w types.Width) TypeLayout {
	if w == types.Width80 {
		size, align := e.Target.RealSize, e.Target.RealAlign
		if size <= 0 {
			size, align = 16, 16
		}
		return TypeLayout{Size: size, Align: align}
	}
	if w == types.WidthAny {
		return scalarLayoutBytes(8)
	}
	return scalarLayoutBytes(int(w) / 8)
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func (e *LayoutEngine) arrayFixedLayout(id, elem types.TypeID, length uint32, state *layoutState) (TypeLayout, *LayoutError) {
	elemLayout, err := e.layoutOf(elem, state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	elemAlign := max(elemLayout.Align, 1)
	stride := roundUp(elemLayout.Size, elemAlign)
	ustride, cerr := safecast.Conv[uint64](stride)
	if cerr != nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: id, Err: cerr}
	}
	hi, lo := bits.Mul64(ustride, uint64(length))
	if hi != 0 || lo > MaxObjectSize {
		return TypeLayout{Size: 0, Align: 1}, sizeError(id, fmt.Sprintf("%d elements of %d bytes", length, stride))
	}
	return TypeLayout{
		Size:  int(lo),
		Align: elemAlign,
	}, nil
}

func (e *LayoutEngine) structLayoutWithAttrs(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	attrs, _ := e.Types.TypeLayoutAttrs(id)
	if attrs.AlignOverride != nil && !isPow2(*attrs.AlignOverride) {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrInvalidAlign, Type: id, Value: int64(*attrs.AlignOverride)}
	}

	info, ok := e.Types.StructInfo(id)
	if !ok || info == nil || len(info.Fields) == 0 {
		// an empty struct still occupies one byte
		align := 1
		if attrs.AlignOverride != nil {
			align = *attrs.AlignOverride
		}
		return TypeLayout{Size: roundUp(1, align), Align: align}, nil
	}
	fields := info.Fields
	offsets := make([]int, len(fields))
	aligns := make([]int, len(fields))

	if attrs.Packed {
		size := 0
		for i := range fields {
			fl, err := e.layoutOf(fields[i].Type, state)
			if err != nil {
				return TypeLayout{Size: 0, Align: 1}, err
			}
			offsets[i] = size
			aligns[i] = 1
			size += fl.Size
			if size > MaxObjectSize {
				return TypeLayout{Size: 0, Align: 1}, sizeError(id, "struct size")
			}
		}
		return TypeLayout{
			Size:         size,
			Align:        1,
			FieldOffsets: offsets,
			FieldAligns:  aligns,
		}, nil
	}

	size := 0
	align := 1
	for i := range fields {
		fl, err := e.layoutOf(fields[i].Type, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := fl.Align
		if over := fields[i].Layout.AlignOverride; over != nil {
			if !isPow2(*over) {
				return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrInvalidAlign, Type: id, Value: int64(*over)}
			}
			fAlign = max(fAlign, *over)
		}
		if fAlign <= 0 {
			fAlign = 1
		}
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		size += fl.Size
		if size > MaxObjectSize {
			return TypeLayout{Size: 0, Align: 1}, sizeError(id, "struct size")
		}
		align = max(align, fAlign)
	}

	if attrs.AlignOverride != nil {
		align = max(align, *attrs.AlignOverride)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}, nil
}
