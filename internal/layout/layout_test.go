package layout_test

import (
	"errors"
	"testing"

	"rvabi/internal/layout"
	"rvabi/internal/types"
)

func newEngine(t *testing.T) (*layout.LayoutEngine, *types.Interner) {
	t.Helper()
	in := types.NewInterner()
	return layout.New(layout.RISCV64LinuxGNU(), in), in
}

func mustLayout(t *testing.T, le *layout.LayoutEngine, id types.TypeID) layout.TypeLayout {
	t.Helper()
	l, err := le.LayoutOf(id)
	if err != nil {
		t.Fatalf("LayoutOf(%s): %v", types.Label(le.Types, id), err)
	}
	return l
}

func TestScalarLayouts(t *testing.T) {
	le, in := newEngine(t)
	b := in.Builtins()
	tests := []struct {
		id          types.TypeID
		size, align int
	}{
		{b.Bool, 1, 1},
		{b.Int8, 1, 1},
		{b.Int16, 2, 2},
		{b.Uint32, 4, 4},
		{b.Int64, 8, 8},
		{b.Float32, 4, 4},
		{b.Float64, 8, 8},
		{b.Real, 16, 16},
		{b.Complex32, 8, 4},
		{b.Complex64, 16, 8},
		{b.Complex80, 32, 16},
		{b.VoidPtr, 8, 8},
		{in.Intern(types.MakeSlice(b.Int8)), 16, 8},
		{in.Intern(types.MakeDelegate()), 16, 8},
		{in.Intern(types.MakeClass()), 8, 8},
		{in.Intern(types.MakeArray(b.Int16, 3)), 6, 2},
		{in.Intern(types.MakeVector(b.Float32, 4)), 16, 16},
		{in.Intern(types.MakeVector(b.Float32, 2)), 8, 8},
	}
	for _, tt := range tests {
		t.Run(types.Label(in, tt.id), func(t *testing.T) {
			l := mustLayout(t, le, tt.id)
			if l.Size != tt.size || l.Align != tt.align {
				t.Fatalf("got size=%d align=%d, want size=%d align=%d", l.Size, l.Align, tt.size, tt.align)
			}
		})
	}
}

func TestRealPrecisionDouble(t *testing.T) {
	in := types.NewInterner()
	tgt, err := layout.ParseTriple("riscv64-unknown-linux-gnu", layout.RealDouble)
	if err != nil {
		t.Fatal(err)
	}
	le := layout.New(tgt, in)
	l := mustLayout(t, le, in.Builtins().Complex80)
	if l.Size != 16 || l.Align != 8 {
		t.Fatalf("complex80 with double real: size=%d align=%d", l.Size, l.Align)
	}
}

func TestStructLayoutPaddingAndOffsets(t *testing.T) {
	le, in := newEngine(t)
	b := in.Builtins()
	s := in.RegisterStruct("S")
	in.SetStructFields(s, []types.StructField{
		{Name: "a", Type: b.Uint8},
		{Name: "b", Type: b.Float64},
		{Name: "c", Type: b.Int16},
	})
	l := mustLayout(t, le, s)
	if l.Size != 24 || l.Align != 8 {
		t.Fatalf("size=%d align=%d", l.Size, l.Align)
	}
	want := []int{0, 8, 16}
	for i, off := range want {
		if l.FieldOffsets[i] != off {
			t.Fatalf("field %d offset=%d want %d", i, l.FieldOffsets[i], off)
		}
	}

	fields, err := le.Fields(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 3 || fields[1].Type != b.Float64 || fields[1].Offset != 8 {
		t.Fatalf("unexpected fields %+v", fields)
	}
}

func TestPackedStruct(t *testing.T) {
	le, in := newEngine(t)
	b := in.Builtins()
	s := in.RegisterStruct("P")
	in.SetStructFields(s, []types.StructField{
		{Name: "tag", Type: b.Uint8},
		{Name: "v", Type: b.Float64},
	})
	if err := in.SetTypeLayoutAttrs(s, types.LayoutAttrs{Packed: true}); err != nil {
		t.Fatal(err)
	}
	l := mustLayout(t, le, s)
	if l.Size != 9 || l.Align != 1 || l.FieldOffsets[1] != 1 {
		t.Fatalf("packed layout: %+v", l)
	}
}

func TestAlignOverrides(t *testing.T) {
	le, in := newEngine(t)
	b := in.Builtins()
	s := in.RegisterStruct("A16")
	in.SetStructFields(s, []types.StructField{
		{Name: "lo", Type: b.Int64},
		{Name: "hi", Type: b.Int64},
	})
	if err := in.SetTypeLayoutAttrs(s, types.LayoutAttrs{AlignOverride: types.Align(16)}); err != nil {
		t.Fatal(err)
	}
	if l := mustLayout(t, le, s); l.Size != 16 || l.Align != 16 {
		t.Fatalf("align(16) struct: %+v", l)
	}

	f := in.RegisterStruct("F")
	in.SetStructFields(f, []types.StructField{
		{Name: "a", Type: b.Int32},
		{Name: "b", Type: b.Int32, Layout: types.FieldLayoutAttrs{AlignOverride: types.Align(8)}},
	})
	if l := mustLayout(t, le, f); l.Size != 16 || l.FieldOffsets[1] != 8 {
		t.Fatalf("field align(8): %+v", l)
	}
}

func TestEmptyStructOccupiesOneByte(t *testing.T) {
	le, in := newEngine(t)
	s := in.RegisterStruct("Empty")
	if l := mustLayout(t, le, s); l.Size != 1 || l.Align != 1 {
		t.Fatalf("empty struct: %+v", l)
	}
}

func TestAliasSharesLayout(t *testing.T) {
	le, in := newEngine(t)
	a := in.RegisterAlias("meters")
	in.SetAliasTarget(a, in.Builtins().Float64)
	if l := mustLayout(t, le, a); l.Size != 8 || l.Align != 8 {
		t.Fatalf("alias layout: %+v", l)
	}
}

func TestRecursiveStructReportsCycle(t *testing.T) {
	le, in := newEngine(t)
	node := in.RegisterStruct("Node")
	inner := in.RegisterStruct("Inner")
	in.SetStructFields(node, []types.StructField{{Name: "in", Type: inner}})
	in.SetStructFields(inner, []types.StructField{{Name: "back", Type: node}})

	_, err := le.LayoutOf(node)
	var lerr *layout.LayoutError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *layout.LayoutError, got %T (%v)", err, err)
	}
	if lerr.Kind != layout.LayoutErrRecursiveUnsized {
		t.Fatalf("expected LayoutErrRecursiveUnsized, got kind=%d (%v)", lerr.Kind, lerr)
	}
	if len(lerr.Cycle) != 3 || lerr.Cycle[0] != node || lerr.Cycle[2] != node {
		t.Fatalf("unexpected cycle path %v", lerr.Cycle)
	}

	// A pointer breaks the cycle.
	list := in.RegisterStruct("List")
	in.SetStructFields(list, []types.StructField{{Name: "next", Type: in.Intern(types.MakePointer(list))}})
	if _, err := le.LayoutOf(list); err != nil {
		t.Fatalf("pointer recursion must be sized: %v", err)
	}
}

func TestInvalidAlignOverride(t *testing.T) {
	le, in := newEngine(t)
	s := in.RegisterStruct("Bad")
	in.SetStructFields(s, []types.StructField{{Name: "v", Type: in.Builtins().Int8}})
	if err := in.SetTypeLayoutAttrs(s, types.LayoutAttrs{AlignOverride: types.Align(12)}); err != nil {
		t.Fatal(err)
	}
	_, err := le.LayoutOf(s)
	var lerr *layout.LayoutError
	if !errors.As(err, &lerr) || lerr.Kind != layout.LayoutErrInvalidAlign || lerr.Value != 12 {
		t.Fatalf("expected invalid align error, got %v", err)
	}
}

func TestOversizedTypesAreRejected(t *testing.T) {
	le, in := newEngine(t)
	u8 := in.Builtins().Uint8
	nest := func(elem types.TypeID, counts ...uint32) types.TypeID {
		for i := len(counts) - 1; i >= 0; i-- {
			elem = in.Intern(types.MakeArray(elem, counts[i]))
		}
		return elem
	}
	wrapping := nest(u8, 65536, 65536, 65536, 65536)
	quarter := nest(u8, 65536, 65536, 16384)

	huge := in.RegisterStruct("Huge")
	in.SetStructFields(huge, []types.StructField{
		{Name: "x", Type: in.Builtins().Float32},
		{Name: "a", Type: wrapping},
	})
	wide := in.RegisterStruct("Wide")
	in.SetStructFields(wide, []types.StructField{
		{Name: "a", Type: quarter},
		{Name: "b", Type: quarter},
		{Name: "c", Type: quarter},
	})
	widePacked := in.RegisterStruct("WidePacked")
	in.SetStructFields(widePacked, []types.StructField{
		{Name: "a", Type: quarter},
		{Name: "b", Type: quarter},
		{Name: "c", Type: quarter},
	})
	if err := in.SetTypeLayoutAttrs(widePacked, types.LayoutAttrs{Packed: true}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		id   types.TypeID
	}{
		{"product wraps", wrapping},
		{"product over bound", nest(u8, 65536, 65536, 65536)},
		{"struct with wrapping field", huge},
		{"field sum over bound", wide},
		{"packed field sum over bound", widePacked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := le.LayoutOf(tt.id)
			var lerr *layout.LayoutError
			if !errors.As(err, &lerr) || lerr.Kind != layout.LayoutErrLengthConversion {
				t.Fatalf("LayoutOf(%s) = size %d, %v; want a size error", types.Label(in, tt.id), l.Size, err)
			}
		})
	}

	if l := mustLayout(t, le, quarter); l.Size != 1<<46 {
		t.Fatalf("[65536][65536][16384]u8 size = %d, want %d", l.Size, 1<<46)
	}
}

func TestParseTriple(t *testing.T) {
	tests := []struct {
		triple string
		os     layout.OS
		ptr    int
		wantOK bool
	}{
		{"riscv64-unknown-linux-gnu", layout.OSLinux, 8, true},
		{"riscv64-unknown-freebsd14.0", layout.OSFreeBSD, 8, true},
		{"riscv64-unknown-elf", layout.OSFreestanding, 8, true},
		{"riscv32-unknown-linux-gnu", layout.OSLinux, 4, true},
		{"x86_64-apple-darwin", layout.OSDarwin, 8, true},
		{"mips64-unknown-linux", layout.OSLinux, 0, false},
		{"garbage", layout.OSFreestanding, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.triple, func(t *testing.T) {
			tgt, err := layout.ParseTriple(tt.triple, layout.RealDefault)
			if (err == nil) != tt.wantOK {
				t.Fatalf("err=%v wantOK=%v", err, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if tgt.OS != tt.os || tgt.PtrSize != tt.ptr {
				t.Fatalf("got os=%v ptr=%d", tgt.OS, tgt.PtrSize)
			}
		})
	}
}
