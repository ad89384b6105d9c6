package llir

import (
	"bytes"
	"strings"
	"testing"
)

func TestDataLayoutSizes(t *testing.T) {
	dl := RISCV64()
	tests := []struct {
		ty           Type
		store, alloc uint64
		align        uint64
	}{
		{I1, 1, 1, 1},
		{I8, 1, 1, 1},
		{Int(24), 3, 4, 4},
		{I64, 8, 8, 8},
		{Int(128), 16, 16, 16},
		{F32, 4, 4, 4},
		{F64, 8, 8, 8},
		{F128, 16, 16, 16},
		{Ptr, 8, 8, 8},
		{Struct(F32, F32), 8, 8, 4},
		{Struct(I8, F64), 16, 16, 8},
		{&StructType{Elems: []Type{I8, F64}, Packed: true}, 9, 9, 1},
		{Struct(I64, Int(32)), 16, 16, 8},
		{ArrayType{Len: 3, Elem: I16}, 6, 6, 2},
		{VectorType{Len: 4, Elem: F32}, 16, 16, 16},
	}
	for _, tt := range tests {
		t.Run(tt.ty.String(), func(t *testing.T) {
			if got := dl.StoreSize(tt.ty); got != tt.store {
				t.Errorf("StoreSize = %d, want %d", got, tt.store)
			}
			if got := dl.AllocSize(tt.ty); got != tt.alloc {
				t.Errorf("AllocSize = %d, want %d", got, tt.alloc)
			}
			if got := dl.ABIAlign(tt.ty); got != tt.align {
				t.Errorf("ABIAlign = %d, want %d", got, tt.align)
			}
		})
	}
}

func TestElemOffset(t *testing.T) {
	dl := RISCV64()
	st := Struct(I8, F64, I16)
	want := []uint64{0, 8, 16}
	for i, w := range want {
		if got := dl.ElemOffset(st, i); got != w {
			t.Errorf("ElemOffset(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestTypeStrings(t *testing.T) {
	tests := []struct {
		ty   Type
		want string
	}{
		{Struct(F32, F32), "{ float, float }"},
		{Struct(), "{}"},
		{&StructType{Elems: []Type{I8, F64}, Packed: true}, "<{ i8, double }>"},
		{ArrayType{Len: 2, Elem: I32}, "[2 x i32]"},
		{VectorType{Len: 4, Elem: F32}, "<4 x float>"},
		{F128, "fp128"},
	}
	for _, tt := range tests {
		if got := tt.ty.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if !Equal(Struct(I64, I64), Struct(I64, I64)) {
		t.Errorf("structurally equal literal structs must compare equal")
	}
	if Equal(Struct(I64), I64) {
		t.Errorf("{ i64 } and i64 are distinct types")
	}
}

func TestTextBuilderEmitsIR(t *testing.T) {
	b := NewTextBuilder(RISCV64())
	st := Struct(F32, F32)
	src := Local(Ptr, "p")
	buf := b.RawAlloca(st, 4, "buf")
	elem := b.GEP(st, buf, 0, 1)
	field := b.GEP1(I8, src, 4)
	b.MemCpy(elem, field, 4)
	v := b.Load(st, buf, "v")

	out := b.String()
	for _, want := range []string{
		"%buf1 = alloca { float, float }, align 4",
		"%t2 = getelementptr inbounds { float, float }, ptr %buf1, i32 0, i32 1",
		"%t3 = getelementptr inbounds i8, ptr %p, i64 4",
		"call void @llvm.memcpy.p0.p0.i64(ptr align 1 %t2, ptr align 1 %t3, i64 4, i1 false)",
		"%v4 = load { float, float }, ptr %buf1, align 4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if v.Type().String() != st.String() {
		t.Errorf("load type = %v", v.Type())
	}
	if !strings.Contains(b.Declarations(), "declare void @llvm.memcpy.p0.p0.i64") {
		t.Errorf("memcpy declaration missing")
	}
}

func TestMachineMemoryOps(t *testing.T) {
	m := NewMachine(RISCV64())
	st := Struct(I32, I32)
	src := m.Alloc(8, 4, "src", []byte{1, 2, 3, 4, 5, 6, 7, 8})
	dst := m.RawAlloca(st, 4, "dst")

	m.MemCpy(m.GEP(st, dst, 0, 1), m.GEP1(I8, src, 0), 4)
	got := m.Read(dst, 8)
	want := []byte{0xAA, 0xAA, 0xAA, 0xAA, 1, 2, 3, 4}
	if !bytes.Equal(got, want) {
		t.Fatalf("memory = %x, want %x", got, want)
	}

	v := m.Load(I64, src, "")
	back := m.AllocaDump(v, I64, 8, "back")
	if !bytes.Equal(m.Read(back, 8), []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("dump mismatch: %x", m.Read(back, 8))
	}
}

func TestMachinePointerValuesRoundTrip(t *testing.T) {
	m := NewMachine(RISCV64())
	target := m.Alloc(4, 4, "target", []byte{9, 9, 9, 9})
	slot := m.RawAlloca(Ptr, 8, "slot")
	m.Store(m.GEP1(I8, target, 2), slot)
	loaded, ok := m.Load(Ptr, slot, "").(*Pointer)
	if !ok || loaded.Block != target.Block || loaded.Off != 2 {
		t.Fatalf("pointer did not survive memory: %v", loaded)
	}
}

func TestMachinePanicsOnOverrun(t *testing.T) {
	m := NewMachine(RISCV64())
	p := m.Alloc(4, 4, "small", nil)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on out-of-bounds load")
		}
	}()
	m.Load(I64, p, "")
}

func TestIdentifiedStructs(t *testing.T) {
	inner := &StructType{Name: "Vec2", Elems: []Type{F32, F32}}
	outer := &StructType{Name: "Pair", Elems: []Type{inner, I64}}
	if Equal(inner, Struct(F32, F32)) {
		t.Fatalf("identified struct must differ from its literal body")
	}
	want := "%Vec2 = type { float, float }\n%Pair = type { %Vec2, i64 }\n"
	if got := TypeDefs(outer, inner); got != want {
		t.Fatalf("TypeDefs = %q, want %q", got, want)
	}
	if got := RISCV64().AllocSize(outer); got != 16 {
		t.Fatalf("AllocSize = %d, want 16", got)
	}
}

func TestTextBuilderCall(t *testing.T) {
	b := NewTextBuilder(RISCV64())
	p := Local(Ptr, "p")
	v := b.Call(I32, "i32 (ptr, ...)", "printf", []CallArg{{V: p, Attrs: "noundef"}, {V: Local(F64, "x")}})
	if none := b.Call(Void, "", "free", []CallArg{{V: p}}); none != nil {
		t.Fatalf("void call returned %v", none)
	}
	b.Ret(v)
	b.Ret(nil)

	want := "  %call1 = call i32 (ptr, ...) @printf(ptr noundef %p, double %x)\n" +
		"  call void @free(ptr %p)\n" +
		"  ret i32 %call1\n" +
		"  ret void\n"
	if got := b.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}
