package abi

import (
	"bytes"
	"strings"
	"testing"

	"rvabi/internal/llir"
	"rvabi/internal/types"
)

// storeImage allocates the memory image of t filled with a byte pattern.
func (w *world) storeImage(m *llir.Machine, t types.TypeID) (*llir.Pointer, []byte) {
	size := w.size(t)
	img := pattern(size)
	return m.Alloc(byteCount(size), byteCount(w.align(t)), "src", img), img
}

func TestHardfloatRoundTrip(t *testing.T) {
	w := newWorld(t)
	b := w.b
	corpus := []types.TypeID{
		w.strct("Vec2", b.Float32, b.Float32),
		w.strct("F", b.Float32),
		w.strct("DI", b.Float64, b.Int32),
		w.strct("BD", b.Uint8, b.Float64),
		w.strct("SF", b.Int16, b.Float32),
		w.packed("P", b.Uint8, b.Float64),
		w.strct("N", w.strct("A", b.Float32), w.strct("B", b.Float64)),
		w.strct("C", b.Complex32),
		w.strct("E", w.strct("Empty"), b.Float64),
		w.strct("V", w.vector(b.Float32, 2)),
		w.strct("VD", w.vector(b.Float32, 2), b.Float64),
		w.strct("DV", b.Float32, w.vector(b.Float32, 2)),
		b.Complex32,
		b.Complex64,
	}
	for _, typ := range corpus {
		t.Run(types.Label(w.in, typ), func(t *testing.T) {
			m := newMachine()
			arg := w.classify(typ)
			if arg.Rewrite != RewriteHardfloat {
				t.Fatalf("rewrite = %s, want hardfloat", arg.Rewrite)
			}
			src, img := w.storeImage(m, typ)
			abiVal := w.abi.Put(m, arg, LVal(typ, src))
			if !llir.Equal(abiVal.Type(), arg.LLType) {
				t.Fatalf("Put produced %s, want %s", abiVal.Type(), arg.LLType)
			}
			back := w.abi.GetLVal(m, arg, abiVal)
			got := m.Read(back, byteCount(len(img)))

			covered := make([]bool, len(img))
			for _, s := range w.abi.Flatten(typ).Slots() {
				end := s.Offset + w.size(s.Type)
				if !bytes.Equal(got[s.Offset:end], img[s.Offset:end]) {
					t.Fatalf("slot at %d: got %x, want %x", s.Offset, got[s.Offset:end], img[s.Offset:end])
				}
				for i := s.Offset; i < end; i++ {
					covered[i] = true
				}
			}
			// bytes outside the slots are not carried
			for i, c := range covered {
				if !c && got[i] != m.Fill {
					t.Fatalf("padding byte %d = %#x, want untouched fill", i, got[i])
				}
			}
		})
	}
}

func TestHardfloatInverseRoundTrip(t *testing.T) {
	w := newWorld(t)
	b := w.b
	for _, typ := range []types.TypeID{
		w.strct("BD", b.Uint8, b.Float64),
		w.packed("P", b.Uint16, b.Float64),
		w.strct("VD", w.vector(b.Float32, 2), b.Float64),
		b.Complex64,
	} {
		t.Run(types.Label(w.in, typ), func(t *testing.T) {
			m := newMachine()
			dl := m.DataLayout()
			arg := w.classify(typ)
			st, ok := arg.LLType.(*llir.StructType)
			if !ok {
				t.Fatalf("abi type %s is not a record", arg.LLType)
			}
			in := m.Value(st, pattern(int(dl.StoreSize(st))))
			storage := w.abi.GetLVal(m, arg, in)
			out, ok := w.abi.Put(m, arg, LVal(typ, storage)).(*llir.Bits)
			if !ok {
				t.Fatalf("Put did not produce bits")
			}
			for i, e := range st.Elems {
				off, n := dl.ElemOffset(st, i), dl.StoreSize(e)
				if !bytes.Equal(out.Data[off:off+n], in.Data[off:off+n]) {
					t.Fatalf("element %d: got %x, want %x", i, out.Data[off:off+n], in.Data[off:off+n])
				}
			}
		})
	}
}

func TestHardfloatPutRequiresLValue(t *testing.T) {
	w := newWorld(t)
	vec2 := w.strct("Vec2", w.b.Float32, w.b.Float32)
	arg := w.classify(vec2)
	m := newMachine()
	defer func() {
		r := recover()
		if r == nil || !strings.HasPrefix(r.(string), "abi:") {
			t.Fatalf("expected abi invariant panic, got %v", r)
		}
	}()
	w.abi.Put(m, arg, RVal(vec2, m.Value(w.abi.LLType(vec2), pattern(8))))
}

func TestBitcastRoundTrip(t *testing.T) {
	w := newWorld(t)
	b := w.b
	tests := []struct {
		typ     types.TypeID
		rewrite Rewrite
	}{
		{w.strct("B3", b.Int8, b.Int8, b.Int8), RewriteInteger},
		{w.strct("I2", b.Int32, b.Int32), RewriteInteger},
		{w.array(b.Int16, 3), RewriteInteger},
		{w.strct("S12", b.Int32, b.Int32, b.Int32), RewriteInteger2},
		{w.strct("L2", b.Int64, b.Int64), RewriteInteger2},
		{w.strct("F3", b.Float32, b.Float32, b.Float32), RewriteInteger2},
		{w.in.Intern(types.MakeSlice(b.Int32)), RewriteInteger2},
		{w.aligned("A16", 16, b.Int64, b.Int64), RewriteInteger},
		{w.packed("P5", b.Int8, b.Int32), RewriteInteger},
	}
	for _, tt := range tests {
		t.Run(types.Label(w.in, tt.typ), func(t *testing.T) {
			arg := w.classify(tt.typ)
			if arg.Rewrite != tt.rewrite {
				t.Fatalf("rewrite = %s, want %s", arg.Rewrite, tt.rewrite)
			}

			m := newMachine()
			src, img := w.storeImage(m, tt.typ)
			back := w.abi.GetLVal(m, arg, w.abi.Put(m, arg, LVal(tt.typ, src)))
			if got := m.Read(back, byteCount(len(img))); !bytes.Equal(got, img) {
				t.Fatalf("lvalue round trip: got %x, want %x", got, img)
			}

			rv := RVal(tt.typ, m.Value(w.abi.LLType(tt.typ), img))
			got := w.abi.GetRVal(m, arg, w.abi.Put(m, arg, rv)).(*llir.Bits)
			if !bytes.Equal(got.Data[:len(img)], img) {
				t.Fatalf("rvalue round trip: got %x, want %x", got.Data, img)
			}
		})
	}
}

func TestIndirectByvalCopies(t *testing.T) {
	w := newWorld(t)
	c80 := w.b.Complex80
	arg := w.classify(c80)
	m := newMachine()
	src, img := w.storeImage(m, c80)

	p := w.abi.Put(m, arg, LVal(c80, src)).(*llir.Pointer)
	if p.Block == src.Block {
		t.Fatalf("byval rewrite passed the original storage instead of a copy")
	}
	back := w.abi.GetLVal(m, arg, p)
	if got := m.Read(back, byteCount(len(img))); !bytes.Equal(got, img) {
		t.Fatalf("got %x, want %x", got, img)
	}

	rv := w.abi.Put(m, arg, RVal(c80, m.Value(w.abi.LLType(c80), img)))
	if got := m.Read(rv, byteCount(len(img))); !bytes.Equal(got, img) {
		t.Fatalf("rvalue copy: got %x, want %x", got, img)
	}
}

func TestNoRewriteTransforms(t *testing.T) {
	w := newWorld(t)
	f64 := w.b.Float64
	arg := w.classify(f64)
	m := newMachine()
	src, img := w.storeImage(m, f64)

	v := w.abi.Put(m, arg, LVal(f64, src)).(*llir.Bits)
	if !bytes.Equal(v.Data, img) {
		t.Fatalf("load = %x, want %x", v.Data, img)
	}
	if got := w.abi.GetRVal(m, arg, v).(*llir.Bits); !bytes.Equal(got.Data, img) {
		t.Fatalf("GetRVal = %x, want %x", got.Data, img)
	}

	byRef := &Arg{Type: f64, LLType: llir.Ptr, ByRef: true}
	if got := w.abi.Put(m, byRef, LVal(f64, src)); got != llir.Value(src) {
		t.Fatalf("by-ref Put must pass the address")
	}
}

func TestHardfloatIR(t *testing.T) {
	w := newWorld(t)
	vec2 := w.strct("Vec2", w.b.Float32, w.b.Float32)
	arg := w.classify(vec2)
	tb := llir.NewTextBuilder(llir.RISCV64())
	w.abi.Put(tb, arg, LVal(vec2, llir.Local(llir.Ptr, "v")))

	want := strings.Join([]string{
		"  %hardfloat_arg_storage1 = alloca { float, float }, align 4",
		"  %t2 = getelementptr inbounds { float, float }, ptr %hardfloat_arg_storage1, i32 0, i32 0",
		"  %t3 = getelementptr inbounds i8, ptr %v, i64 0",
		"  call void @llvm.memcpy.p0.p0.i64(ptr align 1 %t2, ptr align 1 %t3, i64 4, i1 false)",
		"  %t4 = getelementptr inbounds { float, float }, ptr %hardfloat_arg_storage1, i32 0, i32 1",
		"  %t5 = getelementptr inbounds i8, ptr %v, i64 4",
		"  call void @llvm.memcpy.p0.p0.i64(ptr align 1 %t4, ptr align 1 %t5, i64 4, i1 false)",
		"  %hardfloat_arg6 = load { float, float }, ptr %hardfloat_arg_storage1, align 4",
		"",
	}, "\n")
	if got := tb.String(); got != want {
		t.Fatalf("IR mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestNaturalLLTypes(t *testing.T) {
	w := newWorld(t)
	b := w.b
	inner := w.strct("Inner", b.Float32, b.Float32)
	tests := []struct {
		typ  types.TypeID
		want string
		defs string
	}{
		{b.Bool, "i8", ""},
		{b.Complex80, "{ fp128, fp128 }", ""},
		{w.in.Intern(types.MakeSlice(b.Int8)), "{ i64, ptr }", ""},
		{w.array(b.Int16, 3), "[3 x i16]", ""},
		{w.array(w.array(b.Float32, 2), 65536), "[65536 x [2 x float]]", ""},
		{w.vector(b.Float32, 2), "<2 x float>", ""},
		{w.strct("VD", w.vector(b.Float32, 2), b.Float64), "%VD", "%VD = type { <2 x float>, double }\n"},
		{w.strct("BD", b.Uint8, b.Float64), "%BD", "%BD = type { i8, [7 x i8], double }\n"},
		{w.packed("PK", b.Uint8, b.Float64), "%PK", "%PK = type <{ i8, double }>\n"},
		{w.aligned("AL", 16, b.Int32), "%AL", "%AL = type { i32, [12 x i8] }\n"},
		{w.strct("Outer", inner, b.Int64), "%Outer", "%Inner = type { float, float }\n%Outer = type { %Inner, i64 }\n"},
		{w.strct("Empty"), "%Empty", "%Empty = type { [1 x i8] }\n"},
	}
	for _, tt := range tests {
		t.Run(types.Label(w.in, tt.typ), func(t *testing.T) {
			ll := w.abi.LLType(tt.typ)
			if ll.String() != tt.want {
				t.Fatalf("LLType = %s, want %s", ll, tt.want)
			}
			if got := llir.TypeDefs(ll); got != tt.defs {
				t.Fatalf("defs = %q, want %q", got, tt.defs)
			}
			if got := llir.RISCV64().AllocSize(ll); got != byteCount(w.size(tt.typ)) {
				t.Fatalf("alloc size %d, layout size %d", got, w.size(tt.typ))
			}
		})
	}
}
