package abi

import (
	"errors"
	"testing"

	"rvabi/internal/types"
)

func TestLowerFunc(t *testing.T) {
	w := newWorld(t)
	b := w.b
	vec2 := w.strct("Vec2", b.Float32, b.Float32)
	big := w.strct("Big", b.Int64, b.Int64, b.Int64)
	fn := &types.FnInfo{
		Params: []types.Param{{Type: vec2}, {Type: vec2, Ref: true}, {Type: big}, {Type: b.Complex80}},
		Result: big,
	}

	fty, err := LowerFunc(w.abi, fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if fty.SRet == nil || !fty.SRet.Attrs.Has(AttrSRet|AttrNoAlias) {
		t.Fatalf("missing sret argument: %+v", fty.SRet)
	}
	if fty.Ret.LLType.String() != "void" || fty.Ret.Rewrite != RewriteNone {
		t.Fatalf("ret = %s %s", fty.Ret.LLType, fty.Ret.Rewrite)
	}

	wantRewrites := []Rewrite{RewriteHardfloat, RewriteNone, RewriteNone, RewriteIndirectByval}
	for i, arg := range fty.Args {
		if arg.Rewrite != wantRewrites[i] {
			t.Errorf("p%d rewrite = %s, want %s", i, arg.Rewrite, wantRewrites[i])
		}
	}
	if !fty.Args[1].ByRef || fty.Args[1].Attrs != 0 {
		t.Errorf("ref parameter = %+v", fty.Args[1])
	}
	if !fty.Args[2].ByRef || !fty.Args[2].Attrs.Has(AttrByVal) {
		t.Errorf("large POD parameter must be byval: %+v", fty.Args[2])
	}

	want := "declare void @f(ptr sret(%Big) noalias %sret, { float, float } %p0, ptr %p1, ptr byval(%Big) %p2, ptr noalias nocapture %p3)"
	if got := fty.Declare("f"); got != want {
		t.Fatalf("Declare =\n%s\nwant\n%s", got, want)
	}
	if got := len(fty.IRArgs()); got != 5 {
		t.Fatalf("IRArgs = %d, want 5", got)
	}
}

func TestLowerFuncVarargs(t *testing.T) {
	w := newWorld(t)
	b := w.b
	vec2 := w.strct("Vec2", b.Float32, b.Float32)
	big := w.strct("Big", b.Int64, b.Int64, b.Int64)
	fn := &types.FnInfo{Params: []types.Param{{Type: b.Int32}}, Result: vec2, CVariadic: true}

	fty, err := LowerFunc(w.abi, fn, []types.TypeID{vec2, b.Float64, big})
	if err != nil {
		t.Fatal(err)
	}
	if fty.Ret.Rewrite != RewriteHardfloat {
		t.Fatalf("ret rewrite = %s", fty.Ret.Rewrite)
	}
	if got := fty.Varargs[0]; got.Rewrite != RewriteInteger || got.LLType.String() != "i64" {
		t.Errorf("va0 = %s %s", got.Rewrite, got.LLType)
	}
	if got := fty.Varargs[1]; got.Rewrite != RewriteNone || got.LLType.String() != "double" {
		t.Errorf("va1 = %s %s", got.Rewrite, got.LLType)
	}
	if got := fty.Varargs[2]; !got.ByRef || got.Rewrite != RewriteNone {
		t.Errorf("va2 = %+v", got)
	}
	if got, want := fty.Declare("printf2"), "declare { float, float } @printf2(i32 %p0, ...)"; got != want {
		t.Fatalf("Declare = %s, want %s", got, want)
	}
}

func TestLowerFuncNonPOD(t *testing.T) {
	w := newWorld(t)
	counted := w.strct("Counted", w.b.Int32)
	w.in.SetStructNonPOD(counted, true)
	fty, err := LowerFunc(w.abi, &types.FnInfo{Params: []types.Param{{Type: counted}}, Result: counted}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if fty.SRet == nil {
		t.Fatalf("non-POD result must be returned in memory")
	}
	if got := fty.Args[0]; got.ByRef || got.Rewrite != RewriteIndirectByval {
		t.Fatalf("non-POD parameter = %+v", got)
	}
}

func TestLowerFuncRejectsVarargsForFixedArity(t *testing.T) {
	w := newWorld(t)
	_, err := LowerFunc(w.abi, &types.FnInfo{Result: w.b.Void}, []types.TypeID{w.b.Int32})
	if !errors.Is(err, ErrNotVariadic) {
		t.Fatalf("err = %v, want ErrNotVariadic", err)
	}
}
