package abi

import (
	"testing"

	"rvabi/internal/layout"
	"rvabi/internal/llir"
	"rvabi/internal/types"
)

type world struct {
	t   *testing.T
	in  *types.Interner
	le  *layout.LayoutEngine
	abi *RISCV64
	b   types.Builtins
}

func newWorld(t *testing.T) *world {
	t.Helper()
	return newWorldFor(t, layout.RISCV64LinuxGNU())
}

func newWorldFor(t *testing.T, target layout.Target, opts ...Option) *world {
	t.Helper()
	in := types.NewInterner()
	le := layout.New(target, in)
	return &world{t: t, in: in, le: le, abi: NewRISCV64(target, in, le, opts...), b: in.Builtins()}
}

func (w *world) strct(name string, fields ...types.TypeID) types.TypeID {
	id := w.in.RegisterStruct(name)
	sf := make([]types.StructField, len(fields))
	for i, f := range fields {
		sf[i] = types.StructField{Name: string(rune('a' + i)), Type: f}
	}
	w.in.SetStructFields(id, sf)
	return id
}

func (w *world) packed(name string, fields ...types.TypeID) types.TypeID {
	id := w.strct(name, fields...)
	if err := w.in.SetTypeLayoutAttrs(id, types.LayoutAttrs{Packed: true}); err != nil {
		w.t.Fatal(err)
	}
	return id
}

func (w *world) aligned(name string, align int, fields ...types.TypeID) types.TypeID {
	id := w.strct(name, fields...)
	if err := w.in.SetTypeLayoutAttrs(id, types.LayoutAttrs{AlignOverride: types.Align(align)}); err != nil {
		w.t.Fatal(err)
	}
	return id
}

func (w *world) array(elem types.TypeID, n uint32) types.TypeID {
	return w.in.Intern(types.MakeArray(elem, n))
}

func (w *world) vector(elem types.TypeID, n uint32) types.TypeID {
	return w.in.Intern(types.MakeVector(elem, n))
}

func (w *world) arg(t types.TypeID) *Arg {
	return &Arg{Name: "x", Type: t, LLType: w.abi.LLType(t)}
}

func (w *world) classify(t types.TypeID) *Arg {
	arg := w.arg(t)
	w.abi.RewriteArgument(&FuncTy{}, arg)
	return arg
}

func (w *world) classifyVararg(t types.TypeID) *Arg {
	arg := w.arg(t)
	w.abi.RewriteVarargs(&FuncTy{CVariadic: true}, []*Arg{arg})
	return arg
}

func (w *world) size(t types.TypeID) int {
	w.t.Helper()
	n, err := w.le.SizeOf(t)
	if err != nil {
		w.t.Fatal(err)
	}
	return n
}

func (w *world) align(t types.TypeID) int {
	w.t.Helper()
	n, err := w.le.AlignOf(t)
	if err != nil {
		w.t.Fatal(err)
	}
	return n
}

// pattern returns n distinct non-fill bytes.
func pattern(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*7 + 1)
	}
	return out
}

func newMachine() *llir.Machine {
	return llir.NewMachine(llir.RISCV64())
}
