package driver

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"rvabi/internal/abi"
	"rvabi/internal/llir"
	"rvabi/internal/sigfile"
)

// RenderIR lowers the functions of file named in names, or all of them when
// names is empty, and renders an IR module with a declaration per function
// and a thunk that calls it from values held in memory. The thunk shows the
// caller side of every rewrite: each source value is converted with Put,
// and the result is brought back with GetLVal and copied to %out.
func RenderIR(ctx context.Context, file *sigfile.File, names []string) (string, error) {
	fns, err := selectFuncs(file, names)
	if err != nil {
		return "", err
	}
	b := llir.NewTextBuilder(llir.RISCV64())
	var defs []llir.Type
	var decls, bodies strings.Builder
	for _, fn := range fns {
		fty, target, err := lowerFunc(ctx, file, fn)
		if err != nil {
			return "", err
		}
		defs = append(defs, usedTypes(target, fty)...)
		decls.WriteString(fty.Declare(fn.Name))
		decls.WriteByte('\n')

		b.Reset()
		header := writeThunk(b, file, target, fn, fty)
		fmt.Fprintf(&bodies, "\n%s {\n%s}\n", header, b.String())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "; %s\ntarget triple = %q\n", file.Path, file.Target.Triple)
	if td := llir.TypeDefs(defs...); td != "" {
		sb.WriteString("\n" + td)
	}
	sb.WriteString("\n" + decls.String())
	if intrinsics := b.Declarations(); intrinsics != "" {
		sb.WriteString(intrinsics)
	}
	sb.WriteString(bodies.String())
	return sb.String(), nil
}

func selectFuncs(file *sigfile.File, names []string) ([]sigfile.Func, error) {
	if len(names) == 0 {
		return file.Funcs, nil
	}
	out := make([]sigfile.Func, 0, len(names))
	for _, name := range names {
		fn, ok := file.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%s: no func %q", file.Path, name)
		}
		out = append(out, fn)
	}
	return out, nil
}

func usedTypes(target abi.TargetABI, fty *abi.FuncTy) []llir.Type {
	var out []llir.Type
	for _, a := range append([]*abi.Arg{fty.Ret}, fty.IRArgs()...) {
		out = append(out, a.LLType, target.LLType(a.Type))
		if a.Pointee != nil {
			out = append(out, a.Pointee)
		}
	}
	return out
}

// writeThunk emits the body of the call thunk into b and returns its
// define line.
func writeThunk(b *llir.TextBuilder, file *sigfile.File, target abi.TargetABI, fn sigfile.Func, fty *abi.FuncTy) string {
	hasResult := fty.SRet != nil || fty.Ret.LLType != llir.Void
	var params []string
	var args []llir.CallArg
	out := llir.Local(llir.Ptr, "out")
	if hasResult {
		params = append(params, "ptr %out")
	}
	if fty.SRet != nil {
		args = append(args, llir.CallArg{V: out, Attrs: fty.SRet.IRAttrs()})
	}
	for _, a := range append(append([]*abi.Arg(nil), fty.Args...), fty.Varargs...) {
		src := llir.Local(llir.Ptr, "src."+a.Name)
		params = append(params, "ptr "+src.String())
		v := target.Put(b, a, abi.LVal(a.Type, src))
		args = append(args, llir.CallArg{V: v, Attrs: a.IRAttrs()})
	}

	sig := ""
	if fty.CVariadic {
		var fixed []string
		if fty.SRet != nil {
			fixed = append(fixed, fty.SRet.LLType.String())
		}
		for _, a := range fty.Args {
			fixed = append(fixed, a.LLType.String())
		}
		fixed = append(fixed, "...")
		sig = fmt.Sprintf("%s (%s)", fty.Ret.LLType, strings.Join(fixed, ", "))
	}
	if res := b.Call(fty.Ret.LLType, sig, fn.Name, args); res != nil {
		lv := target.GetLVal(b, fty.Ret, res)
		size, err := file.Layout.SizeOf(fty.Ret.Type)
		if err != nil {
			panic(fmt.Sprintf("driver: result of %s has no layout: %v", fn.Name, err))
		}
		n, err := safecast.Conv[uint64](size)
		if err != nil {
			panic(fmt.Sprintf("driver: result size of %s: %v", fn.Name, err))
		}
		b.MemCpy(out, lv, n)
	}
	b.Ret(nil)
	return fmt.Sprintf("define void @%s.thunk(%s)", fn.Name, strings.Join(params, ", "))
}
