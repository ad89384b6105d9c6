package abi

import (
	"errors"
	"fmt"
	"strings"

	"rvabi/internal/llir"
	"rvabi/internal/types"
)

// ErrNotVariadic is returned when varargs are supplied for a function that
// does not take C varargs.
var ErrNotVariadic = errors.New("function is not C-variadic")

// LowerFunc builds the IR signature of fn and runs the ABI rewrites over it.
// varargs are the source types of the extra arguments of one C-variadic call.
//
// Results returned in memory become a hidden sret pointer and a void result,
// ref parameters become pointers, and PassByVal parameters become byval
// pointers; the remaining arguments are classified by abi.
func LowerFunc(abi TargetABI, fn *types.FnInfo, varargs []types.TypeID) (*FuncTy, error) {
	if fn == nil {
		return nil, errors.New("missing function type")
	}
	if len(varargs) > 0 && !fn.CVariadic {
		return nil, ErrNotVariadic
	}
	fty := &FuncTy{CVariadic: fn.CVariadic}

	switch {
	case fn.RefResult:
		fty.Ret = &Arg{Name: "ret", Type: fn.Result, LLType: llir.Ptr, ByRef: true, Pointee: abi.LLType(fn.Result)}
	case abi.ReturnInArg(fn, false):
		fty.SRet = &Arg{
			Name:    "sret",
			Type:    fn.Result,
			LLType:  llir.Ptr,
			ByRef:   true,
			Pointee: abi.LLType(fn.Result),
			Attrs:   AttrSRet | AttrNoAlias,
		}
		// the result itself travels through the sret pointer
		fty.Ret = &Arg{Name: "ret", Type: fn.Result, LLType: llir.Void, ByRef: true}
	default:
		fty.Ret = &Arg{Name: "ret", Type: fn.Result, LLType: abi.LLType(fn.Result)}
	}

	for i, p := range fn.Params {
		fty.Args = append(fty.Args, newArg(abi, fn, fmt.Sprintf("p%d", i), p.Type, p.Ref))
	}
	abi.RewriteFunctionType(fty)

	for i, t := range varargs {
		fty.Varargs = append(fty.Varargs, newArg(abi, fn, fmt.Sprintf("va%d", i), t, false))
	}
	if len(fty.Varargs) > 0 {
		abi.RewriteVarargs(fty, fty.Varargs)
	}
	return fty, nil
}

func newArg(abi TargetABI, fn *types.FnInfo, name string, t types.TypeID, ref bool) *Arg {
	arg := &Arg{Name: name, Type: t}
	switch {
	case ref:
		arg.ByRef = true
		arg.LLType = llir.Ptr
		arg.Pointee = abi.LLType(t)
	case abi.PassByVal(fn, t):
		arg.ByRef = true
		arg.LLType = llir.Ptr
		arg.Pointee = abi.LLType(t)
		arg.Attrs |= AttrByVal
	default:
		arg.LLType = abi.LLType(t)
	}
	return arg
}

// IRArgs returns the IR-level arguments in order: the sret pointer, the
// declared parameters, then the varargs.
func (f *FuncTy) IRArgs() []*Arg {
	out := make([]*Arg, 0, len(f.Args)+len(f.Varargs)+1)
	if f.SRet != nil {
		out = append(out, f.SRet)
	}
	out = append(out, f.Args...)
	return append(out, f.Varargs...)
}

// Declare renders the signature as an IR function declaration. Varargs are
// not part of a declaration; a variadic function ends in "...".
func (f *FuncTy) Declare(name string) string {
	var sb strings.Builder
	sb.WriteString("declare ")
	sb.WriteString(f.Ret.LLType.String())
	sb.WriteString(" @")
	sb.WriteString(name)
	sb.WriteString("(")
	params := make([]string, 0, len(f.Args)+2)
	if f.SRet != nil {
		params = append(params, f.SRet.irParam())
	}
	for _, a := range f.Args {
		params = append(params, a.irParam())
	}
	if f.CVariadic {
		params = append(params, "...")
	}
	sb.WriteString(strings.Join(params, ", "))
	sb.WriteString(")")
	return sb.String()
}

func (a *Arg) irParam() string {
	out := a.LLType.String()
	if attrs := a.IRAttrs(); attrs != "" {
		out += " " + attrs
	}
	return out + " %" + a.Name
}

// IRAttrs renders the parameter attributes of a, as written both in
// declarations and at call sites.
func (a *Arg) IRAttrs() string {
	var parts []string
	if a.Attrs.Has(AttrSRet) {
		parts = append(parts, fmt.Sprintf("sret(%s)", a.Pointee))
	}
	if a.Attrs.Has(AttrByVal) {
		parts = append(parts, fmt.Sprintf("byval(%s)", a.Pointee))
	}
	if a.Attrs.Has(AttrNoAlias) {
		parts = append(parts, "noalias")
	}
	if a.Attrs.Has(AttrNoCapture) {
		parts = append(parts, "nocapture")
	}
	return strings.Join(parts, " ")
}
