package abi

import (
	"strconv"

	"rvabi/internal/trace"
	"rvabi/internal/types"
)

// rewriteFunctionType runs abi's per-argument rewrite over the result and
// every parameter that is passed by value.
func rewriteFunctionType(abi TargetABI, fty *FuncTy) {
	if fty.Ret != nil && !fty.Ret.ByRef {
		abi.RewriteArgument(fty, fty.Ret)
	}
	for _, arg := range fty.Args {
		if !arg.ByRef {
			abi.RewriteArgument(fty, arg)
		}
	}
}

// rewriteArgumentDefault is the target-independent rewrite: aggregates with
// copy semantics cannot be bit-copied through registers, so the caller makes
// the copy and passes its address.
func (a *baseABI) rewriteArgumentDefault(arg *Arg) {
	if arg.ByRef || arg.Rewrite != RewriteNone {
		return
	}
	if a.types.IsAggregate(arg.Type) && !a.types.IsPOD(arg.Type) {
		a.applyTo(arg, RewriteIndirectByval)
	}
}

func (a *baseABI) traceDecision(arg *Arg, vararg bool, reason string) {
	if !trace.Wants(a.tracer, trace.ScopeArg) {
		return
	}
	extra := map[string]string{
		"type":    types.Label(a.types, arg.Type),
		"rewrite": arg.Rewrite.String(),
		"reason":  reason,
	}
	if arg.LLType != nil {
		extra["abi"] = arg.LLType.String()
	}
	if size, err := a.layout.SizeOf(arg.Type); err == nil {
		extra["size"] = strconv.Itoa(size)
	}
	if align, err := a.layout.AlignOf(arg.Type); err == nil {
		extra["align"] = strconv.Itoa(align)
	}
	if vararg {
		extra["vararg"] = "true"
	}
	name := arg.Name
	if name == "" {
		name = "arg"
	}
	trace.Point(a.tracer, trace.ScopeArg, name, a.parentSpan, extra)
}
