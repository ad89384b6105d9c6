package abi

import (
	"rvabi/internal/llir"
)

// integerType is the integer shape covering size bytes: iN rounded up to
// 1, 2, 4 or 8 bytes, or { i64, iN } above 8 bytes.
func integerType(size int) llir.Type {
	if size <= 8 {
		return llir.Int(roundPow2(size) * 8)
	}
	return llir.Struct(llir.I64, llir.Int(roundPow2(size-8)*8))
}

func roundPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// indirectPut copies the value into fresh storage and passes its address.
func (a *baseABI) indirectPut(b llir.Builder, arg *Arg, dv DValue) llir.Value {
	ty := a.LLType(arg.Type)
	align := byteCount(a.alignOf(arg.Type))
	if !dv.IsLVal() {
		return b.AllocaDump(dv.Value(), ty, align, "byval_copy")
	}
	mem := b.RawAlloca(ty, align, "byval_copy")
	b.MemCpy(mem, dv.Addr(), byteCount(a.sizeOf(arg.Type)))
	return mem
}

// bitcastPut reinterprets the value's memory image as the ABI type. The
// image is first copied into a larger buffer when the ABI type would read
// past the value.
func (a *baseABI) bitcastPut(b llir.Builder, arg *Arg, dv DValue) llir.Value {
	asType := a.abiType(arg.Rewrite, arg)
	dl := b.DataLayout()
	size := byteCount(a.sizeOf(arg.Type))
	addr := a.addressOf(b, dv)
	if dl.StoreSize(asType) > size {
		align := max(dl.ABIAlign(asType), byteCount(a.alignOf(arg.Type)))
		buf := b.RawAlloca(asType, align, "bitcast_arg_storage")
		b.MemCpy(buf, addr, size)
		addr = buf
	}
	return b.Load(asType, addr, "bitcast_arg")
}

// bitcastGetLVal dumps the ABI value into storage valid for both types.
func (a *baseABI) bitcastGetLVal(b llir.Builder, arg *Arg, v llir.Value) llir.Value {
	asType := a.abiType(arg.Rewrite, arg)
	dl := b.DataLayout()
	align := max(dl.ABIAlign(asType), byteCount(a.alignOf(arg.Type)))
	return b.AllocaDump(v, asType, align, "bitcast_param")
}
