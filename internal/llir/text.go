package llir

import (
	"fmt"
	"strings"
)

const memcpyIntrinsic = "llvm.memcpy.p0.p0.i64"

// Named is a textual SSA value: a %local or @global together with its type.
type Named struct {
	Ty   Type
	Name string
}

// Type returns the value's type.
func (v *Named) Type() Type { return v.Ty }

// String returns the sigil-prefixed name.
func (v *Named) String() string { return v.Name }

// Local returns a reference to an existing local value such as a parameter.
func Local(ty Type, name string) *Named {
	return &Named{Ty: ty, Name: "%" + sanitizeName(name)}
}

// TextBuilder renders textual LLVM IR instructions into a buffer.
type TextBuilder struct {
	dl         DataLayout
	buf        strings.Builder
	tmpID      int
	usedMemcpy bool
}

// NewTextBuilder returns a TextBuilder for the data layout.
func NewTextBuilder(dl DataLayout) *TextBuilder {
	return &TextBuilder{dl: dl}
}

// DataLayout returns the builder's data layout.
func (b *TextBuilder) DataLayout() DataLayout { return b.dl }

// String returns the instructions emitted so far.
func (b *TextBuilder) String() string { return b.buf.String() }

// Reset drops emitted instructions but keeps the temporary counter, so names
// stay unique across sequences printed together.
func (b *TextBuilder) Reset() { b.buf.Reset() }

// Declarations returns the intrinsic declarations the emitted code needs.
func (b *TextBuilder) Declarations() string {
	if !b.usedMemcpy {
		return ""
	}
	return fmt.Sprintf("declare void @%s(ptr, ptr, i64, i1)\n", memcpyIntrinsic)
}

func (b *TextBuilder) nextTemp(ty Type, hint string) *Named {
	b.tmpID++
	hint = sanitizeName(hint)
	if hint == "" {
		return &Named{Ty: ty, Name: fmt.Sprintf("%%t%d", b.tmpID)}
	}
	return &Named{Ty: ty, Name: fmt.Sprintf("%%%s%d", hint, b.tmpID)}
}

// RawAlloca emits an alloca.
func (b *TextBuilder) RawAlloca(ty Type, align uint64, name string) Value {
	ptr := b.nextTemp(Ptr, name)
	fmt.Fprintf(&b.buf, "  %s = alloca %s, align %d\n", ptr, ty, align)
	return ptr
}

// AllocaDump emits an alloca followed by a store of v.
func (b *TextBuilder) AllocaDump(v Value, ty Type, align uint64, name string) Value {
	ptr := b.RawAlloca(ty, align, name)
	fmt.Fprintf(&b.buf, "  store %s %s, ptr %s, align %d\n", v.Type(), v, ptr, align)
	return ptr
}

// MemCpy emits a call to the memcpy intrinsic.
func (b *TextBuilder) MemCpy(dst, src Value, n uint64) {
	b.usedMemcpy = true
	fmt.Fprintf(&b.buf, "  call void @%s(ptr align 1 %s, ptr align 1 %s, i64 %d, i1 false)\n", memcpyIntrinsic, dst, src, n)
}

// Load emits a typed load.
func (b *TextBuilder) Load(ty Type, ptr Value, name string) Value {
	v := b.nextTemp(ty, name)
	fmt.Fprintf(&b.buf, "  %s = load %s, ptr %s, align %d\n", v, ty, ptr, b.dl.ABIAlign(ty))
	return v
}

// Store emits a typed store.
func (b *TextBuilder) Store(v, ptr Value) {
	fmt.Fprintf(&b.buf, "  store %s %s, ptr %s, align %d\n", v.Type(), v, ptr, b.dl.ABIAlign(v.Type()))
}

// GEP emits a two-index getelementptr into an aggregate.
func (b *TextBuilder) GEP(ty Type, ptr Value, i0, i1 int) Value {
	v := b.nextTemp(Ptr, "")
	fmt.Fprintf(&b.buf, "  %s = getelementptr inbounds %s, ptr %s, i32 %d, i32 %d\n", v, ty, ptr, i0, i1)
	return v
}

// GEP1 emits a single-index getelementptr.
func (b *TextBuilder) GEP1(ty Type, ptr Value, idx uint64) Value {
	v := b.nextTemp(Ptr, "")
	fmt.Fprintf(&b.buf, "  %s = getelementptr inbounds %s, ptr %s, i64 %d\n", v, ty, ptr, idx)
	return v
}

// CallArg is one argument of an emitted call, with its call-site attributes.
type CallArg struct {
	V     Value
	Attrs string
}

// Call emits a call of the function @callee returning ret. sig is the
// callee's function type, required by variadic calls and empty otherwise.
// It returns nil for void calls.
func (b *TextBuilder) Call(ret Type, sig, callee string, args []CallArg) Value {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.V.Type().String()
		if a.Attrs != "" {
			parts[i] += " " + a.Attrs
		}
		parts[i] += " " + a.V.String()
	}
	fnRef := ret.String()
	if sig != "" {
		fnRef = sig
	}
	call := fmt.Sprintf("call %s @%s(%s)", fnRef, sanitizeName(callee), strings.Join(parts, ", "))
	if _, void := ret.(VoidType); void {
		fmt.Fprintf(&b.buf, "  %s\n", call)
		return nil
	}
	v := b.nextTemp(ret, "call")
	fmt.Fprintf(&b.buf, "  %s = %s\n", v, call)
	return v
}

// Ret emits the function terminator; v may be nil for `ret void`.
func (b *TextBuilder) Ret(v Value) {
	if v == nil {
		b.buf.WriteString("  ret void\n")
		return
	}
	fmt.Fprintf(&b.buf, "  ret %s %s\n", v.Type(), v)
}

func sanitizeName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
