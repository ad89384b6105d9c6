package llir

// Value is an SSA value produced or consumed by a Builder.
type Value interface {
	Type() Type
	String() string
}

// Builder is the set of code-generation primitives ABI rewrites are written in.
//
// Names are hints for readable output; implementations may uniquify or
// ignore them.
type Builder interface {
	DataLayout() DataLayout

	// RawAlloca reserves stack storage for one value of ty.
	RawAlloca(ty Type, align uint64, name string) Value
	// AllocaDump reserves storage of ty and stores v into it.
	AllocaDump(v Value, ty Type, align uint64, name string) Value
	// MemCpy copies n bytes from src to dst.
	MemCpy(dst, src Value, n uint64)
	Load(ty Type, ptr Value, name string) Value
	Store(v, ptr Value)
	// GEP returns the address of element i1 of the i0-th ty at ptr.
	GEP(ty Type, ptr Value, i0, i1 int) Value
	// GEP1 returns ptr advanced by idx elements of ty; with ty = i8 it is a
	// raw byte offset.
	GEP1(ty Type, ptr Value, idx uint64) Value
}
