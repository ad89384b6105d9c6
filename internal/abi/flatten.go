package abi

import (
	"rvabi/internal/types"
)

// maxFlattenDepth bounds struct nesting during flattening; deeper types are
// reported as unsupported.
const maxFlattenDepth = 32

// FlatOutcome is the result class of flattening.
type FlatOutcome uint8

const (
	// FlatNone means the type has no scalar pieces at all (empty structs).
	FlatNone FlatOutcome = iota
	// FlatUnsupported means the type does not fit into two slots.
	FlatUnsupported
	// FlatSlots means N (1 or 2) slots describe the type.
	FlatSlots
)

func (o FlatOutcome) String() string {
	switch o {
	case FlatNone:
		return "none"
	case FlatUnsupported:
		return "unsupported"
	case FlatSlots:
		return "slots"
	default:
		return "unknown"
	}
}

// FlatField is one scalar piece of at most 8 bytes at its byte offset inside
// the flattened aggregate.
type FlatField struct {
	Type   types.TypeID
	Offset int
}

// FlattenedFields is a type described as at most two scalar slots.
type FlattenedFields struct {
	Outcome FlatOutcome
	N       int
	Fields  [2]FlatField
}

// Slots returns the populated slots.
func (f FlattenedFields) Slots() []FlatField {
	if f.Outcome != FlatSlots {
		return nil
	}
	return f.Fields[:f.N]
}

func (f *FlattenedFields) push(t types.TypeID, off int) bool {
	if f.N >= len(f.Fields) {
		return false
	}
	f.Fields[f.N] = FlatField{Type: t, Offset: off}
	f.N++
	return true
}

// Flatten describes t as at most two scalar slots. Structs are walked field
// by field in declaration order, complex32 and complex64 split into their
// float halves, and any other type is a single slot if it holds between 1 and
// 8 bytes. A zero-size leaf has no register form and makes t unflattenable.
func (a *baseABI) Flatten(t types.TypeID) FlattenedFields {
	var out FlattenedFields
	if !a.flatten(t, 0, 0, &out) {
		return FlattenedFields{Outcome: FlatUnsupported}
	}
	if out.N > 0 {
		out.Outcome = FlatSlots
	}
	return out
}

func (a *baseABI) flatten(t types.TypeID, base, depth int, out *FlattenedFields) bool {
	if depth > maxFlattenDepth {
		return false
	}
	id, tt := a.types.Base(t)
	b := a.types.Builtins()
	switch {
	case tt.Kind == types.KindStruct:
		fields, err := a.layout.Fields(id)
		if err != nil {
			panic(layoutPanic(a.types, id, err))
		}
		for _, f := range fields {
			if !a.flatten(f.Type, base+f.Offset, depth+1, out) {
				return false
			}
		}
		return true
	case tt.Kind == types.KindComplex && tt.Width == types.Width32:
		return out.push(b.Float32, base) && out.push(b.Float32, base+4)
	case tt.Kind == types.KindComplex && tt.Width == types.Width64:
		return out.push(b.Float64, base) && out.push(b.Float64, base+8)
	default:
		if size := a.sizeOf(id); size == 0 || size > 8 {
			return false
		}
		return out.push(id, base)
	}
}

// hasFloatSlot reports whether any slot holds a floating-point scalar.
func (a *baseABI) hasFloatSlot(ff FlattenedFields) bool {
	for _, s := range ff.Slots() {
		if a.types.IsFloating(s.Type) {
			return true
		}
	}
	return false
}
