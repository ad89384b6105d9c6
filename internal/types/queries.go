package types //nolint:revive

// Base resolves aliases and returns the underlying TypeID and descriptor.
// Alias cycles stop at the first repeated id.
func (in *Interner) Base(id TypeID) (TypeID, Type) {
	if in == nil || id == NoTypeID {
		return id, Type{}
	}
	seen := make(map[TypeID]struct{}, 4)
	for {
		tt, ok := in.Lookup(id)
		if !ok {
			return id, Type{}
		}
		if tt.Kind != KindAlias {
			return id, tt
		}
		if _, ok := seen[id]; ok {
			return id, tt
		}
		seen[id] = struct{}{}
		target, ok := in.AliasTarget(id)
		if !ok {
			return id, tt
		}
		id = target
	}
}

// IsFloating reports whether values of the type are floating-point numbers,
// complex numbers included. A vector is floating when its element is.
func (in *Interner) IsFloating(id TypeID) bool {
	_, tt := in.Base(id)
	switch tt.Kind {
	case KindFloat, KindComplex:
		return true
	case KindVector:
		return in.IsFloating(tt.Elem)
	default:
		return false
	}
}

// IsAggregate reports whether the type is a struct, a static or dynamic
// array, a delegate or a complex number.
func (in *Interner) IsAggregate(id TypeID) bool {
	_, tt := in.Base(id)
	switch tt.Kind {
	case KindStruct, KindArray, KindSlice, KindDelegate, KindComplex:
		return true
	default:
		return false
	}
}

// IsPOD reports whether values of the type can be copied as raw bytes.
func (in *Interner) IsPOD(id TypeID) bool {
	return in.isPOD(id, 0)
}

func (in *Interner) isPOD(id TypeID, depth int) bool {
	if depth > maxQueryDepth {
		return true
	}
	base, tt := in.Base(id)
	switch tt.Kind {
	case KindStruct:
		info, ok := in.StructInfo(base)
		if !ok {
			return true
		}
		if info.NonPOD {
			return false
		}
		for _, f := range info.Fields {
			if !in.isPOD(f.Type, depth+1) {
				return false
			}
		}
		return true
	case KindArray:
		return in.isPOD(tt.Elem, depth+1)
	default:
		return true
	}
}

const maxQueryDepth = 64
