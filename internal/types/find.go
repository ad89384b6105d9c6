package types //nolint:revive

// FindNamed returns the struct or alias TypeID registered under name.
func (in *Interner) FindNamed(name string) (TypeID, bool) {
	if in == nil || name == "" {
		return NoTypeID, false
	}
	for id := TypeID(1); int(id) < len(in.types); id++ {
		switch in.types[id].Kind {
		case KindStruct:
			if info, ok := in.StructInfo(id); ok && info.Name == name {
				return id, true
			}
		case KindAlias:
			if info, ok := in.AliasInfo(id); ok && info.Name == name {
				return id, true
			}
		}
	}
	return NoTypeID, false
}
