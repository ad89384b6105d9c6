package types

import (
	"fmt"
	"strconv"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	if typesIn == nil {
		return "?"
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "i" + strconv.Itoa(int(tt.Width))
	case KindUint:
		return "u" + strconv.Itoa(int(tt.Width))
	case KindFloat:
		if tt.Width == Width80 {
			return "real"
		}
		return "f" + strconv.Itoa(int(tt.Width))
	case KindComplex:
		return "c" + strconv.Itoa(int(tt.Width))
	case KindPointer:
		return "*" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindClass:
		return "class"
	case KindDelegate:
		return "delegate"
	case KindFn:
		return "fn"
	case KindArray:
		return fmt.Sprintf("[%d]%s", tt.Count, labelDepth(typesIn, tt.Elem, depth+1))
	case KindSlice:
		return "[]" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindVector:
		return fmt.Sprintf("vec(%d)%s", tt.Count, labelDepth(typesIn, tt.Elem, depth+1))
	case KindStruct:
		if info, ok := typesIn.StructInfo(id); ok && info.Name != "" {
			return info.Name
		}
		return fmt.Sprintf("struct#%d", id)
	case KindAlias:
		if info, ok := typesIn.AliasInfo(id); ok && info.Name != "" {
			return info.Name
		}
		return fmt.Sprintf("alias#%d", id)
	default:
		return tt.Kind.String()
	}
}
