package sigfile

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"rvabi/internal/types"
)

// ParseType resolves a type expression against the interner:
//
//	void bool i8 i16 i32 i64 u8 u16 u32 u64 f32 f64 real c32 c64 c80
//	delegate class *T [N]T []T vec(N)T Name
func ParseType(in *types.Interner, expr string) (types.TypeID, error) {
	src := strings.TrimSpace(expr)
	if src == "" {
		return types.NoTypeID, fmt.Errorf("empty type expression")
	}
	id, err := parseType(in, src, 0)
	if err != nil {
		return types.NoTypeID, fmt.Errorf("type %q: %w", expr, err)
	}
	return id, nil
}

const maxTypeExprDepth = 64

func parseType(in *types.Interner, s string, depth int) (types.TypeID, error) {
	if depth > maxTypeExprDepth {
		return types.NoTypeID, fmt.Errorf("nested too deeply")
	}
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return types.NoTypeID, fmt.Errorf("missing element type")
	case strings.HasPrefix(s, "*"):
		elem, err := parseType(in, s[1:], depth+1)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakePointer(elem)), nil
	case strings.HasPrefix(s, "[]"):
		elem, err := parseValueType(in, s[2:], depth+1)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeSlice(elem)), nil
	case strings.HasPrefix(s, "["):
		n, rest, err := parseCount(s[1:], "]")
		if err != nil {
			return types.NoTypeID, err
		}
		if n == 0 {
			return types.NoTypeID, fmt.Errorf("array of zero elements")
		}
		elem, err := parseValueType(in, rest, depth+1)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeArray(elem, n)), nil
	case strings.HasPrefix(s, "vec("):
		n, rest, err := parseCount(s[len("vec("):], ")")
		if err != nil {
			return types.NoTypeID, err
		}
		if n == 0 {
			return types.NoTypeID, fmt.Errorf("vector of zero elements")
		}
		elem, err := parseValueType(in, rest, depth+1)
		if err != nil {
			return types.NoTypeID, err
		}
		if _, tt := in.Base(elem); !isScalar(tt.Kind) {
			return types.NoTypeID, fmt.Errorf("vector element must be a scalar")
		}
		return in.Intern(types.MakeVector(elem, n)), nil
	}
	return parseName(in, s)
}

func parseValueType(in *types.Interner, s string, depth int) (types.TypeID, error) {
	id, err := parseType(in, s, depth)
	if err != nil {
		return types.NoTypeID, err
	}
	if _, tt := in.Base(id); tt.Kind == types.KindVoid {
		return types.NoTypeID, fmt.Errorf("void has no values")
	}
	return id, nil
}

func parseCount(s, closer string) (uint32, string, error) {
	end := strings.Index(s, closer)
	if end < 0 {
		return 0, "", fmt.Errorf("missing %q", closer)
	}
	raw, err := strconv.ParseUint(strings.TrimSpace(s[:end]), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid length %q", s[:end])
	}
	n, err := safecast.Conv[uint32](raw)
	if err != nil {
		return 0, "", fmt.Errorf("length %d: %w", raw, err)
	}
	return n, s[end+len(closer):], nil
}

func parseName(in *types.Interner, name string) (types.TypeID, error) {
	b := in.Builtins()
	switch name {
	case "void":
		return b.Void, nil
	case "bool":
		return b.Bool, nil
	case "i8":
		return b.Int8, nil
	case "i16":
		return b.Int16, nil
	case "i32":
		return b.Int32, nil
	case "i64":
		return b.Int64, nil
	case "u8":
		return b.Uint8, nil
	case "u16":
		return b.Uint16, nil
	case "u32":
		return b.Uint32, nil
	case "u64":
		return b.Uint64, nil
	case "f32":
		return b.Float32, nil
	case "f64":
		return b.Float64, nil
	case "real":
		return b.Real, nil
	case "c32":
		return b.Complex32, nil
	case "c64":
		return b.Complex64, nil
	case "c80":
		return b.Complex80, nil
	case "delegate":
		return in.Intern(types.MakeDelegate()), nil
	case "class":
		return in.Intern(types.MakeClass()), nil
	}
	if !isIdent(name) {
		return types.NoTypeID, fmt.Errorf("malformed type %q", name)
	}
	if id, ok := in.FindNamed(name); ok {
		return id, nil
	}
	return types.NoTypeID, fmt.Errorf("unknown type %q", name)
}

func isScalar(k types.Kind) bool {
	switch k {
	case types.KindBool, types.KindInt, types.KindUint, types.KindFloat, types.KindPointer:
		return true
	default:
		return false
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '.'):
		default:
			return false
		}
	}
	return true
}
