package types //nolint:revive

import "errors"

// ErrPackedWithAlign rejects a declaration that is both packed and over-aligned.
var ErrPackedWithAlign = errors.New("packed conflicts with align")

// LayoutAttrs describes layout-affecting attributes applied to a struct declaration.
type LayoutAttrs struct {
	Packed        bool
	AlignOverride *int // nil when no align(N) is present
}

// FieldLayoutAttrs describes layout-affecting attributes applied to a struct field.
type FieldLayoutAttrs struct {
	AlignOverride *int
}

// Align returns a non-nil AlignOverride for n.
func Align(n int) *int {
	return &n
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// TypeLayoutAttrs returns the attributes recorded for the type.
func (in *Interner) TypeLayoutAttrs(id TypeID) (LayoutAttrs, bool) {
	if in == nil || id == NoTypeID || in.typeLayoutAttrs == nil {
		return LayoutAttrs{}, false
	}
	attrs, ok := in.typeLayoutAttrs[id]
	return attrs, ok
}

// SetTypeLayoutAttrs stores layout attributes for a struct type.
// The layout engine trusts what is stored here, so conflicts are rejected up front.
func (in *Interner) SetTypeLayoutAttrs(id TypeID, attrs LayoutAttrs) error {
	if in == nil || id == NoTypeID {
		return nil
	}
	if attrs.Packed && attrs.AlignOverride != nil {
		return ErrPackedWithAlign
	}
	if !attrs.Packed && attrs.AlignOverride == nil {
		delete(in.typeLayoutAttrs, id)
		return nil
	}
	if in.typeLayoutAttrs == nil {
		in.typeLayoutAttrs = make(map[TypeID]LayoutAttrs, 16)
	}
	attrs.AlignOverride = cloneIntPtr(attrs.AlignOverride)
	in.typeLayoutAttrs[id] = attrs
	return nil
}
