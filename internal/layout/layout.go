package layout

import (
	"rvabi/internal/types"
)

// TypeLayout is the ABI layout of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only:
	FieldOffsets []int
	FieldAligns  []int
}

// Field is one struct field positioned at its byte offset.
type Field struct {
	Type   types.TypeID
	Offset int
}

// LayoutEngine computes memory layout for types.
type LayoutEngine struct {
	Target Target
	Types  *types.Interner

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target, typesIn *types.Interner) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		Types:  typesIn,
		cache:  newCache(),
	}
}

type layoutState struct {
	stack []types.TypeID
	index map[types.TypeID]int
}

func newLayoutState() *layoutState {
	return &layoutState{
		stack: nil,
		index: make(map[types.TypeID]int, 16),
	}
}

// LayoutOf computes and caches the layout of a type.
func (e *LayoutEngine) LayoutOf(t types.TypeID) (TypeLayout, error) {
	if e == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	layout, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		return layout, err
	}
	return layout, nil
}

func (e *LayoutEngine) layoutOf(t types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	canon, _ := e.Types.Base(t)
	if cached, ok := e.cache.get(canon); ok {
		return cached.Layout, cached.Err
	}

	if idx, ok := state.index[canon]; ok {
		cycle := append([]types.TypeID(nil), state.stack[idx:]...)
		cycle = append(cycle, canon)
		err := &LayoutError{
			Kind:  LayoutErrRecursiveUnsized,
			Type:  canon,
			Cycle: cycle,
		}
		return TypeLayout{Size: 0, Align: 1}, err
	}

	state.index[canon] = len(state.stack)
	state.stack = append(state.stack, canon)
	layout, err := e.computeLayout(canon, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, canon)

	e.cache.put(canon, &cacheEntry{Layout: layout, Err: err})
	return layout, err
}

// SizeOf returns the size of a type in bytes.
func (e *LayoutEngine) SizeOf(t types.TypeID) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *LayoutEngine) AlignOf(t types.TypeID) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *LayoutEngine) FieldOffset(structT types.TypeID, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(structT)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, nil
	}
	return l.FieldOffsets[fieldIdx], nil
}

// Fields returns the struct's fields with their byte offsets in declaration
// order. Non-struct types have no fields.
func (e *LayoutEngine) Fields(structT types.TypeID) ([]Field, error) {
	base, tt := e.Types.Base(structT)
	if tt.Kind != types.KindStruct {
		return nil, nil
	}
	l, err := e.LayoutOf(base)
	if err != nil {
		return nil, err
	}
	info, ok := e.Types.StructInfo(base)
	if !ok || len(info.Fields) == 0 {
		return nil, nil
	}
	out := make([]Field, len(info.Fields))
	for i, f := range info.Fields {
		out[i] = Field{Type: f.Type, Offset: l.FieldOffsets[i]}
	}
	return out, nil
}
