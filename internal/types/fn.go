package types //nolint:revive

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Param is one declared parameter of a function type.
type Param struct {
	Type TypeID
	Ref  bool // ref/out parameters are passed by address
}

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params    []Param // Parameter types (in order)
	Result    TypeID  // Return type
	RefResult bool    // returns by reference
	CVariadic bool    // accepts C-style varargs after Params
}

// RegisterFn creates or finds a function type.
func (in *Interner) RegisterFn(info FnInfo) TypeID {
	if in != nil {
		for id := TypeID(1); int(id) < len(in.types); id++ {
			tt := in.types[id]
			if tt.Kind != KindFn {
				continue
			}
			if int(tt.Payload) >= len(in.fns) {
				continue
			}
			have := in.fns[tt.Payload]
			if have.Result == info.Result &&
				have.RefResult == info.RefResult &&
				have.CVariadic == info.CVariadic &&
				slices.Equal(have.Params, info.Params) {
				return id
			}
		}
	}
	slot := in.appendFnInfo(info)
	return in.internRaw(Type{Kind: KindFn, Payload: slot})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.fns) {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}

func (in *Interner) appendFnInfo(info FnInfo) uint32 {
	in.fns = append(in.fns, FnInfo{
		Params:    slices.Clone(info.Params),
		Result:    info.Result,
		RefResult: info.RefResult,
		CVariadic: info.CVariadic,
	})
	slot, err := safecast.Conv[uint32](len(in.fns) - 1)
	if err != nil {
		panic(fmt.Errorf("fn info overflow: %w", err))
	}
	return slot
}
