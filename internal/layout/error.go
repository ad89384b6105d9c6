package layout

import (
	"fmt"
	"strings"

	"rvabi/internal/types"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveUnsized indicates a struct that contains itself by value.
	LayoutErrRecursiveUnsized LayoutErrorKind = iota + 1
	// LayoutErrLengthConversion covers element counts and sizes that do not
	// fit the size domain, MaxObjectSize included.
	LayoutErrLengthConversion
	LayoutErrInvalidAlign
	LayoutErrUnknownType
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  types.TypeID
	Cycle []types.TypeID // for LayoutErrRecursiveUnsized
	Value int64          // for LayoutErrInvalidAlign
	Err   error          // for LayoutErrLengthConversion
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive value type has infinite size (type#%d)", e.Type)
		}
		parts := make([]string, 0, len(e.Cycle))
		for _, id := range e.Cycle {
			parts = append(parts, fmt.Sprintf("type#%d", id))
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(parts, " -> "))
	case LayoutErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("size out of range (type#%d): %v", e.Type, e.Err)
		}
		return fmt.Sprintf("size out of range (type#%d)", e.Type)
	case LayoutErrInvalidAlign:
		return fmt.Sprintf("alignment %d is not a positive power of two (type#%d)", e.Value, e.Type)
	case LayoutErrUnknownType:
		return fmt.Sprintf("unknown type#%d", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}

// Unwrap exposes the conversion error, if any.
func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
