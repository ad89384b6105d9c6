package trace

import "errors"

// Tracer receives trace events. Emit is called from the driver's worker
// goroutines, so implementations synchronize internally.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
}

// Wants reports whether t records events of scope.
func Wants(t Tracer, scope Scope) bool {
	return t != nil && t.Level().ShouldEmit(scope)
}

type nop struct{}

func (nop) Emit(*Event)  {}
func (nop) Flush() error { return nil }
func (nop) Close() error { return nil }
func (nop) Level() Level { return LevelOff }

// Nop records nothing.
var Nop Tracer = nop{}

// fanout hands each member its own copy of every event.
type fanout struct {
	level   Level
	members []Tracer
}

func (f *fanout) Emit(ev *Event) {
	for _, m := range f.members {
		cp := *ev
		m.Emit(&cp)
	}
}

func (f *fanout) Flush() error {
	var errs []error
	for _, m := range f.members {
		errs = append(errs, m.Flush())
	}
	return errors.Join(errs...)
}

func (f *fanout) Close() error {
	var errs []error
	for _, m := range f.members {
		errs = append(errs, m.Close())
	}
	return errors.Join(errs...)
}

func (f *fanout) Level() Level { return f.level }

// Retained returns the ring buffer behind t: t itself in ring mode, its
// ring member in both mode.
func Retained(t Tracer) (*RingTracer, bool) {
	switch t := t.(type) {
	case *RingTracer:
		return t, true
	case *fanout:
		for _, m := range t.members {
			if ring, ok := Retained(m); ok {
				return ring, true
			}
		}
	}
	return nil, false
}
