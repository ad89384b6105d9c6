package trace

import "time"

// Kind distinguishes span boundaries from instant events.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

var kindNames = [...]string{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point"}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the pipeline stage an event belongs to, coarsest first. Levels
// admit scopes by this order.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // one classify or lower run
	ScopeFile                    // one signature file
	ScopeFunc                    // one function type lowered
	ScopeArg                     // one parameter, result or vararg decision
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopeFile: "file", ScopeFunc: "func", ScopeArg: "arg"}

func (s Scope) String() string {
	if s > 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one trace record. Point events carry no SpanID; their ParentID
// names the span they happened in.
type Event struct {
	Time     time.Time
	Seq      uint64 // global emission order
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 at the root
	GID      uint64 // emitting goroutine
	Name     string // driver command, file path, function or argument name
	Detail   string
	Extra    map[string]string
}
