package trace

import (
	"fmt"
	"strings"
)

// Level controls how deep into the pipeline events are recorded.
type Level uint8

const (
	LevelOff    Level = iota // nothing
	LevelPhase               // driver and signature file spans
	LevelDetail              // plus one span per lowered function
	LevelDebug               // plus one point per argument decision
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelPhase:  "phase",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// ParseLevel accepts the level names case-insensitively.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are recorded at level l. Each
// level admits one scope more than the level below it.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopeFile
	case LevelDetail:
		return scope <= ScopeFunc
	case LevelDebug:
		return scope <= ScopeArg
	default:
		return false
	}
}
