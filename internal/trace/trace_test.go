package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopeDriver, true},
		{LevelPhase, ScopeFile, true},
		{LevelPhase, ScopeFunc, false},
		{LevelDetail, ScopeFunc, true},
		{LevelDetail, ScopeArg, false},
		{LevelDebug, ScopeArg, true},
	}
	for _, tt := range tests {
		t.Run(tt.level.String()+"/"+tt.scope.String(), func(t *testing.T) {
			if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
				t.Fatalf("ShouldEmit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)
	span := Begin(tr, ScopeFunc, "func:length", 0)
	Point(tr, ScopeArg, "arg#0", span.ID(), map[string]string{"size": "8", "rewrite": "hardfloat"})
	span.End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "→ func:length") {
		t.Errorf("begin line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "• arg#0 {rewrite=hardfloat, size=8}") {
		t.Errorf("point line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "← func:length (ok)") {
		t.Errorf("end line = %q", lines[2])
	}
}

func TestStreamTracerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	Point(tr, ScopeArg, "arg#0", 0, nil)
	Begin(tr, ScopeFunc, "func:f", 0).End("")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeArg, "arg#1", 7, map[string]string{"rewrite": "integer2"})

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["scope"] != "arg" || got["kind"] != "point" || got["name"] != "arg#1" {
		t.Fatalf("unexpected event: %v", got)
	}
}

func TestParseLevel(t *testing.T) {
	for _, l := range []Level{LevelOff, LevelPhase, LevelDetail, LevelDebug} {
		got, err := ParseLevel(strings.ToUpper(l.String()))
		if err != nil || got != l {
			t.Errorf("ParseLevel(%q) = %v, %v", strings.ToUpper(l.String()), got, err)
		}
	}
	if _, err := ParseLevel("error"); err == nil {
		t.Errorf("error is not a level")
	}
}

func TestRingKeepsLatest(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeArg, name, 0, nil)
	}
	snap := ring.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if ring.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", ring.Dropped())
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 2 || !strings.Contains(lines[1], "• c") {
		t.Fatalf("dump = %q", buf.String())
	}
}

func TestBothModeAndContext(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDebug, Mode: ModeBoth, Output: &buf, RingSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	ring, ok := Retained(tr)
	if !ok {
		t.Fatalf("both mode must retain a ring")
	}

	ctx := WithTracer(context.Background(), tr)
	Point(FromContext(ctx), ScopeDriver, "start", 0, nil)

	if buf.Len() == 0 || len(ring.Snapshot()) != 1 {
		t.Fatalf("event did not reach both the stream and the ring")
	}
	if Wants(FromContext(context.Background()), ScopeDriver) {
		t.Fatalf("missing tracer must be the nop tracer")
	}

	span := Begin(tr, ScopeFile, "file", 0)
	child := WithSpan(ctx, span)
	if ParentSpan(child) != span.ID() || ParentSpan(ctx) != 0 {
		t.Fatalf("parent span not propagated")
	}
	off := Begin(Nop, ScopeFile, "file", 0)
	if WithSpan(ctx, off) != ctx {
		t.Fatalf("a disabled span must not change the context")
	}
	span.End("")
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestStreamLeavesCallerWriterOpen(t *testing.T) {
	var w closeRecorder
	tr, err := New(Config{Level: LevelPhase, Mode: ModeStream, Output: &w})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := Retained(tr); ok {
		t.Fatalf("stream mode retains nothing")
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if w.closed {
		t.Fatalf("Close closed a writer the tracer does not own")
	}
}

func TestNewOff(t *testing.T) {
	tr, err := New(Config{Level: LevelOff, Mode: ModeBoth})
	if err != nil {
		t.Fatal(err)
	}
	if tr != Nop || Wants(tr, ScopeDriver) {
		t.Fatalf("off must yield the nop tracer")
	}
	if _, err := ParseMode("tape"); err == nil {
		t.Fatalf("tape is not a mode")
	}
}
