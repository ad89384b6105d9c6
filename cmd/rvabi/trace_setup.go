package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rvabi/internal/trace"
)

// traceSession is the tracer attached to a command's context.
type traceSession struct {
	cmd    *cobra.Command
	tracer trace.Tracer
	mode   trace.Mode
}

// setupTracing reads the trace flags and attaches a tracer to the command
// context. The caller must call finish with the command's result.
func setupTracing(cmd *cobra.Command) (*traceSession, error) {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	// --trace alone implies the detail level
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelDetail
	}
	s := &traceSession{cmd: cmd, tracer: trace.Nop}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), s.tracer))
		return s, nil
	}

	if s.mode, err = trace.ParseMode(modeStr); err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	s.tracer, err = trace.New(trace.Config{
		Level:      level,
		Mode:       s.mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), s.tracer))
	return s, nil
}

// finish dumps the retained events to stderr (always in ring mode, on
// failure in both mode), then flushes and closes the tracer.
func (s *traceSession) finish(runErr error) {
	stderr := s.cmd.ErrOrStderr()
	ring, ok := trace.Retained(s.tracer)
	if ok && (s.mode == trace.ModeRing || runErr != nil) {
		if dropped := ring.Dropped(); dropped > 0 {
			fmt.Fprintf(stderr, "trace: %d earlier events dropped\n", dropped)
		}
		if err := ring.Dump(stderr, trace.FormatText); err != nil {
			fmt.Fprintf(stderr, "trace: dump error: %v\n", err)
		}
	}
	if err := s.tracer.Flush(); err != nil {
		fmt.Fprintf(stderr, "trace: flush error: %v\n", err)
	}
	if err := s.tracer.Close(); err != nil {
		fmt.Fprintf(stderr, "trace: close error: %v\n", err)
	}
}
