// Package trace provides structured tracing for the lowering pipeline.
//
// The trace package records driver phases, signature files, functions and
// individual argument decisions so a classification can be replayed and
// explained after the fact.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	rvabi classify --trace=- --trace-level=debug sigs.toml
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer of the latest events. In ring mode it is
//     dumped to stderr when the command exits; in both mode it sits beside
//     a StreamTracer and is dumped only when the command fails.
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelPhase: Driver and per-file boundaries
//   - LevelDetail: Per-function events
//   - LevelDebug: Everything including per-argument decisions
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: Top-level CLI operations
//   - ScopeFile: Per signature file processing
//   - ScopeFunc: Lowering of one function type
//   - ScopeArg: One parameter, return value or vararg
//
// # Context Propagation
//
// Tracers are propagated through the pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeFile, path, trace.ParentSpan(ctx))
//	defer span.End("")
//	ctx = trace.WithSpan(ctx, span)
package trace
