// Package driver runs the ABI lowering over signature files and collects
// the decisions into reports.
package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"rvabi/internal/abi"
	"rvabi/internal/observ"
	"rvabi/internal/sigfile"
	"rvabi/internal/trace"
)

// Options configures ClassifyFiles.
type Options struct {
	// Jobs bounds the number of files processed at once; 0 means GOMAXPROCS.
	Jobs int
	// Timer, if set, receives one load and one classify phase per file.
	Timer *observ.Timer
}

// Classify lowers every function of file.
func Classify(ctx context.Context, file *sigfile.File) (*FileReport, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, file.Path, trace.ParentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	targetABI, err := abi.ForTarget(file.Target, file.Types, file.Layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	rep := &FileReport{
		Path:     file.Path,
		Triple:   file.Target.Triple,
		RealSize: file.Target.RealSize,
		Unwind:   targetABI.DefaultUnwindTableKind().String(),
		VaList:   targetABI.LLType(targetABI.VaListType()).String(),
	}
	for _, fn := range file.Funcs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fty, _, err := lowerFunc(ctx, file, fn)
		if err != nil {
			return nil, err
		}
		rep.Funcs = append(rep.Funcs, newFuncReport(file, fn, fty))
	}
	span.WithExtra("funcs", fmt.Sprint(len(rep.Funcs)))
	return rep, nil
}

// lowerFunc lowers fn with an ABI whose decisions trace under a span of fn.
func lowerFunc(ctx context.Context, file *sigfile.File, fn sigfile.Func) (*abi.FuncTy, abi.TargetABI, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFunc, fn.Name, trace.ParentSpan(ctx))
	defer span.End("")

	target, err := abi.ForTarget(file.Target, file.Types, file.Layout, abi.WithTracer(tracer, span.ID()))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	fty, err := abi.LowerFunc(target, file.Info(fn), fn.Varargs)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: func %s: %w", file.Path, fn.Name, err)
	}
	return fty, target, nil
}

// ClassifyFiles loads and classifies paths in parallel. A file that fails
// keeps its slot in the result with Error set; the returned error is only
// non-nil when ctx is cancelled.
func ClassifyFiles(ctx context.Context, paths []string, opts Options) (*Report, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "classify", trace.ParentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	// each goroutine writes only its own index
	results := make([]*FileReport, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = classifyPath(gctx, path, opts.Timer)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Report{Files: results}, nil
}

func classifyPath(ctx context.Context, path string, timer *observ.Timer) *FileReport {
	done := timer.Track("load " + path)
	file, err := sigfile.Load(path)
	if err != nil {
		done("failed")
		return &FileReport{Path: path, Error: err.Error()}
	}
	done(fmt.Sprintf("%d funcs", len(file.Funcs)))

	done = timer.Track("classify " + path)
	rep, err := Classify(ctx, file)
	if err != nil {
		done("failed")
		return &FileReport{Path: path, Error: err.Error()}
	}
	done("")
	return rep
}
