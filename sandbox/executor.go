// Package sandbox compiles a transformed script unit and executes it in a
// restricted environment under a deadline. The executor is the only
// component that invokes real tool implementations, through the
// registry.ToolRunner collaborator.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/scriptflow/registry"
	"github.com/BaSui01/scriptflow/script"
	"github.com/BaSui01/scriptflow/transform"
	"github.com/BaSui01/scriptflow/types"
)

// SourceLabel is the fixed diagnostic label compiled units carry. Every
// fault attributed to user code traces back to this pseudo-filename
// rather than any real path.
const SourceLabel = "<user_code>"

// Config holds the executor's run limits.
type Config struct {
	Timeout time.Duration
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second}
}

// Program is a compiled, execution-ready unit.
type Program struct {
	Entry *script.AsyncEntry
	Label string
}

// ExecutorStats tracks run counters since the executor was built.
type ExecutorStats struct {
	TotalRuns     int64         `json:"total_runs"`
	SuccessRuns   int64         `json:"success_runs"`
	FailedRuns    int64         `json:"failed_runs"`
	TimeoutRuns   int64         `json:"timeout_runs"`
	TotalDuration time.Duration `json:"total_duration"`
}

// Executor runs compiled programs in isolated per-run environments. Safe
// for concurrent use; the registry is the only shared input and it is
// immutable.
type Executor struct {
	cfg    Config
	reg    *registry.Registry
	runner registry.ToolRunner
	logger *zap.Logger
	tracer trace.Tracer

	mu    sync.RWMutex
	stats ExecutorStats
}

// NewExecutor builds an executor. A nil runner is replaced by one that
// fails every invocation, so a registry without tools still executes.
func NewExecutor(reg *registry.Registry, runner registry.ToolRunner, cfg Config, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = registry.ToolRunnerFunc(func(ctx context.Context, tool string, args []any) (any, error) {
			return nil, fmt.Errorf("no tool runner configured")
		})
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Executor{
		cfg:    cfg,
		reg:    reg,
		runner: runner,
		logger: logger.With(zap.String("component", "sandbox")),
		tracer: otel.Tracer("scriptflow/sandbox"),
	}
}

// Compile turns a fully transformed unit into a Program. The transformer
// guarantees the structural invariants checked here; a violation means an
// internal bug upstream, so Compile logs it and fails closed with a
// compile fault instead of executing a malformed tree.
func (ex *Executor) Compile(unit *script.Unit) (*Program, error) {
	violation := ex.checkShape(unit)
	if violation != "" {
		ex.logger.Error("refusing malformed unit",
			zap.String("source", SourceLabel),
			zap.String("violation", violation))
		return nil, types.NewErrorf(types.ErrCompile,
			"internal error compiling %s: %s", SourceLabel, violation)
	}
	return &Program{Entry: unit.Entry, Label: SourceLabel}, nil
}

func (ex *Executor) checkShape(unit *script.Unit) string {
	if unit == nil || unit.Entry == nil {
		return "missing entry point"
	}
	if unit.Entry.Name != transform.EntryName {
		return fmt.Sprintf("unexpected entry name %q", unit.Entry.Name)
	}
	if len(unit.Body) != 0 {
		return "top-level statements outside the entry"
	}
	violation := ""
	script.InspectStmts(unit.Entry.Body, func(n script.Node) bool {
		if violation != "" {
			return false
		}
		switch x := n.(type) {
		case *script.CallExpr:
			if len(x.Keywords) > 0 {
				violation = "keyword arguments survived rewriting"
				return false
			}
		case *script.AwaitExpr:
			id, ok := x.Call.Fun.(*script.Ident)
			if !ok {
				violation = "await on a non-identifier callee"
				return false
			}
			if sig, isTool := ex.reg.Tool(id.Name); !isTool || !sig.Async {
				violation = fmt.Sprintf("await on non-async callee %q", id.Name)
				return false
			}
		}
		return true
	})
	return violation
}

// Execute runs a compiled program to completion or deadline. The run
// happens on its own goroutine delivering into a one-shot channel; a
// deadline or cancellation abandons the run without waiting for it.
// The returned string is the formatted script output.
func (ex *Executor) Execute(ctx context.Context, prog *Program) (string, error) {
	runID := uuid.NewString()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, ex.cfg.Timeout)
	defer cancel()
	ctx, span := ex.tracer.Start(ctx, "sandbox.execute",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	logger := ex.logger.With(zap.String("run_id", runID))
	logger.Debug("starting run",
		zap.String("source", prog.Label),
		zap.Duration("timeout", ex.cfg.Timeout))

	type outcome struct {
		value any
		err   error
	}
	doneCh := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				doneCh <- outcome{err: types.NewErrorf(types.ErrRuntime,
					"internal error in %s: %v", prog.Label, r)}
			}
		}()
		in := &interp{
			ctx:    ctx,
			env:    NewEnvironment(ex.reg),
			runner: ex.runner,
			tracer: ex.tracer,
		}
		v, err := in.run(prog.Entry)
		doneCh <- outcome{value: v, err: err}
	}()

	var out outcome
	select {
	case out = <-doneCh:
	case <-ctx.Done():
		out = outcome{err: ctx.Err()}
	}

	duration := time.Since(start)
	err := out.err
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		err = types.NewErrorf(types.ErrTimeout,
			"execution timed out after %s", ex.cfg.Timeout).WithCause(err)
	case errors.Is(err, context.Canceled):
		err = types.NewError(types.ErrRuntime, "execution cancelled").WithCause(err)
	}
	ex.record(duration, err)

	if err != nil {
		span.RecordError(err)
		logger.Warn("run failed",
			zap.String("code", string(types.GetErrorCode(err))),
			zap.Duration("duration", duration),
			zap.Error(err))
		return "", err
	}

	logger.Debug("run finished", zap.Duration("duration", duration))
	return Format(out.value), nil
}

func (ex *Executor) record(duration time.Duration, err error) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.stats.TotalRuns++
	ex.stats.TotalDuration += duration
	switch {
	case err == nil:
		ex.stats.SuccessRuns++
	case types.GetErrorCode(err) == types.ErrTimeout:
		ex.stats.TimeoutRuns++
		ex.stats.FailedRuns++
	default:
		ex.stats.FailedRuns++
	}
}

// Stats returns a snapshot of the run counters.
func (ex *Executor) Stats() ExecutorStats {
	ex.mu.RLock()
	defer ex.mu.RUnlock()
	return ex.stats
}
