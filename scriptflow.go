// Package scriptflow executes untrusted scripts in a capability-scoped
// sandbox. A submitted script is parsed, validated against the
// capability registry, rewritten into an executable form, and run under
// a deadline; every submission produces exactly one ExecutionResult.
//
// Usage:
//
//	import "github.com/BaSui01/scriptflow"
//
//	engine, err := scriptflow.New(
//	    scriptflow.WithConfig(cfg),
//	    scriptflow.WithToolRunner(runner),
//	)
//	result := engine.Execute(ctx, "result = add(x=10, y=20)")
package scriptflow

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/scriptflow/config"
	"github.com/BaSui01/scriptflow/internal/metrics"
	"github.com/BaSui01/scriptflow/registry"
	"github.com/BaSui01/scriptflow/sandbox"
	"github.com/BaSui01/scriptflow/script"
	"github.com/BaSui01/scriptflow/transform"
	"github.com/BaSui01/scriptflow/types"
	"github.com/BaSui01/scriptflow/validate"
)

// Engine wires the pipeline stages around one capability registry. Safe
// for concurrent use; runs share nothing but the registry.
type Engine struct {
	reg       *registry.Registry
	validator *validate.Validator
	executor  *sandbox.Executor
	logger    *zap.Logger
	collector *metrics.Collector
}

type engineOptions struct {
	cfg        *config.Config
	runner     registry.ToolRunner
	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// Option configures the engine created by [New].
type Option func(*engineOptions)

// WithConfig supplies a loaded configuration. Defaults apply otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(o *engineOptions) { o.cfg = cfg }
}

// WithToolRunner supplies the tool invocation backend. Without one,
// every tool call fails at runtime.
func WithToolRunner(runner registry.ToolRunner) Option {
	return func(o *engineOptions) { o.runner = runner }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// WithMetrics enables Prometheus metrics on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *engineOptions) { o.metricsReg = reg }
}

// New builds an engine from the options.
func New(opts ...Option) (*Engine, error) {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.DefaultConfig()
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	reg, err := o.cfg.BuildRegistry()
	if err != nil {
		return nil, fmt.Errorf("building capability registry: %w", err)
	}

	var collector *metrics.Collector
	if o.metricsReg != nil {
		collector = metrics.NewCollector("scriptflow", o.metricsReg, o.logger)
		if o.runner != nil {
			o.runner = &instrumentedRunner{next: o.runner, collector: collector}
		}
	}

	e := &Engine{
		reg:       reg,
		validator: validate.New(reg, o.cfg.Engine.MaxToolCalls),
		executor: sandbox.NewExecutor(reg, o.runner,
			sandbox.Config{Timeout: o.cfg.Engine.Timeout}, o.logger),
		logger:    o.logger.With(zap.String("component", "engine")),
		collector: collector,
	}
	return e, nil
}

// instrumentedRunner decorates a ToolRunner with per-invocation metrics.
type instrumentedRunner struct {
	next      registry.ToolRunner
	collector *metrics.Collector
}

func (r *instrumentedRunner) Invoke(ctx context.Context, tool string, args []any) (any, error) {
	v, err := r.next.Invoke(ctx, tool, args)
	status := string(types.StatusSuccess)
	if err != nil {
		status = string(types.StatusError)
	}
	r.collector.RecordToolCall(tool, status)
	return v, err
}

// Execute runs one script submission end to end and always returns a
// structured result: it never panics out and never hangs past the
// configured deadline. Faults of every stage surface as an error
// result with the fault's message.
func (e *Engine) Execute(ctx context.Context, source string) (res *types.ExecutionResult) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine panic", zap.Any("panic", r))
			fault := types.NewErrorf(types.ErrRuntime, "internal error: %v", r)
			res = types.NewErrorResult(fault, started, time.Since(started))
		}
	}()

	value, err := e.run(ctx, source)
	total := time.Since(started)
	if err != nil {
		e.recordFailure(err, total)
		return types.NewErrorResult(err, started, total)
	}
	if e.collector != nil {
		e.collector.RecordRun(string(types.StatusSuccess), total)
	}
	return types.NewSuccessResult(value, started, total)
}

func (e *Engine) run(ctx context.Context, source string) (string, error) {
	unit, err := script.Parse(source)
	if err != nil {
		return "", err
	}
	if err := e.validator.Check(unit); err != nil {
		return "", err
	}
	rewritten, err := transform.Apply(unit, e.reg)
	if err != nil {
		return "", err
	}
	prog, err := e.executor.Compile(rewritten)
	if err != nil {
		return "", err
	}
	return e.executor.Execute(ctx, prog)
}

// ExecuteBatch runs several independent submissions with bounded
// parallelism and returns one result per source, in input order. A
// limit below 1 means unbounded.
func (e *Engine) ExecuteBatch(ctx context.Context, sources []string, limit int) []*types.ExecutionResult {
	results := make([]*types.ExecutionResult, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = e.Execute(ctx, src)
			return nil
		})
	}
	// Execute never returns an error; the group only bounds parallelism.
	_ = g.Wait()
	return results
}

// Stats returns the executor's run counters.
func (e *Engine) Stats() sandbox.ExecutorStats {
	return e.executor.Stats()
}

func (e *Engine) recordFailure(err error, total time.Duration) {
	if e.collector == nil {
		return
	}
	code := types.GetErrorCode(err)
	switch code {
	case types.ErrSyntax, types.ErrForbiddenModule, types.ErrForbiddenName,
		types.ErrCallBudgetExceeded, types.ErrUnknownParameter, types.ErrKeywordNotAllowed:
		e.collector.RecordValidationFailure(string(code))
	}
	e.collector.RecordRun(string(types.StatusError), total)
}
