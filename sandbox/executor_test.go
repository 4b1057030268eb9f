package sandbox

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/scriptflow/script"
	"github.com/BaSui01/scriptflow/testutil"
	"github.com/BaSui01/scriptflow/testutil/fixtures"
	"github.com/BaSui01/scriptflow/transform"
	"github.com/BaSui01/scriptflow/types"
)

func compileSource(t *testing.T, ex *Executor, src string) *Program {
	t.Helper()
	unit, err := script.Parse(src)
	require.NoError(t, err)
	rewritten, err := transform.Apply(unit, ex.reg)
	require.NoError(t, err)
	prog, err := ex.Compile(rewritten)
	require.NoError(t, err)
	return prog
}

func newTestExecutor(t *testing.T, timeout time.Duration) *Executor {
	t.Helper()
	reg, err := fixtures.StandardRegistry()
	require.NoError(t, err)
	return NewExecutor(reg, fixtures.ArithmeticRunner(), Config{Timeout: timeout}, zap.NewNop())
}

func TestCompileRejectsMissingEntry(t *testing.T) {
	ex := newTestExecutor(t, time.Second)

	_, err := ex.Compile(&script.Unit{})
	require.Error(t, err)
	assert.Equal(t, types.ErrCompile, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), SourceLabel)
}

func TestCompileRejectsSurvivingKeywords(t *testing.T) {
	ex := newTestExecutor(t, time.Second)

	// A unit that skipped the keyword-elimination pass.
	unit := &script.Unit{Entry: &script.AsyncEntry{
		Name: transform.EntryName,
		Body: []script.Stmt{
			&script.AssignStmt{Name: "result", Value: &script.CallExpr{
				Fun:      &script.Ident{Name: "add"},
				Keywords: []script.KeywordArg{{Name: "x", Value: &script.IntLit{Value: 1}}},
			}},
		},
	}}
	_, err := ex.Compile(unit)
	require.Error(t, err)
	assert.Equal(t, types.ErrCompile, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "keyword arguments")
}

func TestCompileRejectsWrongEntryName(t *testing.T) {
	ex := newTestExecutor(t, time.Second)

	unit := &script.Unit{Entry: &script.AsyncEntry{Name: "main"}}
	_, err := ex.Compile(unit)
	require.Error(t, err)
	assert.Equal(t, types.ErrCompile, types.GetErrorCode(err))
}

func TestDeadlineCancelsRun(t *testing.T) {
	reg, err := fixtures.StandardRegistry()
	require.NoError(t, err)
	runner := fixtures.ArithmeticRunner().WithDelay("add", 5*time.Second)
	ex := NewExecutor(reg, runner, Config{Timeout: 50 * time.Millisecond}, zap.NewNop())

	prog := compileSource(t, ex, "result = add(1, 2)")
	start := time.Now()
	_, err = ex.Execute(testutil.TestContext(t), prog)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, types.ErrTimeout, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, elapsed, time.Second, "deadline must cut the run short")
}

func TestCallerCancellation(t *testing.T) {
	reg, err := fixtures.StandardRegistry()
	require.NoError(t, err)
	runner := fixtures.ArithmeticRunner().WithDelay("add", 5*time.Second)
	ex := NewExecutor(reg, runner, Config{Timeout: time.Minute}, zap.NewNop())

	prog := compileSource(t, ex, "result = add(1, 2)")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = ex.Execute(ctx, prog)
	require.Error(t, err)
	assert.Equal(t, types.ErrRuntime, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "cancelled")
}

func TestStatsCounters(t *testing.T) {
	reg, err := fixtures.StandardRegistry()
	require.NoError(t, err)
	runner := fixtures.ArithmeticRunner().WithDelay("multiply", 5*time.Second)
	ex := NewExecutor(reg, runner, Config{Timeout: 50 * time.Millisecond}, zap.NewNop())

	ok := compileSource(t, ex, "result = 1 + 1")
	bad := compileSource(t, ex, "result = 1 / 0")
	slow := compileSource(t, ex, "result = multiply(2, 3)")

	ctx := testutil.TestContext(t)
	_, err = ex.Execute(ctx, ok)
	require.NoError(t, err)
	_, err = ex.Execute(ctx, bad)
	require.Error(t, err)
	_, err = ex.Execute(ctx, slow)
	require.Error(t, err)

	stats := ex.Stats()
	assert.Equal(t, int64(3), stats.TotalRuns)
	assert.Equal(t, int64(1), stats.SuccessRuns)
	assert.Equal(t, int64(2), stats.FailedRuns)
	assert.Equal(t, int64(1), stats.TimeoutRuns)
	assert.Greater(t, stats.TotalDuration, time.Duration(0))
}

func TestConcurrentRunsAreIsolated(t *testing.T) {
	ex := newTestExecutor(t, 5*time.Second)
	ctx := testutil.TestContext(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	got := make([]string, workers)
	for i := 0; i < workers; i++ {
		i := i
		prog := compileSource(t, ex, fmt.Sprintf("x = %d\nresult = x * 10", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], errs[i] = ex.Execute(ctx, prog)
		}()
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("%d", i*10), got[i])
	}
}
