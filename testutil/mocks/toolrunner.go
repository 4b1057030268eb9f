// Package mocks holds test doubles for the engine's collaborator
// interfaces. MockToolRunner scripts tool responses with a builder API
// and records every invocation for assertions.
package mocks

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ToolFunc computes a mock tool's response.
type ToolFunc func(ctx context.Context, args []any) (any, error)

// ToolCall records one invocation seen by the runner.
type ToolCall struct {
	Name   string
	Args   []any
	Result any
	Error  error
}

// MockToolRunner implements registry.ToolRunner with scripted behavior.
// Safe for concurrent use.
type MockToolRunner struct {
	mu sync.RWMutex

	funcs   map[string]ToolFunc
	results map[string]any
	errs    map[string]error
	delays  map[string]time.Duration

	calls []ToolCall
}

// NewMockToolRunner creates an empty runner; unknown tools fail.
func NewMockToolRunner() *MockToolRunner {
	return &MockToolRunner{
		funcs:   make(map[string]ToolFunc),
		results: make(map[string]any),
		errs:    make(map[string]error),
		delays:  make(map[string]time.Duration),
	}
}

// WithFunc scripts a tool with a response function.
func (m *MockToolRunner) WithFunc(name string, fn ToolFunc) *MockToolRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs[name] = fn
	return m
}

// WithResult scripts a fixed response.
func (m *MockToolRunner) WithResult(name string, result any) *MockToolRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[name] = result
	return m
}

// WithError scripts a fixed failure.
func (m *MockToolRunner) WithError(name string, err error) *MockToolRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[name] = err
	return m
}

// WithDelay makes the tool wait before responding, or until the context
// is cancelled, whichever comes first. Used to exercise deadlines.
func (m *MockToolRunner) WithDelay(name string, d time.Duration) *MockToolRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[name] = d
	return m
}

// Invoke implements registry.ToolRunner.
func (m *MockToolRunner) Invoke(ctx context.Context, tool string, args []any) (any, error) {
	m.mu.RLock()
	delay := m.delays[tool]
	fn, hasFn := m.funcs[tool]
	result, hasResult := m.results[tool]
	scriptedErr, hasErr := m.errs[tool]
	m.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			m.record(tool, args, nil, ctx.Err())
			return nil, ctx.Err()
		}
	}

	var v any
	var err error
	switch {
	case hasErr:
		err = scriptedErr
	case hasFn:
		v, err = fn(ctx, args)
	case hasResult:
		v = result
	default:
		err = errors.New("tool not found: " + tool)
	}
	m.record(tool, args, v, err)
	return v, err
}

func (m *MockToolRunner) record(tool string, args []any, result any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ToolCall{Name: tool, Args: args, Result: result, Error: err})
}

// Calls returns a copy of the recorded invocations.
func (m *MockToolRunner) Calls() []ToolCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ToolCall{}, m.calls...)
}

// CallCount returns the number of recorded invocations.
func (m *MockToolRunner) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// CallsFor returns the recorded invocations of one tool.
func (m *MockToolRunner) CallsFor(name string) []ToolCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ToolCall
	for _, c := range m.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the call log, keeping the scripted behavior.
func (m *MockToolRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
