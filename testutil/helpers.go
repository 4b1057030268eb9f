package testutil

import (
	"context"
	"testing"
	"time"
)

// TestContext returns a context cancelled automatically when the test
// ends, so a leaked goroutine cannot outlive its test.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout is TestContext with a deadline.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
