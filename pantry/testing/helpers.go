// testing/helpers.go
package testing

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger returns a no-op logger.
func TestLogger() *zap.Logger {
	return zap.NewNop()
}

// ObservedLogger returns a logger that records every entry at or above
// level, plus the recorded entries.
func ObservedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// Context returns a context cancelled after 30s or when the test ends.
func Context(t *testing.T) context.Context {
	return ContextWithTimeout(t, 30*time.Second)
}

// ContextWithTimeout returns a context with a custom timeout.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// Eventually retries check until it passes or timeout elapses.
func Eventually(t *testing.T, check func() bool, timeout, interval time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(interval)
	}
	t.Fatal("condition not met within timeout")
}
