// Package testutil provides testing utilities for rowmap
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/rowmap/pkg/cursor"
	"github.com/ajitpratap0/rowmap/pkg/metrics"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// ObservedLogger returns a logger that records entries at or above level.
func ObservedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// TestContext creates a context with a 30-second timeout, cancelled when
// the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestCollector returns a collector writing to a private registry, and the
// vectors behind it.
func TestCollector(name string) (*metrics.Collector, *metrics.Vectors) {
	v := metrics.NewVectors(prometheus.NewRegistry())
	return metrics.NewCollectorWith(name, v), v
}

// CancelAfter cancels once the cursor has fetched n rows.
func CancelAfter(n int, cancel context.CancelFunc) cursor.MemoryOption {
	return cursor.OnNext(func(fetched int) {
		if fetched == n {
			cancel()
		}
	})
}
