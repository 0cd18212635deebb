package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
}

func TestGetDefaultsToNop(t *testing.T) {
	Set(nil)
	l := Get()
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))
}

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ctx := ContextWithQueryID(context.Background(), "q-1")
	ctx = context.WithValue(ctx, ReaderKey, "orders")
	WithContext(ctx).Info("materialized")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "q-1", fields["query_id"])
	assert.Equal(t, "orders", fields["reader"])
}
