package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// swapLogger installs an observer-backed global logger for the test and
// restores the previous one afterwards.
func swapLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := globalLogger
	globalLogger = zap.New(core)
	t.Cleanup(func() { globalLogger = prev })
	return logs
}

func TestWithContextAttachesRunFields(t *testing.T) {
	logs := swapLogger(t)

	ctx := context.WithValue(context.Background(), RunIDKey, "run-42")
	ctx = context.WithValue(ctx, StreamKey, "csv")
	WithContext(ctx).Info("run started")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-42", fields["run_id"])
	assert.Equal(t, "csv", fields["stream"])
}

func TestWithContextWithoutValues(t *testing.T) {
	logs := swapLogger(t)

	WithContext(context.Background()).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Context)
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := newLogger(Config{Level: "loud", Encoding: "json"})
	require.Error(t, err)
}
