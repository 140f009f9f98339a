package metrics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingMetrics struct {
	NoopMetrics
	err error
}

func (f *failingMetrics) IncrementCounter(context.Context, string, uint64) error { return f.err }

func TestLogMetrics(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMetrics(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()

	require.NoError(t, m.Initialize(ctx))
	require.NoError(t, m.IncrementCounter(ctx, MetricInitializeSubmitted, 1))
	require.NoError(t, m.IncrementCounter(ctx, MetricInitializeSubmitted, 2))
	require.NoError(t, m.UpdateGauge(ctx, MetricLedgerSlot, 10))
	require.NoError(t, m.UpdateGauge(ctx, MetricLedgerSlot, 11))
	require.NoError(t, m.RecordHistogram(ctx, MetricInitializeConfirmationMillis, 12.5))
	require.NoError(t, m.Flush(ctx))

	assert.Equal(t, uint64(3), m.Counter(MetricInitializeSubmitted))
	assert.Equal(t, float64(11), m.Gauge(MetricLedgerSlot))
	assert.Equal(t, 1, m.Observations(MetricInitializeConfirmationMillis))
	assert.Zero(t, m.Counter(MetricInitializeFailed))
	assert.Contains(t, buf.String(), "metrics flush")
}

func TestCollectionCallsEveryBackend(t *testing.T) {
	ctx := context.Background()
	first := NewLogMetrics(slog.New(slog.NewTextHandler(io.Discard, nil)))
	failing := &failingMetrics{err: errors.New("backend down")}
	last := NewLogMetrics(slog.New(slog.NewTextHandler(io.Discard, nil)))

	c := NewCollection(first, failing)
	c.Add(last)
	assert.Equal(t, 3, c.Len())

	err := c.IncrementCounter(ctx, MetricInitializeSucceeded, 1)
	assert.ErrorIs(t, err, failing.err)
	assert.Equal(t, uint64(1), first.Counter(MetricInitializeSucceeded))
	assert.Equal(t, uint64(1), last.Counter(MetricInitializeSucceeded))

	require.NoError(t, c.UpdateGauge(ctx, MetricLedgerSlot, 5))
	require.NoError(t, c.RecordHistogram(ctx, MetricInitializeConfirmationMillis, 1))
	assert.Equal(t, float64(5), last.Gauge(MetricLedgerSlot))
	assert.Equal(t, 1, first.Observations(MetricInitializeConfirmationMillis))

	require.NoError(t, c.Initialize(ctx))
	require.NoError(t, c.Flush(ctx))
	require.NoError(t, c.Shutdown(ctx))
}
