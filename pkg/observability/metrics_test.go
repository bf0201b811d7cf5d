package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
	"github.com/Sumatoshi-tech/codechurn/pkg/observability"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

// sumFor returns the counter value for the data point whose attribute key
// equals value.
func sumFor(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attribute.Key(key)); found && v.AsString() == value {
			return dp.Value
		}
	}

	return 0
}

func TestChurnMetrics_Counters(t *testing.T) {
	t.Parallel()

	mp, reader := setupTestMeter(t)

	cm, err := observability.NewChurnMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	cm.CommitWalked(ctx, "alpha")
	cm.CommitWalked(ctx, "alpha")
	cm.CommitWalked(ctx, "beta")
	cm.RowsEmitted(ctx, "alpha", 5)
	cm.CommitSkipped(ctx, "beta")
	cm.RowSkipped(ctx, "beta")

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumFor(t, findMetric(rm, "codechurn.commits.walked.total"), "repository", "alpha"))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "codechurn.commits.walked.total"), "repository", "beta"))
	assert.Equal(t, int64(5), sumFor(t, findMetric(rm, "codechurn.rows.emitted.total"), "repository", "alpha"))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "codechurn.commits.skipped.total"), "repository", "beta"))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "codechurn.rows.skipped.total"), "repository", "beta"))
}

func TestChurnMetrics_RepositoryFinished(t *testing.T) {
	t.Parallel()

	mp, reader := setupTestMeter(t)

	cm, err := observability.NewChurnMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	cm.RepositoryFinished(ctx, "alpha", churn.StateDone, 2*time.Second)
	cm.RepositoryFinished(ctx, "beta", churn.StateFailed, time.Second)

	rm := collectMetrics(t, reader)

	total := findMetric(rm, "codechurn.repositories.total")
	assert.Equal(t, int64(1), sumFor(t, total, "state", churn.StateDone.String()))
	assert.Equal(t, int64(1), sumFor(t, total, "state", churn.StateFailed.String()))

	duration := findMetric(rm, "codechurn.repository.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)
}

func TestHTTPMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	mp, reader := setupTestMeter(t)

	hm, err := observability.NewHTTPMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	hm.RecordRequest(ctx, "POST", 201, 100*time.Millisecond)
	hm.RecordRequest(ctx, "POST", 503, time.Second)
	hm.RecordRequest(ctx, "POST", 0, time.Second)

	rm := collectMetrics(t, reader)

	requests := findMetric(rm, "codechurn.http.requests.total")
	assert.Equal(t, int64(1), sumFor(t, requests, "status", "201"))
	assert.Equal(t, int64(1), sumFor(t, requests, "status", "503"))
	assert.Equal(t, int64(1), sumFor(t, requests, "status", "error"))

	assert.Equal(t, int64(2), sumFor(t, findMetric(rm, "codechurn.http.errors.total"), "method", "POST"))
	assert.NotNil(t, findMetric(rm, "codechurn.http.request.duration.seconds"))
}

func TestHTTPMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var hm *observability.HTTPMetrics

	assert.NotPanics(t, func() { hm.RecordRequest(context.Background(), "GET", 200, time.Millisecond) })
}
