package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
)

const (
	metricCommitsWalked      = "codechurn.commits.walked.total"
	metricCommitsSkipped     = "codechurn.commits.skipped.total"
	metricRowsEmitted        = "codechurn.rows.emitted.total"
	metricRowsSkipped        = "codechurn.rows.skipped.total"
	metricRepositoriesTotal  = "codechurn.repositories.total"
	metricRepositoryDuration = "codechurn.repository.duration.seconds"

	metricHTTPRequestsTotal   = "codechurn.http.requests.total"
	metricHTTPRequestDuration = "codechurn.http.request.duration.seconds"
	metricHTTPErrorsTotal     = "codechurn.http.errors.total"

	attrRepository = "repository"
	attrState      = "state"
	attrMethod     = "method"
	attrStatus     = "status"
)

// durationBucketBoundaries covers 10ms to 600s; small repositories finish in
// well under a second while large clones take minutes.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

var _ churn.Recorder = (*ChurnMetrics)(nil)

// ChurnMetrics records extraction progress as OTel instruments.
// It implements churn.Recorder.
type ChurnMetrics struct {
	commitsWalked      metric.Int64Counter
	commitsSkipped     metric.Int64Counter
	rowsEmitted        metric.Int64Counter
	rowsSkipped        metric.Int64Counter
	repositoriesTotal  metric.Int64Counter
	repositoryDuration metric.Float64Histogram
}

// NewChurnMetrics creates the extraction instruments from mt.
func NewChurnMetrics(mt metric.Meter) (*ChurnMetrics, error) {
	var (
		cm  ChurnMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&cm.commitsWalked, metricCommitsWalked, "Commits visited inside the date range", "{commit}"},
		{&cm.commitsSkipped, metricCommitsSkipped, "Commits skipped because their diff was unavailable", "{commit}"},
		{&cm.rowsEmitted, metricRowsEmitted, "Rows appended to repository tables", "{row}"},
		{&cm.rowsSkipped, metricRowsSkipped, "Rows rejected by integrity checks", "{row}"},
		{&cm.repositoriesTotal, metricRepositoriesTotal, "Repositories processed by final state", "{repository}"},
	}

	for _, c := range counters {
		*c.dst, err = mt.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	cm.repositoryDuration, err = mt.Float64Histogram(metricRepositoryDuration,
		metric.WithDescription("Per-repository processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRepositoryDuration, err)
	}

	return &cm, nil
}

func repoAttr(repository string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(attrRepository, repository))
}

// CommitWalked counts one visited commit.
func (cm *ChurnMetrics) CommitWalked(ctx context.Context, repository string) {
	cm.commitsWalked.Add(ctx, 1, repoAttr(repository))
}

// RowsEmitted counts n appended rows.
func (cm *ChurnMetrics) RowsEmitted(ctx context.Context, repository string, n int) {
	cm.rowsEmitted.Add(ctx, int64(n), repoAttr(repository))
}

// CommitSkipped counts one skipped commit.
func (cm *ChurnMetrics) CommitSkipped(ctx context.Context, repository string) {
	cm.commitsSkipped.Add(ctx, 1, repoAttr(repository))
}

// RowSkipped counts one rejected row.
func (cm *ChurnMetrics) RowSkipped(ctx context.Context, repository string) {
	cm.rowsSkipped.Add(ctx, 1, repoAttr(repository))
}

// RepositoryFinished records the final state and duration of one repository.
func (cm *ChurnMetrics) RepositoryFinished(
	ctx context.Context, repository string, state churn.State, duration time.Duration,
) {
	attrs := metric.WithAttributes(
		attribute.String(attrRepository, repository),
		attribute.String(attrState, state.String()),
	)

	cm.repositoriesTotal.Add(ctx, 1, attrs)
	cm.repositoryDuration.Record(ctx, duration.Seconds(), attrs)
}

// HTTPMetrics holds rate, error and duration instruments for outbound requests.
type HTTPMetrics struct {
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorsTotal     metric.Int64Counter
}

// NewHTTPMetrics creates the outbound request instruments from mt.
func NewHTTPMetrics(mt metric.Meter) (*HTTPMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricHTTPRequestsTotal,
		metric.WithDescription("Total outbound HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricHTTPRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricHTTPRequestDuration,
		metric.WithDescription("Outbound HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricHTTPRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricHTTPErrorsTotal,
		metric.WithDescription("Outbound HTTP requests that failed or returned 5xx"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricHTTPErrorsTotal, err)
	}

	return &HTTPMetrics{
		requestsTotal:   reqTotal,
		requestDuration: reqDuration,
		errorsTotal:     errTotal,
	}, nil
}

// RecordRequest records one completed request. A status of zero means the
// round trip failed before a response arrived.
func (hm *HTTPMetrics) RecordRequest(ctx context.Context, method string, status int, duration time.Duration) {
	if hm == nil {
		return
	}

	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrStatus, statusLabel),
	)

	hm.requestsTotal.Add(ctx, 1, attrs)
	hm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == 0 || status >= httpStatusServerError {
		hm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMethod, method)))
	}
}
