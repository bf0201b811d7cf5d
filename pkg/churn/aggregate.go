package churn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "codechurn/churn"

// State is the lifecycle of one repository inside a run.
type State int

// Repository states.
const (
	StatePending State = iota
	StateWalking
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateWalking:
		return "walking"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}

	return "unknown"
}

// SkippedCommit is a commit left out because it could not be diffed.
type SkippedCommit struct {
	Hash string
	Err  error
}

// SkipReport lists everything dropped from a table.
type SkipReport struct {
	Commits []SkippedCommit
	Rows    []SkippedRow
}

// Empty reports whether nothing was skipped.
func (s SkipReport) Empty() bool {
	return len(s.Commits) == 0 && len(s.Rows) == 0
}

// RepositoryResult is the outcome for one input.
type RepositoryResult struct {
	Input string
	// Name is the repository identifier, or the redacted Input when it could
	// not be opened. Names of completed results are unique within a Dataset.
	Name     string
	State    State
	Table    *Table
	Err      error
	Skipped  SkipReport
	Scanned  int
	Duration time.Duration
}

// Dataset is the result of a run, in input order.
type Dataset struct {
	Range   DateRange
	Results []RepositoryResult
}

// OK reports whether every repository completed.
func (d *Dataset) OK() bool {
	for i := range d.Results {
		if d.Results[i].State != StateDone {
			return false
		}
	}

	return true
}

// Tables returns the completed tables in input order.
func (d *Dataset) Tables() []*Table {
	tables := make([]*Table, 0, len(d.Results))

	for i := range d.Results {
		if d.Results[i].State == StateDone {
			tables = append(tables, d.Results[i].Table)
		}
	}

	return tables
}

// Failed returns the failed results in input order.
func (d *Dataset) Failed() []RepositoryResult {
	var failed []RepositoryResult

	for i := range d.Results {
		if d.Results[i].State == StateFailed {
			failed = append(failed, d.Results[i])
		}
	}

	return failed
}

// Skipped totals skipped commits and rows over all repositories.
func (d *Dataset) Skipped() (commits, rows int) {
	for i := range d.Results {
		commits += len(d.Results[i].Skipped.Commits)
		rows += len(d.Results[i].Skipped.Rows)
	}

	return commits, rows
}

// Rows totals rows over all completed tables.
func (d *Dataset) Rows() int {
	n := 0
	for _, t := range d.Tables() {
		n += len(t.Rows)
	}

	return n
}

// Recorder receives progress events. Implementations must be safe for
// concurrent use since repositories run in parallel.
type Recorder interface {
	CommitWalked(ctx context.Context, repository string)
	RowsEmitted(ctx context.Context, repository string, n int)
	CommitSkipped(ctx context.Context, repository string)
	RowSkipped(ctx context.Context, repository string)
	RepositoryFinished(ctx context.Context, repository string, state State, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) CommitWalked(context.Context, string)                             {}
func (nopRecorder) RowsEmitted(context.Context, string, int)                         {}
func (nopRecorder) CommitSkipped(context.Context, string)                            {}
func (nopRecorder) RowSkipped(context.Context, string)                               {}
func (nopRecorder) RepositoryFinished(context.Context, string, State, time.Duration) {}

// AggregatorConfig configures an Aggregator. Zero values select defaults.
type AggregatorConfig struct {
	// Workers bounds how many repositories are processed at once.
	// Zero means runtime.NumCPU().
	Workers int
	// RepoTimeout bounds acquisition plus walk of each repository. Zero disables it.
	RepoTimeout time.Duration
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Recorder    Recorder
}

// Aggregator runs the extraction pipeline over many repositories.
type Aggregator struct {
	opener   Opener
	workers  int
	timeout  time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// NewAggregator creates an Aggregator that acquires repositories with opener.
func NewAggregator(opener Opener, cfg AggregatorConfig) *Aggregator {
	agg := &Aggregator{
		opener:   opener,
		workers:  cfg.Workers,
		timeout:  cfg.RepoTimeout,
		logger:   cfg.Logger,
		tracer:   cfg.Tracer,
		recorder: cfg.Recorder,
	}

	if agg.workers <= 0 {
		agg.workers = runtime.NumCPU()
	}

	if agg.logger == nil {
		agg.logger = slog.Default()
	}

	if agg.tracer == nil {
		agg.tracer = otel.Tracer(tracerName)
	}

	if agg.recorder == nil {
		agg.recorder = nopRecorder{}
	}

	return agg
}

// Run processes inputs and returns one result per input, in input order.
// The only errors returned are ErrInvalidRange and ErrNilOpener; every other
// failure is confined to its repository's result.
func (a *Aggregator) Run(ctx context.Context, inputs []string, rng DateRange) (*Dataset, error) {
	err := rng.Validate()
	if err != nil {
		return nil, err
	}

	if a.opener == nil {
		return nil, ErrNilOpener
	}

	results := make([]RepositoryResult, len(inputs))
	for i, input := range inputs {
		results[i] = RepositoryResult{Input: input, Name: RedactInput(input), State: StatePending}
	}

	var group errgroup.Group

	group.SetLimit(a.workers)

	for i := range inputs {
		group.Go(func() error {
			a.process(ctx, &results[i], rng)

			return nil
		})
	}

	// Workers never return errors; failures live in results.
	_ = group.Wait()

	a.uniqueNames(ctx, results)

	return &Dataset{Range: rng, Results: results}, nil
}

// uniqueNames keeps the first completed result with a given name and renames
// later ones after their input, so that (hash, repository, path) stays unique
// across tables when forks or repeated inputs resolve to the same name.
func (a *Aggregator) uniqueNames(ctx context.Context, results []RepositoryResult) {
	taken := make(map[string]struct{}, len(results))

	for i := range results {
		result := &results[i]
		if result.State != StateDone {
			continue
		}

		name := result.Name
		if _, dup := taken[name]; dup {
			base := RedactInput(result.Input)
			name = base

			for n := 2; ; n++ {
				if _, dup = taken[name]; !dup {
					break
				}

				name = fmt.Sprintf("%s#%d", base, n)
			}

			a.logger.WarnContext(ctx, "repository name already used, renaming",
				"repository", result.Name, "renamed", name)
			result.rename(name)
		}

		taken[name] = struct{}{}
	}
}

func (r *RepositoryResult) rename(name string) {
	r.Name = name

	if r.Table == nil {
		return
	}

	r.Table.Name = name
	for i := range r.Table.Rows {
		r.Table.Rows[i].Repository = name
	}
}

func (a *Aggregator) process(ctx context.Context, result *RepositoryResult, rng DateRange) {
	start := time.Now()

	ctx, span := a.tracer.Start(ctx, "churn.repository",
		trace.WithAttributes(attribute.String("repository.input", result.Name)))
	defer span.End()

	if a.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	defer func() {
		result.Duration = time.Since(start)
		a.recorder.RepositoryFinished(ctx, result.Name, result.State, result.Duration)

		span.SetAttributes(
			attribute.String("repository.name", result.Name),
			attribute.String("repository.state", result.State.String()),
		)

		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Err.Error())
		}
	}()

	repo, err := a.opener.Open(ctx, result.Input)
	if err != nil {
		a.fail(result, classifyOpenError(err), err)

		return
	}

	defer func() {
		closeErr := repo.Close()
		if closeErr != nil {
			a.logger.WarnContext(ctx, "close repository", "repository", result.Name, "error", closeErr)
		}
	}()

	result.Name = repo.Name()
	result.State = StateWalking

	a.logger.InfoContext(ctx, "walking repository", "repository", result.Name, "range", rng.String())

	table, skipped, scanned, err := a.collect(ctx, repo, rng)
	result.Skipped = skipped
	result.Scanned = scanned

	if err != nil {
		a.fail(result, classifyWalkError(err), err)

		return
	}

	result.Table = table
	result.State = StateDone

	a.logger.InfoContext(ctx, "repository done",
		"repository", result.Name,
		"commits_scanned", scanned,
		"rows", len(table.Rows),
		"skipped_commits", len(skipped.Commits),
		"skipped_rows", len(skipped.Rows))
}

func (a *Aggregator) fail(result *RepositoryResult, kind FailureKind, err error) {
	result.State = StateFailed
	result.Err = &RepositoryError{Input: result.Input, Kind: kind, Err: err}

	a.logger.Error("repository failed", "repository", result.Name, "kind", kind.String(), "error", err)
}

// collect runs walker, extractor and row builder over one repository.
func (a *Aggregator) collect(ctx context.Context, repo Repository, rng DateRange) (*Table, SkipReport, int, error) {
	name := repo.Name()
	table := &Table{Name: name}

	var skipped SkipReport

	walker, err := NewWalker(ctx, repo, rng)
	if err != nil {
		return nil, skipped, 0, err
	}
	defer walker.Close()

	extractor := NewExtractor(repo)
	seen := make(map[string]struct{})

	for {
		commit, nextErr := walker.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}

		if errors.Is(nextErr, ErrDiffUnavailable) {
			skipped.Commits = append(skipped.Commits, a.skipCommit(ctx, name, nextErr))

			continue
		}

		if nextErr != nil {
			return nil, skipped, walker.Scanned(), nextErr
		}

		if _, dup := seen[commit.Hash]; dup {
			continue
		}

		seen[commit.Hash] = struct{}{}

		a.recorder.CommitWalked(ctx, name)

		changes, extractErr := extractor.Extract(ctx, commit)
		if extractErr != nil {
			skipped.Commits = append(skipped.Commits, a.skipCommit(ctx, name, extractErr))

			continue
		}

		rows, badRows := BuildRows(name, commit, changes)
		for _, bad := range badRows {
			a.logger.WarnContext(ctx, "skipping row", "repository", name, "commit", bad.Hash, "path", bad.Path, "error", bad.Err)
			a.recorder.RowSkipped(ctx, name)
		}

		skipped.Rows = append(skipped.Rows, badRows...)
		table.Rows = append(table.Rows, rows...)
		a.recorder.RowsEmitted(ctx, name, len(rows))
	}

	return table, skipped, walker.Scanned(), nil
}

func (a *Aggregator) skipCommit(ctx context.Context, repository string, err error) SkippedCommit {
	skip := SkippedCommit{Err: err}

	var unavailable *DiffUnavailableError
	if errors.As(err, &unavailable) {
		skip.Hash = unavailable.Hash
	}

	a.logger.WarnContext(ctx, "skipping commit", "repository", repository, "commit", skip.Hash, "error", err)
	a.recorder.CommitSkipped(ctx, repository)

	return skip
}

func classifyOpenError(err error) FailureKind {
	if isTimeout(err) {
		return FailureTimeout
	}

	return FailureUnreachable
}

func classifyWalkError(err error) FailureKind {
	if isTimeout(err) {
		return FailureTimeout
	}

	return FailureWalk
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var t timeout
	if errors.As(err, &t) {
		return t.Timeout()
	}

	return false
}

// Collect runs the pipeline over a single already-open repository without
// the concurrency and failure bookkeeping of Run.
func Collect(ctx context.Context, repo Repository, rng DateRange) (*Table, SkipReport, error) {
	agg := NewAggregator(nil, AggregatorConfig{Workers: 1})

	table, skipped, _, err := agg.collect(ctx, repo, rng)
	if err != nil {
		return nil, skipped, fmt.Errorf("collect %s: %w", repo.Name(), err)
	}

	return table, skipped, nil
}
