package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codechurn/pkg/acquire"
	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
	"github.com/Sumatoshi-tech/codechurn/pkg/export"
	"github.com/Sumatoshi-tech/codechurn/pkg/observability"
	"github.com/Sumatoshi-tech/codechurn/pkg/report"
	"github.com/Sumatoshi-tech/codechurn/pkg/upload"
)

const (
	formatPlot    = "plot"
	plotExtension = ".html"
)

var (
	// ErrNoRepositories is returned when neither arguments nor --file name a repository.
	ErrNoRepositories = errors.New("provide repository paths or URLs as arguments, or --file")
	// ErrArgsAndFile is returned when both arguments and --file are given.
	ErrArgsAndFile = errors.New("cannot combine repository arguments with --file")
	// ErrPartialFailure is returned after output was written while some
	// repositories could not be processed.
	ErrPartialFailure = errors.New("some repositories failed")
)

type extractOptions struct {
	file        string
	start       string
	end         string
	output      string
	format      string
	workers     int
	allRefs     bool
	timeout     time.Duration
	uploadURL   string
	uploadToken string
	noColor     bool
}

func newExtractCommand(global *globalOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [repository...]",
		Short: "Extract per-commit language churn for a date range",
		Example: `  codechurn extract /path/to/repo --start 2024-01-01 --end 2024-12-31
  codechurn extract https://github.com/user/repo.git -s 2024-01-01 -e 2024-12-31
  codechurn extract -f repos.txt -s 2024-01-01 -e 2024-12-31 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, global, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "file listing repositories, one per line")
	flags.StringVarP(&opts.start, "start", "s", "", "first day, YYYY-MM-DD (inclusive)")
	flags.StringVarP(&opts.end, "end", "e", "", "last day, YYYY-MM-DD (inclusive)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default commits_<start>_to_<end>.<ext>)")
	flags.StringVar(&opts.format, "format", "", "output format: xlsx, json, yaml or plot")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "repositories processed in parallel (0 = number of CPUs)")
	flags.BoolVar(&opts.allRefs, "all", false, "walk commits reachable from every branch and tag, not only HEAD")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-repository time limit (0 = none)")
	flags.StringVar(&opts.uploadURL, "upload-url", "", "upload the produced file to this endpoint")
	flags.StringVar(&opts.uploadToken, "upload-token", "", "bearer token for --upload-url")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colours in the summary")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runExtract(cmd *cobra.Command, global *globalOptions, opts *extractOptions, args []string) error {
	inputs, err := repositoryInputs(opts.file, args)
	if err != nil {
		return err
	}

	rng, err := churn.ParseDateRange(opts.start, opts.end)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	sess, err := global.open(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close(ctx)

	cfg := sess.cfg
	flags := cmd.Flags()

	if flags.Changed("workers") {
		cfg.Extract.Workers = opts.workers
	}

	if flags.Changed("all") {
		cfg.Extract.AllRefs = opts.allRefs
	}

	if flags.Changed("timeout") {
		cfg.Extract.RepoTimeout = opts.timeout
	}

	if flags.Changed("format") {
		cfg.Extract.Format = opts.format
	}

	if flags.Changed("upload-url") {
		cfg.Upload.Endpoint = opts.uploadURL
	}

	if flags.Changed("upload-token") {
		cfg.Upload.Token = opts.uploadToken
	}

	writeOutput, ext, err := outputWriter(cfg.Extract.Format)
	if err != nil {
		return err
	}

	metrics, err := observability.NewChurnMetrics(sess.providers.Meter)
	if err != nil {
		return err
	}

	opener := acquire.NewOpener(acquire.Config{
		CloneTimeout: cfg.Acquire.CloneTimeout,
		WorkDir:      cfg.Acquire.WorkDir,
		KeepClones:   cfg.Acquire.KeepClones,
		AllRefs:      cfg.Extract.AllRefs,
		Logger:       sess.logger,
	})

	agg := churn.NewAggregator(opener, churn.AggregatorConfig{
		Workers:     cfg.Extract.Workers,
		RepoTimeout: cfg.Extract.RepoTimeout,
		Logger:      sess.logger,
		Tracer:      sess.providers.Tracer,
		Recorder:    metrics,
	})

	sess.logger.InfoContext(ctx, "extracting", "repositories", len(inputs), "range", rng.String())

	ds, err := agg.Run(ctx, inputs, rng)
	if err != nil {
		return err
	}

	if !sess.quiet {
		err = report.WriteSummary(cmd.OutOrStdout(), ds, report.SummaryOptions{
			NoColor:   opts.noColor,
			Languages: sess.verbose,
		})
		if err != nil {
			return err
		}
	}

	failed := ds.Failed()

	if ds.Rows() == 0 && len(failed) == 0 {
		sess.logger.InfoContext(ctx, "no commits found in the date range")

		return nil
	}

	path := opts.output
	if path == "" {
		path = filepath.Join(cfg.Extract.OutputDir, export.BaseFileName(rng)+ext)
	}

	err = export.CreateFile(path, func(w io.Writer) error { return writeOutput(w, ds) })
	if err != nil {
		return err
	}

	sess.logger.InfoContext(ctx, "export completed", "file", path, "rows", ds.Rows())

	if cfg.Upload.Endpoint != "" {
		err = uploadFile(cmd, sess, path)
		if err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPartialFailure, len(failed), len(ds.Results))
	}

	return nil
}

// repositoryInputs returns either the positional arguments or the entries
// of the list file.
func repositoryInputs(file string, args []string) ([]string, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, ErrArgsAndFile
	case file != "":
		return acquire.ReadRepoList(file)
	case len(args) == 0:
		return nil, ErrNoRepositories
	}

	return args, nil
}

type datasetWriter func(w io.Writer, ds *churn.Dataset) error

// outputWriter maps a format name onto its writer and file extension.
func outputWriter(name string) (datasetWriter, string, error) {
	if strings.EqualFold(strings.TrimSpace(name), formatPlot) {
		return report.WritePlot, plotExtension, nil
	}

	format, err := export.ParseFormat(name)
	if err != nil {
		return nil, "", err
	}

	return func(w io.Writer, ds *churn.Dataset) error {
		return export.Write(w, format, ds)
	}, format.Extension(), nil
}

func uploadFile(cmd *cobra.Command, sess *session, path string) error {
	uploader, err := upload.New(upload.Config{
		Endpoint: sess.cfg.Upload.Endpoint,
		Token:    sess.cfg.Upload.Token,
		Timeout:  sess.cfg.Upload.Timeout,
		Logger:   sess.logger,
		Client:   sess.httpClient(),
	})
	if err != nil {
		return err
	}

	res, err := uploader.UploadFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	if !sess.quiet {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s: HTTP %d\n", filepath.Base(path), res.StatusCode)
	}

	return err
}
