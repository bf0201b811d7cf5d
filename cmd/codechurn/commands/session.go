package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Sumatoshi-tech/codechurn/pkg/config"
	"github.com/Sumatoshi-tech/codechurn/pkg/observability"
	"github.com/Sumatoshi-tech/codechurn/pkg/version"
)

// session is the per-invocation runtime shared by commands: loaded config,
// telemetry providers and the optional diagnostics server.
type session struct {
	cfg         *config.Config
	providers   observability.Providers
	logger      *slog.Logger
	diagnostics *observability.DiagnosticsServer
	httpMetrics *observability.HTTPMetrics
	quiet       bool
	verbose     bool
}

func (o *globalOptions) open(ctx context.Context, logOutput io.Writer) (*session, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	level, err := observability.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	switch {
	case o.verbose:
		level = slog.LevelDebug
	case o.quiet:
		level = slog.LevelError
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceName = cfg.Telemetry.ServiceName
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.Prometheus = cfg.Telemetry.MetricsAddr != ""
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON || o.logJSON
	obsCfg.LogOutput = logOutput

	providers, err := observability.Init(ctx, obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	s := &session{
		cfg:       cfg,
		providers: providers,
		logger:    providers.Logger,
		quiet:     o.quiet,
		verbose:   o.verbose,
	}

	s.httpMetrics, err = observability.NewHTTPMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(ctx))
	}

	if cfg.Telemetry.MetricsAddr != "" {
		s.diagnostics, err = observability.NewDiagnosticsServer(ctx, cfg.Telemetry.MetricsAddr, providers.MetricsHandler)
		if err != nil {
			return nil, errors.Join(err, providers.Shutdown(ctx))
		}

		s.logger.Info("serving metrics", "addr", s.diagnostics.Addr())
	}

	return s, nil
}

// httpClient returns a client whose requests are traced and measured.
func (s *session) httpClient() *http.Client {
	return &http.Client{Transport: observability.NewTransport(nil, s.providers.Tracer, s.httpMetrics)}
}

// close stops the diagnostics server and flushes telemetry. Failures are
// logged since the command result is already decided.
func (s *session) close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if s.diagnostics != nil {
		err := s.diagnostics.Close(ctx)
		if err != nil {
			s.logger.Warn("diagnostics shutdown failed", "error", err)
		}
	}

	err := s.providers.Shutdown(ctx)
	if err != nil {
		s.logger.Warn("observability shutdown failed", "error", err)
	}
}
