// Package config loads codechurn settings from an optional YAML file and
// CODECHURN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. CODECHURN_EXTRACT_WORKERS.
const EnvPrefix = "CODECHURN"

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("workers must not be negative")
	ErrInvalidTimeout     = errors.New("timeouts must not be negative")
	ErrInvalidFormat      = errors.New("unknown output format")
	ErrInvalidLogLevel    = errors.New("unknown log level")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

var formats = map[string]bool{"xlsx": true, "json": true, "yaml": true, "plot": true} //nolint:gochecknoglobals // lookup table.

var levels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true} //nolint:gochecknoglobals // lookup table.

// Config holds all settings.
type Config struct {
	Extract   ExtractConfig   `mapstructure:"extract"`
	Acquire   AcquireConfig   `mapstructure:"acquire"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ExtractConfig controls the extraction run.
type ExtractConfig struct {
	Workers     int           `mapstructure:"workers"`
	RepoTimeout time.Duration `mapstructure:"repo_timeout"`
	AllRefs     bool          `mapstructure:"all_refs"`
	Format      string        `mapstructure:"format"`
	OutputDir   string        `mapstructure:"output_dir"`
}

// AcquireConfig controls how remote repositories are cloned.
type AcquireConfig struct {
	CloneTimeout time.Duration `mapstructure:"clone_timeout"`
	WorkDir      string        `mapstructure:"work_dir"`
	KeepClones   bool          `mapstructure:"keep_clones"`
}

// UploadConfig holds the collector endpoint.
type UploadConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName  string  `mapstructure:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// LoadConfig reads configPath, or .codechurn.yaml from the working directory
// or $HOME when configPath is empty. A missing default file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".codechurn")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	readErr := v.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("extract.workers", DefaultWorkers)
	v.SetDefault("extract.repo_timeout", DefaultRepoTimeout)
	v.SetDefault("extract.all_refs", DefaultAllRefs)
	v.SetDefault("extract.format", DefaultFormat)
	v.SetDefault("extract.output_dir", DefaultOutputDir)

	v.SetDefault("acquire.clone_timeout", DefaultCloneTimeout)
	v.SetDefault("acquire.work_dir", DefaultWorkDir)
	v.SetDefault("acquire.keep_clones", DefaultKeepClones)

	v.SetDefault("upload.endpoint", "")
	v.SetDefault("upload.token", "")
	v.SetDefault("upload.timeout", DefaultUploadTimeout)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.json", DefaultLogJSON)

	v.SetDefault("telemetry.service_name", DefaultServiceName)
	v.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	v.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	v.SetDefault("telemetry.metrics_addr", DefaultMetricsAddr)
	v.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Extract.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Extract.Workers)
	}

	if c.Extract.RepoTimeout < 0 || c.Acquire.CloneTimeout < 0 || c.Upload.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if !formats[strings.ToLower(c.Extract.Format)] {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Extract.Format)
	}

	if !levels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}
