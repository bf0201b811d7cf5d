// Package export serializes a churn dataset to a spreadsheet (one sheet per
// repository), JSON, or YAML.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatXLSX, FormatJSON, FormatYAML}
}

// ParseFormat parses a case-insensitive format name. "yml" and "excel" are
// accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// BaseFileName returns commits_<start>_to_<end> without an extension.
func BaseFileName(rng churn.DateRange) string {
	return fmt.Sprintf("commits_%s_to_%s", rng.Start.Format(time.DateOnly), rng.End.Format(time.DateOnly))
}

// DefaultFileName returns commits_<start>_to_<end>.<ext>.
func DefaultFileName(rng churn.DateRange, format Format) string {
	return BaseFileName(rng) + format.Extension()
}

// Write serializes ds to w.
func Write(w io.Writer, format Format, ds *churn.Dataset) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, ds)
	case FormatJSON:
		return WriteJSON(w, ds)
	case FormatYAML:
		return WriteYAML(w, ds)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteFile writes ds to path in format. See CreateFile.
func WriteFile(path string, format Format, ds *churn.Dataset) error {
	return CreateFile(path, func(w io.Writer) error { return Write(w, format, ds) })
}

// CreateFile creates path and its parent directories and hands the file to
// write. A partially written file is removed on error.
func CreateFile(path string, write func(io.Writer) error) (err error) {
	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close output file: %w", closeErr)
		}

		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return write(f)
}
