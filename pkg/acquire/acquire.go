// Package acquire resolves repository inputs, local paths or remote URLs,
// into open churn repositories. Remote inputs are cloned into a temporary
// directory that is removed when the repository is closed.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
	"github.com/Sumatoshi-tech/codechurn/pkg/churn/gitsource"
	"github.com/Sumatoshi-tech/codechurn/pkg/gitlib"
)

// Sentinel errors.
var (
	ErrEmptyInput    = errors.New("empty repository input")
	ErrNotFound      = errors.New("repository path does not exist")
	ErrNotRepository = errors.New("not a git repository")
	ErrTimeout       = errors.New("repository acquisition timed out")
)

// DefaultCloneTimeout bounds a single clone when Config.CloneTimeout is zero.
const DefaultCloneTimeout = 10 * time.Minute

// scpLike matches git@host:owner/repo style remotes.
var scpLike = regexp.MustCompile(`^[\w.-]+@[\w.-]+:[^/]`)

// TimeoutError is returned when a clone runs past its deadline.
type TimeoutError struct {
	Input string
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("clone %s: timed out after %s", e.Input, e.After)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Timeout reports true.
func (e *TimeoutError) Timeout() bool { return true }

// Config configures an Opener.
type Config struct {
	// CloneTimeout bounds each clone. Zero means DefaultCloneTimeout.
	CloneTimeout time.Duration
	// WorkDir is the parent of temporary clones. Empty means os.TempDir().
	WorkDir string
	// KeepClones leaves cloned repositories on disk after use.
	KeepClones bool
	// AllRefs walks every reference instead of HEAD only.
	AllRefs bool
	Logger  *slog.Logger
}

// Opener implements churn.Opener over local paths and remote URLs.
type Opener struct {
	cfg Config
}

// NewOpener creates an Opener.
func NewOpener(cfg Config) *Opener {
	if cfg.CloneTimeout <= 0 {
		cfg.CloneTimeout = DefaultCloneTimeout
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Opener{cfg: cfg}
}

// Open acquires input. Local inputs are opened in place.
func (o *Opener) Open(ctx context.Context, input string) (churn.Repository, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	if IsRemote(input) {
		return o.clone(ctx, input)
	}

	return o.openLocal(input)
}

func (o *Opener) openLocal(input string) (churn.Repository, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", input, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, abs)
		}

		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotRepository, abs)
	}

	src, err := gitsource.Open(abs, Name(abs), gitsource.Options{AllRefs: o.cfg.AllRefs})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotRepository, abs, err)
	}

	o.cfg.Logger.Debug("using local repository", "path", abs)

	return src, nil
}

func (o *Opener) clone(ctx context.Context, url string) (churn.Repository, error) {
	name := Name(url)
	redacted := churn.RedactInput(url)

	tmp, err := os.MkdirTemp(o.cfg.WorkDir, "codechurn-*")
	if err != nil {
		return nil, fmt.Errorf("create clone directory: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, o.cfg.CloneTimeout)
	defer cancel()

	start := time.Now()
	target := filepath.Join(tmp, name)

	o.cfg.Logger.Info("cloning repository", "url", redacted, "dir", target)

	repo, err := gitlib.CloneRepository(cloneCtx, url, target, gitlib.CloneOptions{Bare: true})
	if err != nil {
		removeErr := os.RemoveAll(tmp)
		if errors.Is(cloneCtx.Err(), context.DeadlineExceeded) {
			err = &TimeoutError{Input: redacted, After: time.Since(start).Round(time.Millisecond), Err: err}
		} else {
			err = fmt.Errorf("clone %s: %w", redacted, err)
		}

		return nil, errors.Join(err, removeErr)
	}

	o.cfg.Logger.Info("cloned repository", "url", redacted, "elapsed", time.Since(start).Round(time.Millisecond))

	src := gitsource.New(repo, name, gitsource.Options{AllRefs: o.cfg.AllRefs})
	src.OnClose(func() error {
		if o.cfg.KeepClones {
			o.cfg.Logger.Info("keeping clone", "url", redacted, "dir", target)

			return nil
		}

		return os.RemoveAll(tmp)
	})

	return src, nil
}

// IsRemote reports whether input names a remote repository rather than a
// local directory.
func IsRemote(input string) bool {
	if strings.Contains(input, "://") {
		return true
	}

	return scpLike.MatchString(input)
}

// Name derives a repository identifier: the base name of a local path or
// the last URL path segment without ".git".
func Name(input string) string {
	input = strings.TrimSpace(input)

	var base string

	switch {
	case strings.Contains(input, "://"):
		base = path.Base(strings.TrimRight(input, "/"))
	case scpLike.MatchString(input):
		_, rest, _ := strings.Cut(input, ":")
		base = path.Base(strings.TrimRight(rest, "/"))
	default:
		base = filepath.Base(filepath.Clean(input))
	}

	base = strings.TrimSuffix(base, ".git")
	if base == "" || base == "." || base == "/" || base == string(filepath.Separator) {
		return "repository"
	}

	return base
}
