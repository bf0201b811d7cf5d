package churn

import (
	"context"
	"net/url"
	"strings"
)

// History is the read-only view of one repository that the engine consumes.
type History interface {
	// Commits starts a single-pass iteration in the backend's native order.
	Commits(ctx context.Context) (CommitIter, error)
	// Changes returns the mainline diff of c: against its first parent, or
	// against the empty tree for root commits.
	Changes(ctx context.Context, c Commit) ([]FileChange, error)
}

// CommitIter yields commits until it returns io.EOF.
// A *DiffUnavailableError from Next means that one commit could not be read;
// iteration may continue.
type CommitIter interface {
	Next() (Commit, error)
	Close()
}

// Repository is an acquired History with an identifier.
type Repository interface {
	History
	// Name is the repository identifier used in rows and table names.
	Name() string
	// Close releases the repository and any acquisition resources.
	Close() error
}

// Opener acquires repositories from user input (a local path or a URL).
type Opener interface {
	Open(ctx context.Context, input string) (Repository, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, input string) (Repository, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, input string) (Repository, error) {
	return f(ctx, input)
}

// timeout is implemented by acquisition errors that represent a deadline,
// in the manner of net.Error.
type timeout interface {
	Timeout() bool
}

// RedactInput strips userinfo from URL inputs so that credentials embedded
// in a remote never reach logs, spans or metric labels. Other inputs are
// returned unchanged.
func RedactInput(input string) string {
	if !strings.Contains(input, "://") {
		return input
	}

	u, err := url.Parse(input)
	if err != nil || u.User == nil {
		return input
	}

	u.User = nil

	return u.String()
}
