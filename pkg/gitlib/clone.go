package gitlib

import (
	"context"
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrCloneAborted is returned when a clone is interrupted by its context.
var ErrCloneAborted = errors.New("clone aborted")

// CloneOptions configures CloneRepository.
type CloneOptions struct {
	// Bare skips the working tree checkout; history access does not need it.
	Bare bool
}

// CloneRepository clones url into dir and opens it.
// The context is polled from the transfer progress callback, so a deadline
// aborts the transfer with an error wrapping both ErrCloneAborted and ctx.Err().
func CloneRepository(ctx context.Context, url, dir string, opts CloneOptions) (*Repository, error) {
	cloneOpts := &git2go.CloneOptions{
		Bare: opts.Bare,
		FetchOptions: git2go.FetchOptions{
			RemoteCallbacks: git2go.RemoteCallbacks{
				TransferProgressCallback: func(_ git2go.TransferProgress) error {
					return ctx.Err()
				},
				SidebandProgressCallback: func(_ string) error {
					return ctx.Err()
				},
			},
		},
	}

	err := ctx.Err()
	if err != nil {
		return nil, errors.Join(ErrCloneAborted, err)
	}

	repo, err := git2go.Clone(url, dir, cloneOpts)
	if err != nil {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return nil, errors.Join(ErrCloneAborted, ctxErr)
		}

		return nil, fmt.Errorf("clone into %s: %w", dir, err)
	}

	return &Repository{repo: repo, path: dir}, nil
}
