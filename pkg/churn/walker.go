package churn

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Walker filters a History down to the commits inside a DateRange.
// Commits come out in the backend's native order; for git that is newest
// first. Out-of-range commits are skipped without ending the walk because
// commit dates are not guaranteed to be monotonic along history.
type Walker struct {
	ctx     context.Context //nolint:containedctx // the walker is a lazy iterator bound to one walk.
	rng     DateRange
	iter    CommitIter
	scanned int
}

// NewWalker validates rng before touching history and then starts the walk.
func NewWalker(ctx context.Context, history History, rng DateRange) (*Walker, error) {
	err := rng.Validate()
	if err != nil {
		return nil, err
	}

	iter, err := history.Commits(ctx)
	if err != nil {
		return nil, fmt.Errorf("start walk: %w", err)
	}

	return &Walker{ctx: ctx, rng: rng, iter: iter}, nil
}

// Next returns the next in-range commit, or io.EOF.
// The context is checked between commits.
func (w *Walker) Next() (Commit, error) {
	for {
		err := w.ctx.Err()
		if err != nil {
			return Commit{}, fmt.Errorf("walk interrupted: %w", err)
		}

		commit, err := w.iter.Next()
		if errors.Is(err, io.EOF) {
			return Commit{}, io.EOF
		}

		if err != nil {
			return Commit{}, err
		}

		w.scanned++

		if !w.rng.Contains(commit.When) {
			continue
		}

		return commit, nil
	}
}

// Scanned is the number of commits read from history so far.
func (w *Walker) Scanned() int { return w.scanned }

// Close releases the underlying iterator.
func (w *Walker) Close() {
	w.iter.Close()
}
