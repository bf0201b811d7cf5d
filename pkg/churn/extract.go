package churn

import (
	"context"
	"errors"
)

// Extractor computes the normalized mainline FileChanges of commits.
type Extractor struct {
	history History
}

// NewExtractor creates an Extractor over history.
func NewExtractor(history History) *Extractor {
	return &Extractor{history: history}
}

// Extract returns one FileChange per path changed by c against its first
// parent. Any backend failure is reported as a *DiffUnavailableError scoped
// to c so the caller can skip the commit.
func (e *Extractor) Extract(ctx context.Context, c Commit) ([]FileChange, error) {
	changes, err := e.history.Changes(ctx, c)
	if err != nil {
		var unavailable *DiffUnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}

		return nil, &DiffUnavailableError{Hash: c.Hash, Err: err}
	}

	return Normalize(changes), nil
}

// Normalize collapses delete+add pairs with identical content into renames,
// keeps a single record per path (the last one reported wins, at the position
// of the first) and zeroes the counts of binary files.
func Normalize(changes []FileChange) []FileChange {
	changes = collapseRenames(changes)

	out := make([]FileChange, 0, len(changes))
	index := make(map[string]int, len(changes))

	for _, change := range changes {
		if change.Binary {
			change.Added, change.Removed = 0, 0
		}

		if i, ok := index[change.Path]; ok {
			out[i] = change

			continue
		}

		index[change.Path] = len(out)
		out = append(out, change)
	}

	return out
}

// collapseRenames pairs deletions with additions of the same content. The
// rename takes the position of the addition and carries no line counts.
func collapseRenames(changes []FileChange) []FileChange {
	deletedByID := make(map[string][]int)

	for i, c := range changes {
		if c.Status == StatusDeleted && c.OldID != "" {
			deletedByID[c.OldID] = append(deletedByID[c.OldID], i)
		}
	}

	if len(deletedByID) == 0 {
		return changes
	}

	consumed := make(map[int]bool)
	renamed := make(map[int]FileChange)

	for i, c := range changes {
		if c.Status != StatusAdded || c.NewID == "" {
			continue
		}

		candidates := deletedByID[c.NewID]
		if len(candidates) == 0 {
			continue
		}

		del := changes[candidates[0]]
		deletedByID[c.NewID] = candidates[1:]
		consumed[candidates[0]] = true

		renamed[i] = FileChange{
			Path:    c.Path,
			OldPath: del.Path,
			Status:  StatusRenamed,
			Binary:  c.Binary || del.Binary,
			OldID:   del.OldID,
			NewID:   c.NewID,
		}
	}

	if len(renamed) == 0 {
		return changes
	}

	out := make([]FileChange, 0, len(changes)-len(consumed))

	for i, c := range changes {
		if consumed[i] {
			continue
		}

		if r, ok := renamed[i]; ok {
			c = r
		}

		out = append(out, c)
	}

	return out
}
