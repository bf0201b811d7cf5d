package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ChangeStatus classifies a file delta.
type ChangeStatus int

const (
	// StatusAdded means the file exists only in the new tree.
	StatusAdded ChangeStatus = iota
	// StatusDeleted means the file exists only in the old tree.
	StatusDeleted
	// StatusModified means the file content changed in place.
	StatusModified
	// StatusRenamed means the file moved, possibly with edits.
	StatusRenamed
)

// FileStat holds the line counts of one file delta.
type FileStat struct {
	Status  ChangeStatus
	OldPath string
	NewPath string
	OldHash Hash
	NewHash Hash
	Added   int
	Removed int
	Binary  bool
}

// Path returns the post-change path, or the pre-image path for deletions.
func (s FileStat) Path() string {
	if s.Status == StatusDeleted {
		return s.OldPath
	}

	return s.NewPath
}

// Diff wraps a libgit2 diff.
type Diff struct {
	diff *git2go.Diff
}

// NumDeltas returns the number of deltas in the diff.
func (d *Diff) NumDeltas() (int, error) {
	numDeltas, err := d.diff.NumDeltas()
	if err != nil {
		return 0, fmt.Errorf("get num deltas: %w", err)
	}

	return numDeltas, nil
}

// FileStats walks every delta line by line and returns per-file counts in the
// order libgit2 reports them (sorted by path). Binary deltas report 0/0.
func (d *Diff) FileStats() ([]FileStat, error) {
	numDeltas, err := d.NumDeltas()
	if err != nil {
		return nil, err
	}

	stats := make([]FileStat, 0, numDeltas)

	err = d.diff.ForEach(func(delta git2go.DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		status, ok := statusOf(delta.Status)
		if !ok {
			return nil, nil
		}

		stats = append(stats, FileStat{
			Status:  status,
			OldPath: delta.OldFile.Path,
			NewPath: delta.NewFile.Path,
			OldHash: HashFromOid(delta.OldFile.Oid),
			NewHash: HashFromOid(delta.NewFile.Oid),
			Binary:  delta.Flags&git2go.DiffFlagBinary != 0,
		})
		current := &stats[len(stats)-1]

		return func(_ git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			return func(line git2go.DiffLine) error {
				switch line.Origin {
				case git2go.DiffLineAddition:
					current.Added++
				case git2go.DiffLineDeletion:
					current.Removed++
				case git2go.DiffLineBinary:
					current.Binary = true
				case git2go.DiffLineContext,
					git2go.DiffLineContextEOFNL,
					git2go.DiffLineAddEOFNL,
					git2go.DiffLineDelEOFNL,
					git2go.DiffLineFileHdr,
					git2go.DiffLineHunkHdr:
				}

				return nil
			}, nil
		}, nil
	}, git2go.DiffDetailLines)
	if err != nil {
		return nil, fmt.Errorf("diff foreach: %w", err)
	}

	for i := range stats {
		if stats[i].Binary {
			stats[i].Added, stats[i].Removed = 0, 0
		}
	}

	return stats, nil
}

// statusOf maps libgit2 delta kinds onto the statuses churn cares about.
// Type changes (file <-> symlink) are reported as modifications.
func statusOf(delta git2go.Delta) (ChangeStatus, bool) {
	switch delta {
	case git2go.DeltaAdded, git2go.DeltaCopied:
		return StatusAdded, true
	case git2go.DeltaDeleted:
		return StatusDeleted, true
	case git2go.DeltaModified, git2go.DeltaTypeChange:
		return StatusModified, true
	case git2go.DeltaRenamed:
		return StatusRenamed, true
	case git2go.DeltaUnmodified, git2go.DeltaIgnored, git2go.DeltaUntracked,
		git2go.DeltaUnreadable, git2go.DeltaConflicted:
		return 0, false
	}

	return 0, false
}

// Free releases the diff resources.
func (d *Diff) Free() {
	if d.diff == nil {
		return
	}

	freeDiff(d.diff)
	d.diff = nil
}

func freeDiff(diff *git2go.Diff) {
	// Free errors are non-actionable during cleanup.
	_ = diff.Free()
}

// TreeDiffStats diffs two trees and returns per-file line counts.
// Identical tree ids short-circuit to an empty result. A nil oldTree
// means the empty tree, so every line of newTree counts as added.
func TreeDiffStats(repo *Repository, oldTree, newTree *Tree) ([]FileStat, error) {
	if oldTree != nil && newTree != nil && oldTree.Hash() == newTree.Hash() {
		return []FileStat{}, nil
	}

	diff, err := repo.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return nil, err
	}
	defer diff.Free()

	stats, err := diff.FileStats()
	if err != nil {
		return nil, err
	}

	for i := range stats {
		if !stats[i].Binary && stats[i].Added == 0 && stats[i].Removed == 0 {
			stats[i].Binary = blobIsBinary(repo, stats[i].NewHash) || blobIsBinary(repo, stats[i].OldHash)
		}
	}

	return stats, nil
}

// blobIsBinary sniffs a blob for the deltas libgit2 reported without lines.
func blobIsBinary(repo *Repository, hash Hash) bool {
	if hash.IsZero() {
		return false
	}

	blob, err := repo.LookupBlob(hash)
	if err != nil {
		return false
	}
	defer blob.Free()

	return IsBinary(blob.Contents())
}
