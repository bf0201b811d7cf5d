// Package gitsource adapts a libgit2 repository to churn.Repository.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
	"github.com/Sumatoshi-tech/codechurn/pkg/gitlib"
)

// Options configures history traversal.
type Options struct {
	// AllRefs walks every reference rather than HEAD only.
	AllRefs bool
}

// Source is a churn.Repository over a libgit2 repository.
// It must only be used from one goroutine at a time.
type Source struct {
	repo    *gitlib.Repository
	name    string
	opts    Options
	onClose func() error
}

// Open opens the repository at path under the given name.
func Open(path, name string, opts Options) (*Source, error) {
	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		return nil, err
	}

	return New(repo, name, opts), nil
}

// New wraps an open repository. Close frees it.
func New(repo *gitlib.Repository, name string, opts Options) *Source {
	return &Source{repo: repo, name: name, opts: opts}
}

// OnClose registers fn to run after the repository is freed, e.g. to remove
// a temporary clone.
func (s *Source) OnClose(fn func() error) {
	s.onClose = fn
}

// Name returns the repository identifier.
func (s *Source) Name() string { return s.name }

// Path returns the on-disk location of the repository.
func (s *Source) Path() string { return s.repo.Path() }

// Close frees the repository and runs the OnClose hook.
func (s *Source) Close() error {
	if s.repo != nil {
		s.repo.Free()
		s.repo = nil
	}

	if s.onClose == nil {
		return nil
	}

	fn := s.onClose
	s.onClose = nil

	return fn()
}

// Commits walks history newest first. A repository without commits yields
// an empty iteration.
func (s *Source) Commits(ctx context.Context) (churn.CommitIter, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	iter, err := s.repo.Log(&gitlib.LogOptions{AllRefs: s.opts.AllRefs})
	if errors.Is(err, gitlib.ErrEmptyRepository) {
		return emptyIter{}, nil
	}

	if err != nil {
		return nil, err
	}

	return &commitIter{iter: iter}, nil
}

// Changes diffs c against its first parent, or the empty tree for roots.
func (s *Source) Changes(ctx context.Context, c churn.Commit) ([]churn.FileChange, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	stats, err := s.diffStats(c.Hash)
	if err != nil {
		return nil, &churn.DiffUnavailableError{Hash: c.Hash, Err: err}
	}

	changes := make([]churn.FileChange, 0, len(stats))
	for _, st := range stats {
		changes = append(changes, toChange(st))
	}

	return changes, nil
}

func (s *Source) diffStats(hexHash string) ([]gitlib.FileStat, error) {
	hash, err := gitlib.ParseHash(hexHash)
	if err != nil {
		return nil, err
	}

	commit, err := s.repo.LookupCommit(hash)
	if err != nil {
		return nil, err
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	defer tree.Free()

	var parentTree *gitlib.Tree

	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return nil, parentErr
		}
		defer parent.Free()

		parentTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("first parent %s: %w", parent.Hash(), err)
		}
		defer parentTree.Free()
	}

	return gitlib.TreeDiffStats(s.repo, parentTree, tree)
}

func toChange(st gitlib.FileStat) churn.FileChange {
	change := churn.FileChange{
		Path:    st.Path(),
		Added:   st.Added,
		Removed: st.Removed,
		Binary:  st.Binary,
	}

	switch st.Status {
	case gitlib.StatusAdded:
		change.Status = churn.StatusAdded
		change.NewID = st.NewHash.String()
	case gitlib.StatusDeleted:
		change.Status = churn.StatusDeleted
		change.OldPath = st.OldPath
		change.OldID = st.OldHash.String()
	case gitlib.StatusModified:
		change.Status = churn.StatusModified
		change.OldPath = st.OldPath
		change.OldID, change.NewID = st.OldHash.String(), st.NewHash.String()
	case gitlib.StatusRenamed:
		change.Status = churn.StatusRenamed
		change.OldPath = st.OldPath
		change.OldID, change.NewID = st.OldHash.String(), st.NewHash.String()
	}

	return change
}

// ToCommit converts libgit2 commit metadata.
func ToCommit(c *gitlib.Commit) churn.Commit {
	author := c.Author()

	who := author.Email
	if who == "" {
		who = author.Name
	}

	parents := c.ParentHashes()
	hexParents := make([]string, len(parents))

	for i, p := range parents {
		hexParents[i] = p.String()
	}

	return churn.Commit{
		Hash:    c.Hash().String(),
		Author:  who,
		When:    c.Committer().When,
		Parents: hexParents,
	}
}

type commitIter struct {
	iter *gitlib.CommitIter
}

func (it *commitIter) Next() (churn.Commit, error) {
	commit, err := it.iter.Next()
	if err != nil {
		var unreadable *gitlib.UnreadableCommitError
		if errors.As(err, &unreadable) {
			return churn.Commit{}, &churn.DiffUnavailableError{Hash: unreadable.Hash.String(), Err: unreadable.Err}
		}

		return churn.Commit{}, err
	}
	defer commit.Free()

	return ToCommit(commit), nil
}

func (it *commitIter) Close() {
	it.iter.Close()
}

type emptyIter struct{}

func (emptyIter) Next() (churn.Commit, error) { return churn.Commit{}, io.EOF }

func (emptyIter) Close() {}
