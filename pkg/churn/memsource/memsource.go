// Package memsource is an in-memory churn.Repository built from file
// snapshots. It backs engine tests and dry runs without libgit2.
package memsource

import (
	"context"
	"crypto/sha1" //nolint:gosec // content ids mirror git object ids, not a security boundary.
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
)

// ErrUnknownCommit is returned by Changes for a commit this repository never recorded.
var ErrUnknownCommit = errors.New("unknown commit")

type node struct {
	commit churn.Commit
	files  map[string]string
}

// Repo is a synthetic history. Commits are yielded newest first, i.e. in
// reverse order of recording, so parents must be recorded before children.
type Repo struct {
	mu         sync.Mutex
	name       string
	nodes      []*node
	byHash     map[string]*node
	overrides  map[string][]churn.FileChange
	failures   map[string]error
	unreadable map[string]error
	breakAfter int
	breakErr   error
	closed     bool
}

// New creates an empty repository called name.
func New(name string) *Repo {
	return &Repo{
		name:       name,
		byHash:     make(map[string]*node),
		overrides:  make(map[string][]churn.FileChange),
		failures:   make(map[string]error),
		unreadable: make(map[string]error),
	}
}

// Name returns the repository identifier.
func (r *Repo) Name() string { return r.name }

// Commit records files as the full tree of a new commit and returns its hash.
// With no parents the commit is a root; the first parent is the mainline.
func (r *Repo) Commit(when time.Time, author string, files map[string]string, parents ...string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]string, len(files))
	for path, content := range files {
		snapshot[path] = content
	}

	hash := commitID(len(r.nodes), when, author, snapshot, parents)
	n := &node{
		commit: churn.Commit{
			Hash:    hash,
			Author:  author,
			When:    when,
			Parents: append([]string(nil), parents...),
		},
		files: snapshot,
	}

	r.nodes = append(r.nodes, n)
	r.byHash[hash] = n

	return hash
}

// SetChanges replaces the computed changes of hash with changes, verbatim.
func (r *Repo) SetChanges(hash string, changes []churn.FileChange) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.overrides[hash] = changes
}

// FailChanges makes Changes fail for hash with err.
func (r *Repo) FailChanges(hash string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures[hash] = err
}

// Unreadable makes the iterator report hash as an unreadable commit.
func (r *Repo) Unreadable(hash string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unreadable[hash] = err
}

// BreakWalk makes the iterator fail with err after yielding n commits.
func (r *Repo) BreakWalk(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.breakAfter, r.breakErr = n, err
}

// Closed reports whether Close was called.
func (r *Repo) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

// Close marks the repository closed. It is safe to call more than once.
func (r *Repo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	return nil
}

// Commits returns an iterator over a snapshot of the recorded history.
func (r *Repo) Commits(ctx context.Context) (churn.CommitIter, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order := make([]*node, len(r.nodes))
	for i, n := range r.nodes {
		order[len(r.nodes)-1-i] = n
	}

	unreadable := make(map[string]error, len(r.unreadable))
	for hash, e := range r.unreadable {
		unreadable[hash] = e
	}

	return &iter{nodes: order, unreadable: unreadable, breakAfter: r.breakAfter, breakErr: r.breakErr}, nil
}

// Changes diffs c against its first parent, or the empty tree for roots.
// Renames surface as delete+add pairs sharing a content id.
func (r *Repo) Changes(ctx context.Context, c churn.Commit) ([]churn.FileChange, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if failure, ok := r.failures[c.Hash]; ok {
		return nil, failure
	}

	if override, ok := r.overrides[c.Hash]; ok {
		return append([]churn.FileChange(nil), override...), nil
	}

	n, ok := r.byHash[c.Hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommit, c.Hash)
	}

	var parent map[string]string

	if len(n.commit.Parents) > 0 {
		p, found := r.byHash[n.commit.Parents[0]]
		if !found {
			return nil, fmt.Errorf("first parent of %s: %w: %s", c.Hash, ErrUnknownCommit, n.commit.Parents[0])
		}

		parent = p.files
	}

	return diffSnapshots(parent, n.files), nil
}

func diffSnapshots(oldFiles, newFiles map[string]string) []churn.FileChange {
	paths := make([]string, 0, len(oldFiles)+len(newFiles))

	for path := range oldFiles {
		paths = append(paths, path)
	}

	for path := range newFiles {
		if _, ok := oldFiles[path]; !ok {
			paths = append(paths, path)
		}
	}

	sort.Strings(paths)

	changes := make([]churn.FileChange, 0, len(paths))

	for _, path := range paths {
		oldContent, inOld := oldFiles[path]
		newContent, inNew := newFiles[path]

		switch {
		case inOld && inNew && oldContent == newContent:
			continue
		case !inOld:
			changes = append(changes, churn.FileChange{
				Path:   path,
				Status: churn.StatusAdded,
				Added:  countLines(newContent),
				Binary: isBinary(newContent),
				NewID:  contentID(newContent),
			})
		case !inNew:
			changes = append(changes, churn.FileChange{
				Path:    path,
				OldPath: path,
				Status:  churn.StatusDeleted,
				Removed: countLines(oldContent),
				Binary:  isBinary(oldContent),
				OldID:   contentID(oldContent),
			})
		default:
			added, removed := lineDiff(oldContent, newContent)
			changes = append(changes, churn.FileChange{
				Path:    path,
				OldPath: path,
				Status:  churn.StatusModified,
				Added:   added,
				Removed: removed,
				Binary:  isBinary(oldContent) || isBinary(newContent),
				OldID:   contentID(oldContent),
				NewID:   contentID(newContent),
			})
		}
	}

	for i := range changes {
		if changes[i].Binary {
			changes[i].Added, changes[i].Removed = 0, 0
		}
	}

	return changes
}

// lineDiff counts inserted and deleted lines with a line-mode diff.
func lineDiff(oldContent, newContent string) (added, removed int) {
	dmp := diffmatchpatch.New()
	src, dst, _ := dmp.DiffLinesToRunes(oldContent, newContent)

	for _, d := range dmp.DiffMainRunes(src, dst, false) {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += utf8.RuneCountInString(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += utf8.RuneCountInString(d.Text)
		case diffmatchpatch.DiffEqual:
		}
	}

	return added, removed
}

func countLines(content string) int {
	if content == "" {
		return 0
	}

	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}

	return n
}

func isBinary(content string) bool {
	return strings.IndexByte(content, 0) >= 0
}

// contentID hashes content the way git hashes a blob.
func contentID(content string) string {
	h := sha1.New() //nolint:gosec // see import.
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write([]byte(content))

	return hex.EncodeToString(h.Sum(nil))
}

func commitID(seq int, when time.Time, author string, files map[string]string, parents []string) string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	h := sha1.New() //nolint:gosec // see import.
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00%s\x00", seq, when.Format(time.RFC3339Nano), author, strings.Join(parents, ","))

	for _, path := range paths {
		fmt.Fprintf(h, "%s\x00%s\x00", path, contentID(files[path]))
	}

	return hex.EncodeToString(h.Sum(nil))
}

type iter struct {
	nodes      []*node
	pos        int
	unreadable map[string]error
	breakAfter int
	breakErr   error
}

func (it *iter) Next() (churn.Commit, error) {
	if it.breakErr != nil && it.pos == it.breakAfter {
		return churn.Commit{}, it.breakErr
	}

	if it.pos >= len(it.nodes) {
		return churn.Commit{}, io.EOF
	}

	n := it.nodes[it.pos]
	it.pos++

	if err, ok := it.unreadable[n.commit.Hash]; ok {
		return churn.Commit{}, &churn.DiffUnavailableError{Hash: n.commit.Hash, Err: err}
	}

	return n.commit, nil
}

func (it *iter) Close() {
	it.pos = len(it.nodes)
	it.breakErr = nil
}

// Opener resolves inputs to pre-built repositories.
type Opener map[string]*Repo

// ErrNotFound is returned by Opener for an unknown input.
var ErrNotFound = errors.New("repository not found")

// Open returns the repository registered under input.
func (o Opener) Open(ctx context.Context, input string) (churn.Repository, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	repo, ok := o[input]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, churn.RedactInput(input))
	}

	return repo, nil
}
