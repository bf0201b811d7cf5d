// Package gitlibtest builds throwaway libgit2 repositories for tests.
package gitlibtest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codechurn/pkg/gitlib"
)

// HeadRef is the reference updated by Commit.
const HeadRef = "HEAD"

// Repo is a temporary repository whose commits are written directly as
// snapshots, without a working tree or index.
type Repo struct {
	t      testing.TB
	Path   string
	native *git2go.Repository
}

// New initializes an empty repository in a temporary directory.
func New(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &Repo{t: t, Path: dir, native: repo}
}

// Day returns noon UTC of the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// Commit records files as the complete tree of a new commit on HEAD.
func (r *Repo) Commit(message string, when time.Time, files map[string]string, parents ...gitlib.Hash) gitlib.Hash {
	r.t.Helper()

	return r.CommitOn(HeadRef, message, when, files, parents...)
}

// CommitOn is Commit against an arbitrary reference, e.g. "refs/heads/topic".
// The first parent must be the current tip of ref when ref already exists.
func (r *Repo) CommitOn(ref, message string, when time.Time, files map[string]string, parents ...gitlib.Hash) gitlib.Hash {
	r.t.Helper()

	return r.CommitAs(ref, "Test User", "test@example.com", message, when, files, parents...)
}

// CommitAs is CommitOn with an explicit author identity.
func (r *Repo) CommitAs(
	ref, name, email, message string, when time.Time, files map[string]string, parents ...gitlib.Hash,
) gitlib.Hash {
	r.t.Helper()

	treeID := r.writeTree(files)

	tree, err := r.native.LookupTree(treeID)
	require.NoError(r.t, err)

	defer tree.Free()

	parentCommits := make([]*git2go.Commit, 0, len(parents))

	for _, p := range parents {
		pc, lookupErr := r.native.LookupCommit(p.ToOid())
		require.NoError(r.t, lookupErr)

		parentCommits = append(parentCommits, pc)
	}

	defer func() {
		for _, pc := range parentCommits {
			pc.Free()
		}
	}()

	sig := &git2go.Signature{Name: name, Email: email, When: when}

	oid, err := r.native.CreateCommit(ref, sig, sig, message, tree, parentCommits...)
	require.NoError(r.t, err)

	return gitlib.HashFromOid(oid)
}

// TreeOf returns the tree hash of a commit.
func (r *Repo) TreeOf(commit gitlib.Hash) gitlib.Hash {
	r.t.Helper()

	c, err := r.native.LookupCommit(commit.ToOid())
	require.NoError(r.t, err)

	defer c.Free()

	return gitlib.HashFromOid(c.TreeId())
}

// RemoveObject deletes a loose object, simulating corrupt or truncated history.
func (r *Repo) RemoveObject(hash gitlib.Hash) {
	r.t.Helper()

	hexHash := hash.String()
	objPath := filepath.Join(r.Path, ".git", "objects", hexHash[:2], hexHash[2:])

	require.NoError(r.t, os.Remove(objPath))
}

// writeTree writes nested trees for a flat path -> content map.
func (r *Repo) writeTree(files map[string]string) *git2go.Oid {
	r.t.Helper()

	blobs := make(map[string]string, len(files))
	subdirs := make(map[string]map[string]string)

	for name, content := range files {
		dir, rest, nested := strings.Cut(name, "/")
		if !nested {
			blobs[name] = content

			continue
		}

		if subdirs[dir] == nil {
			subdirs[dir] = make(map[string]string)
		}

		subdirs[dir][rest] = content
	}

	builder, err := r.native.TreeBuilder()
	require.NoError(r.t, err)

	defer builder.Free()

	for _, name := range sortedKeys(blobs) {
		blobID, blobErr := r.native.CreateBlobFromBuffer([]byte(blobs[name]))
		require.NoError(r.t, blobErr)
		require.NoError(r.t, builder.Insert(name, blobID, git2go.FilemodeBlob))
	}

	for _, dir := range sortedKeys(subdirs) {
		subID := r.writeTree(subdirs[dir])
		require.NoError(r.t, builder.Insert(dir, subID, git2go.FilemodeTree))
	}

	treeID, err := builder.Write()
	require.NoError(r.t, err)

	return treeID
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Lines returns n newline-terminated lines.
func Lines(n int) string {
	var sb strings.Builder

	for i := range n {
		sb.WriteString("line ")
		sb.WriteString(strings.Repeat("x", i%7))
		sb.WriteString("\n")
	}

	return sb.String()
}
