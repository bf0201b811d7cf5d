package churn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
	"github.com/Sumatoshi-tech/codechurn/pkg/churn/memsource"
)

func TestNormalize_LastWriteWins(t *testing.T) {
	t.Parallel()

	got := churn.Normalize([]churn.FileChange{
		{Path: "a.go", Added: 1},
		{Path: "b.go", Added: 2},
		{Path: "a.go", Added: 7, Removed: 3},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "a.go", got[0].Path)
	assert.Equal(t, 7, got[0].Added)
	assert.Equal(t, 3, got[0].Removed)
	assert.Equal(t, "b.go", got[1].Path)
}

func TestNormalize_CollapsesRenamePairs(t *testing.T) {
	t.Parallel()

	got := churn.Normalize([]churn.FileChange{
		{Path: "new.go", Status: churn.StatusAdded, Added: 4, NewID: "abc"},
		{Path: "keep.go", Status: churn.StatusModified, Added: 1, OldID: "k1", NewID: "k2"},
		{Path: "old.go", OldPath: "old.go", Status: churn.StatusDeleted, Removed: 4, OldID: "abc"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, churn.FileChange{
		Path: "new.go", OldPath: "old.go", Status: churn.StatusRenamed, OldID: "abc", NewID: "abc",
	}, got[0])
	assert.Equal(t, "keep.go", got[1].Path)
}

func TestNormalize_UnpairedAddAndDeleteStay(t *testing.T) {
	t.Parallel()

	got := churn.Normalize([]churn.FileChange{
		{Path: "new.go", Status: churn.StatusAdded, Added: 4, NewID: "abc"},
		{Path: "old.go", Status: churn.StatusDeleted, Removed: 2, OldID: "def"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, churn.StatusAdded, got[0].Status)
	assert.Equal(t, churn.StatusDeleted, got[1].Status)
}

func TestNormalize_BinaryZeroed(t *testing.T) {
	t.Parallel()

	got := churn.Normalize([]churn.FileChange{{Path: "logo.png", Binary: true, Added: 12, Removed: 3}})

	require.Len(t, got, 1)
	assert.Zero(t, got[0].Added)
	assert.Zero(t, got[0].Removed)
}

func TestExtract_WrapsBackendFailure(t *testing.T) {
	t.Parallel()

	repo := memsource.New("demo")
	hash := repo.Commit(day(2024, 1, 1), "dev@example.com", map[string]string{"a.go": "1\n"})
	cause := errors.New("object missing")
	repo.FailChanges(hash, cause)

	_, err := churn.NewExtractor(repo).Extract(context.Background(), churn.Commit{Hash: hash})
	require.ErrorIs(t, err, churn.ErrDiffUnavailable)
	require.ErrorIs(t, err, cause)

	var unavailable *churn.DiffUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, hash, unavailable.Hash)
}

func TestExtract_MergeWithoutMainlineChanges(t *testing.T) {
	t.Parallel()

	repo := memsource.New("demo")
	root := repo.Commit(day(2024, 1, 1), "dev@example.com", map[string]string{"a.go": "1\n"})
	side := repo.Commit(day(2024, 1, 2), "dev@example.com", map[string]string{"a.go": "1\n", "b.go": "2\n"}, root)
	merge := repo.Commit(day(2024, 1, 3), "dev@example.com", map[string]string{"a.go": "1\n"}, root, side)

	changes, err := churn.NewExtractor(repo).Extract(context.Background(), churn.Commit{Hash: merge, Parents: []string{root, side}})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestExtract_RootCountsAllLines(t *testing.T) {
	t.Parallel()

	files := map[string]string{"a.py": "1\n2\n3\n", "b/c.go": "package c\n\nfunc C() {}\n", "d.md": "# d"}
	repo := memsource.New("demo")
	root := repo.Commit(day(2024, 1, 1), "dev@example.com", files)

	changes, err := churn.NewExtractor(repo).Extract(context.Background(), churn.Commit{Hash: root})
	require.NoError(t, err)

	total := 0
	for _, c := range changes {
		assert.Zero(t, c.Removed)
		total += c.Added
	}

	assert.Equal(t, 7, total)
}
