package churn_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
	"github.com/Sumatoshi-tech/codechurn/pkg/churn/memsource"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end string) churn.DateRange {
	t.Helper()

	rng, err := churn.ParseDateRange(start, end)
	require.NoError(t, err)

	return rng
}

func walkAll(t *testing.T, w *churn.Walker) []string {
	t.Helper()

	var hashes []string

	for {
		c, err := w.Next()
		if errors.Is(err, io.EOF) {
			return hashes
		}

		require.NoError(t, err)

		hashes = append(hashes, c.Hash)
	}
}

// countingHistory records whether traversal was started.
type countingHistory struct {
	churn.History
	started bool
}

func (h *countingHistory) Commits(ctx context.Context) (churn.CommitIter, error) {
	h.started = true

	return h.History.Commits(ctx)
}

func TestWalker_FiltersByDate(t *testing.T) {
	t.Parallel()

	repo := memsource.New("demo")
	c1 := repo.Commit(day(2023, 12, 31), "a", nil)
	c2 := repo.Commit(day(2024, 1, 1), "a", nil, c1)
	c3 := repo.Commit(day(2024, 1, 15), "a", nil, c2)
	c4 := repo.Commit(day(2024, 2, 1), "a", nil, c3)

	w, err := churn.NewWalker(context.Background(), repo, mustRange(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, err)

	defer w.Close()

	got := walkAll(t, w)
	assert.Equal(t, []string{c3, c2}, got)
	assert.NotContains(t, got, c4)
	assert.Equal(t, 4, w.Scanned())
}

func TestWalker_OutOfOrderDatesDoNotStopTheWalk(t *testing.T) {
	t.Parallel()

	repo := memsource.New("demo")
	c1 := repo.Commit(day(2024, 1, 10), "a", nil)
	// A skewed clock puts this commit before the range although its
	// parent is inside it.
	c2 := repo.Commit(day(2020, 1, 1), "a", nil, c1)
	c3 := repo.Commit(day(2024, 1, 12), "a", nil, c2)

	w, err := churn.NewWalker(context.Background(), repo, mustRange(t, "2024-01-01", "2024-01-31"))
	require.NoError(t, err)

	defer w.Close()

	assert.Equal(t, []string{c3, c1}, walkAll(t, w))
}

func TestWalker_InvalidRangeBeforeTraversal(t *testing.T) {
	t.Parallel()

	history := &countingHistory{History: memsource.New("demo")}

	_, err := churn.NewWalker(context.Background(), history, churn.DateRange{
		Start: day(2024, 2, 1),
		End:   day(2024, 1, 1),
	})

	require.ErrorIs(t, err, churn.ErrInvalidRange)
	assert.False(t, history.started)
}

func TestWalker_ContextCancelled(t *testing.T) {
	t.Parallel()

	repo := memsource.New("demo")
	repo.Commit(day(2024, 1, 1), "a", nil)

	ctx, cancel := context.WithCancel(context.Background())

	w, err := churn.NewWalker(ctx, repo, mustRange(t, "2024-01-01", "2024-01-01"))
	require.NoError(t, err)

	defer w.Close()

	cancel()

	_, err = w.Next()
	require.ErrorIs(t, err, context.Canceled)
}
