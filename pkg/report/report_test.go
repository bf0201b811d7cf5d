package report_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
	"github.com/Sumatoshi-tech/codechurn/pkg/report"
)

func dataset(t *testing.T) *churn.Dataset {
	t.Helper()

	rng, err := churn.ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	return &churn.Dataset{
		Range: rng,
		Results: []churn.RepositoryResult{
			{
				Input: "alpha", Name: "alpha", State: churn.StateDone,
				Table: &churn.Table{Name: "alpha", Rows: []churn.Row{
					{Hash: "a1", Date: d2, Language: "go", Added: 1200, Removed: 3},
					{Hash: "a2", Date: d1, Language: "python", Added: 4, Removed: 4},
				}},
				Skipped: churn.SkipReport{Commits: []churn.SkippedCommit{{Hash: "zz"}}},
			},
			{
				Input: "beta", Name: "beta", State: churn.StateDone,
				Table: &churn.Table{Name: "beta", Rows: []churn.Row{
					{Hash: "b1", Date: d1, Language: "go", Added: 10, Removed: 0},
				}},
			},
			{
				Input: "gone", Name: "gone", State: churn.StateFailed,
				Err: &churn.RepositoryError{Input: "gone", Kind: churn.FailureUnreachable, Err: errors.New("not found")},
			},
		},
	}
}

func TestLanguageTotals(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []report.LanguageTotal{
		{Language: "go", Added: 1210, Removed: 3},
		{Language: "python", Added: 4, Removed: 4},
	}, report.LanguageTotals(dataset(t)))
}

func TestDailyTotals(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []report.DailyTotal{
		{Date: "2024-01-02", Added: 14, Removed: 4},
		{Date: "2024-01-05", Added: 1200, Removed: 3},
	}, report.DailyTotals(dataset(t)))
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.WriteSummary(&buf, dataset(t), report.SummaryOptions{NoColor: true, Languages: true}))

	out := buf.String()
	assert.Contains(t, out, "Code churn 2024-01-01..2024-01-31")
	assert.Contains(t, out, "+1,204")
	assert.Contains(t, out, "+1,214")
	assert.Contains(t, out, "1,210")
	assert.Contains(t, strings.ToLower(out), "1 failed")
	assert.Contains(t, out, "failed: repository gone failed (unreachable): not found")
	assert.Contains(t, out, "python")
	assert.NotContains(t, out, "\x1b[")

	for _, name := range []string{"alpha", "beta", "gone"} {
		assert.Equal(t, 1, strings.Count(out, "│ "+name+" "), name)
	}
}

func TestWritePlot(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.WritePlot(&buf, dataset(t)))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Churn over time")
	assert.Contains(t, html, "All repositories")
	assert.Contains(t, html, "alpha")
	assert.Contains(t, html, "beta")
}
