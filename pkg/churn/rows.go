package churn

import (
	"github.com/Sumatoshi-tech/codechurn/pkg/languages"
)

// SkippedRow is a FileChange that was rejected by BuildRows.
type SkippedRow struct {
	Hash string
	Path string
	Err  error
}

// BuildRows turns the changes of one commit into rows. Changes with negative
// counts are rejected with a *DataIntegrityError and never become rows.
func BuildRows(repository string, c Commit, changes []FileChange) ([]Row, []SkippedRow) {
	rows := make([]Row, 0, len(changes))

	var skipped []SkippedRow

	date := commitDate(c.When)

	for _, change := range changes {
		if change.Added < 0 || change.Removed < 0 {
			skipped = append(skipped, SkippedRow{
				Hash: c.Hash,
				Path: change.Path,
				Err: &DataIntegrityError{
					Hash:    c.Hash,
					Path:    change.Path,
					Added:   change.Added,
					Removed: change.Removed,
				},
			})

			continue
		}

		rows = append(rows, Row{
			Hash:       c.Hash,
			Repository: repository,
			Date:       date,
			Author:     c.Author,
			Language:   languages.Classify(change.Path),
			Added:      change.Added,
			Removed:    change.Removed,
			Path:       change.Path,
		})
	}

	return rows, skipped
}
