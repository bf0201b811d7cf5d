// Package churn extracts per-file, per-commit line churn from repository
// history and aggregates it into one table per repository.
package churn

import (
	"time"
)

// Commit is read-only metadata of one history node.
type Commit struct {
	Hash string
	// Author is the author e-mail, or the author name when no e-mail is recorded.
	Author string
	// When is the committer time in the committer's own UTC offset.
	When    time.Time
	Parents []string
}

// IsRoot reports whether the commit has no parents.
func (c Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// Status classifies a FileChange.
type Status int

// FileChange statuses.
const (
	StatusAdded Status = iota
	StatusDeleted
	StatusModified
	StatusRenamed
)

func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusModified:
		return "modified"
	case StatusRenamed:
		return "renamed"
	}

	return "unknown"
}

// FileChange is one changed file of one commit against its first parent.
type FileChange struct {
	// Path is the post-change path, the rename target, or for deletions the
	// pre-image path.
	Path    string
	OldPath string
	Status  Status
	Added   int
	Removed int
	Binary  bool
	// OldID and NewID identify the pre- and post-image contents. Backends that
	// report renames as delete+add pairs are collapsed by matching them.
	OldID string
	NewID string
}

// Row is one output record: one changed file of one commit.
type Row struct {
	Hash       string
	Repository string
	Date       time.Time
	Author     string
	Language   string
	Added      int
	Removed    int
	// Path is not an exported column; it keys the (hash, repository, path)
	// uniqueness of rows.
	Path string
}

// Columns are the exported column names in order.
var Columns = []string{ //nolint:gochecknoglobals // fixed output schema.
	"hash", "repository", "date", "author", "language", "added_lines", "removed_lines",
}

// Values returns the row cells in Columns order.
func (r Row) Values() []any {
	return []any{r.Hash, r.Repository, r.Date, r.Author, r.Language, r.Added, r.Removed}
}

// Table is the ordered rows of one repository.
type Table struct {
	Name string
	Rows []Row
}

// Totals returns the summed added and removed lines.
func (t *Table) Totals() (added, removed int) {
	for _, r := range t.Rows {
		added += r.Added
		removed += r.Removed
	}

	return added, removed
}

// Commits returns the number of distinct commits with at least one row.
func (t *Table) Commits() int {
	seen := make(map[string]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		seen[r.Hash] = struct{}{}
	}

	return len(seen)
}

// ByLanguage sums added and removed lines per language label.
func (t *Table) ByLanguage() map[string][2]int {
	out := make(map[string][2]int)

	for _, r := range t.Rows {
		acc := out[r.Language]
		acc[0] += r.Added
		acc[1] += r.Removed
		out[r.Language] = acc
	}

	return out
}
