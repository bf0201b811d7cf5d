package gitlib

import "time"

// Signature represents a git signature (author/committer).
// When keeps the UTC offset recorded in the commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}
