package export

import (
	"time"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
)

// Document is the structured form written by the JSON and YAML encoders.
type Document struct {
	Start        string    `json:"start"              yaml:"start"`
	End          string    `json:"end"                yaml:"end"`
	Repositories []Sheet   `json:"repositories"       yaml:"repositories"`
	Failures     []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Sheet is the table of one repository.
type Sheet struct {
	Name string   `json:"name" yaml:"name"`
	Rows []Record `json:"rows" yaml:"rows"`
}

// Record is one row, keyed by the exported column names.
type Record struct {
	Hash         string `json:"hash"          yaml:"hash"`
	Repository   string `json:"repository"    yaml:"repository"`
	Date         string `json:"date"          yaml:"date"`
	Author       string `json:"author"        yaml:"author"`
	Language     string `json:"language"      yaml:"language"`
	AddedLines   int    `json:"added_lines"   yaml:"added_lines"`
	RemovedLines int    `json:"removed_lines" yaml:"removed_lines"`
}

// Failure describes a repository that produced no table.
type Failure struct {
	Input string `json:"input" yaml:"input"`
	Error string `json:"error" yaml:"error"`
}

// NewDocument converts ds. Completed tables keep input order.
func NewDocument(ds *churn.Dataset) Document {
	doc := Document{
		Start:        ds.Range.Start.Format(time.DateOnly),
		End:          ds.Range.End.Format(time.DateOnly),
		Repositories: make([]Sheet, 0, len(ds.Results)),
	}

	for _, table := range ds.Tables() {
		sheet := Sheet{Name: table.Name, Rows: make([]Record, 0, len(table.Rows))}

		for _, r := range table.Rows {
			sheet.Rows = append(sheet.Rows, Record{
				Hash:         r.Hash,
				Repository:   r.Repository,
				Date:         r.Date.Format(time.DateOnly),
				Author:       r.Author,
				Language:     r.Language,
				AddedLines:   r.Added,
				RemovedLines: r.Removed,
			})
		}

		doc.Repositories = append(doc.Repositories, sheet)
	}

	for _, failed := range ds.Failed() {
		doc.Failures = append(doc.Failures, Failure{Input: churn.RedactInput(failed.Input), Error: failed.Err.Error()})
	}

	return doc
}
