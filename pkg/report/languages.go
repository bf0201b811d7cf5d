package report

import (
	"sort"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
)

// LanguageTotal is the churn of one language across repositories.
type LanguageTotal struct {
	Language string
	Added    int
	Removed  int
}

// LanguageTotals sums every completed table by language, largest churn first
// and then by name.
func LanguageTotals(ds *churn.Dataset) []LanguageTotal {
	acc := make(map[string]*LanguageTotal)

	for _, t := range ds.Tables() {
		for lang, counts := range t.ByLanguage() {
			lt, ok := acc[lang]
			if !ok {
				lt = &LanguageTotal{Language: lang}
				acc[lang] = lt
			}

			lt.Added += counts[0]
			lt.Removed += counts[1]
		}
	}

	out := make([]LanguageTotal, 0, len(acc))
	for _, lt := range acc {
		out = append(out, *lt)
	}

	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Added+out[i].Removed, out[j].Added+out[j].Removed
		if ci != cj {
			return ci > cj
		}

		return out[i].Language < out[j].Language
	})

	return out
}

// DailyTotal is the churn of one calendar day.
type DailyTotal struct {
	Date    string
	Added   int
	Removed int
}

// DailyTotals sums every completed table by row date, oldest first.
func DailyTotals(ds *churn.Dataset) []DailyTotal {
	acc := make(map[string]*DailyTotal)

	for _, t := range ds.Tables() {
		for _, r := range t.Rows {
			key := r.Date.Format("2006-01-02")

			dt, ok := acc[key]
			if !ok {
				dt = &DailyTotal{Date: key}
				acc[key] = dt
			}

			dt.Added += r.Added
			dt.Removed += r.Removed
		}
	}

	out := make([]DailyTotal, 0, len(acc))
	for _, dt := range acc {
		out = append(out, *dt)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	return out
}
