package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
)

const (
	// MaxSheetNameLength is the spreadsheet limit on sheet names.
	MaxSheetNameLength = 31

	defaultSheet  = "Sheet1"
	emptySheet    = "no data"
	fallbackSheet = "repository"
	dateNumFmt    = "yyyy-mm-dd"
	hashColWidth  = 42
	wideColWidth  = 28
)

var sheetNameReplacer = strings.NewReplacer( //nolint:gochecknoglobals // immutable.
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// WriteXLSX writes one sheet per completed repository in input order. A
// dataset without tables still produces a workbook with a header-only sheet.
func WriteXLSX(w io.Writer, ds *churn.Dataset) (err error) {
	book := excelize.NewFile()

	defer func() {
		closeErr := book.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()

	dateStyle, err := book.NewStyle(&excelize.Style{CustomNumFmt: strPtr(dateNumFmt)})
	if err != nil {
		return fmt.Errorf("create date style: %w", err)
	}

	tables := ds.Tables()
	if len(tables) == 0 {
		tables = []*churn.Table{{Name: emptySheet}}
	}

	names := SheetNames(tables)

	for i, table := range tables {
		if i == 0 {
			err = book.SetSheetName(defaultSheet, names[i])
		} else {
			_, err = book.NewSheet(names[i])
		}

		if err != nil {
			return fmt.Errorf("create sheet %q: %w", names[i], err)
		}

		err = writeSheet(book, names[i], table, dateStyle)
		if err != nil {
			return fmt.Errorf("write sheet %q: %w", names[i], err)
		}
	}

	book.SetActiveSheet(0)

	err = book.Write(w)
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}

func writeSheet(book *excelize.File, sheet string, table *churn.Table, dateStyle int) error {
	sw, err := book.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	err = sw.SetColWidth(1, 1, hashColWidth)
	if err != nil {
		return err
	}

	err = sw.SetColWidth(2, 5, wideColWidth) //nolint:mnd // repository..language
	if err != nil {
		return err
	}

	header := make([]any, len(churn.Columns))
	for i, c := range churn.Columns {
		header[i] = c
	}

	err = sw.SetRow("A1", header)
	if err != nil {
		return err
	}

	for i, r := range table.Rows {
		cell, cellErr := excelize.CoordinatesToCellName(1, i+2) //nolint:mnd // data starts below the header.
		if cellErr != nil {
			return cellErr
		}

		y, m, d := r.Date.Date()

		err = sw.SetRow(cell, []any{
			r.Hash,
			r.Repository,
			excelize.Cell{StyleID: dateStyle, Value: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)},
			r.Author,
			r.Language,
			r.Added,
			r.Removed,
		})
		if err != nil {
			return err
		}
	}

	return sw.Flush()
}

// SheetNames returns a valid, unique sheet name for every table: invalid
// characters replaced, truncated to MaxSheetNameLength, and de-duplicated
// case-insensitively with a numeric suffix.
func SheetNames(tables []*churn.Table) []string {
	names := make([]string, len(tables))
	used := make(map[string]bool, len(tables))

	for i, table := range tables {
		base := SanitizeSheetName(table.Name)
		name := base

		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := "~" + strconv.Itoa(n)
			name = strings.TrimRight(truncateRunes(base, MaxSheetNameLength-len(suffix)), "'") + suffix
		}

		used[strings.ToLower(name)] = true
		names[i] = name
	}

	return names
}

// SanitizeSheetName makes name acceptable as a sheet name. Excel rejects
// names that start or end with an apostrophe, so trimming runs after
// truncation.
func SanitizeSheetName(name string) string {
	name = sheetNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Trim(truncateRunes(strings.Trim(name, "'"), MaxSheetNameLength), "'")

	if name == "" {
		return fallbackSheet
	}

	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}

func strPtr(s string) *string { return &s }
