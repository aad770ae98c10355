// Package export writes a user's transactions to a downloadable file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/budget-tracker/internal"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	sheetName = "Transactions"
	utf8BOM   = "\xEF\xBB\xBF"
)

var header = []string{"Date", "Description", "Category", "Type", "Amount"}

// ParseFormat falls back to def for an empty string.
func ParseFormat(s string, def Format) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return def, nil
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", errors.NewValidationFieldError("format", "format must be csv or xlsx", errors.ErrCodeValidationFailed)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) FileName(now time.Time) string {
	return fmt.Sprintf("transactions_%s.%s", now.Format("2006-01-02"), f)
}

func Write(w io.Writer, f Format, items []transaction.Transaction) error {
	if f == FormatXLSX {
		return WriteXLSX(w, items)
	}
	return WriteCSV(w, items)
}

func row(t *transaction.Transaction) []string {
	return []string{
		t.Date.Format(time.DateOnly),
		t.Description,
		t.CategoryLabel(),
		t.Type,
		strconv.FormatFloat(t.Amount, 'f', 2, 64),
	}
}

// WriteCSV prefixes a UTF-8 byte order mark so spreadsheet apps pick the
// right encoding.
func WriteCSV(w io.Writer, items []transaction.Transaction) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range items {
		if err := cw.Write(row(&items[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, items []transaction.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := setRow(f, 1, toCells(header)); err != nil {
		return err
	}
	for i := range items {
		t := &items[i]
		cells := []interface{}{t.Date.Format(time.DateOnly), t.Description, t.CategoryLabel(), t.Type, t.Amount}
		if err := setRow(f, i+2, cells); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetName, "B", "B", 40); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, n int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &cells)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
