// Package export renders a quiz's attempts as a downloadable sheet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/xuri/excelize/v2"
)

// Header is the column order shared by every format.
var Header = []string{"studentName", "studentEmail", "status", "correctCount", "totalQuestions", "submittedAt"}

const sheetName = "Results"

// Format is a supported download type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat defaults to CSV.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Write renders attempts to w in the requested format.
func Write(w io.Writer, f Format, attempts []model.Attempt) error {
	if f == FormatXLSX {
		return WriteXLSX(w, attempts)
	}
	return WriteCSV(w, attempts)
}

func record(a model.Attempt) []string {
	submitted := ""
	if a.SubmittedAt != nil {
		submitted = a.SubmittedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		a.StudentName,
		a.StudentEmail,
		string(a.Status),
		strconv.Itoa(a.Score.CorrectCount),
		strconv.Itoa(a.Score.TotalQuestions),
		submitted,
	}
}

// WriteCSV writes a header row and one row per attempt.
func WriteCSV(w io.Writer, attempts []model.Attempt) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range attempts {
		if err := cw.Write(record(a)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same table as a single-sheet workbook with numeric
// score columns.
func WriteXLSX(w io.Writer, attempts []model.Attempt) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "F1", bold)
	}

	for i, a := range attempts {
		rec := record(a)
		row := []interface{}{rec[0], rec[1], rec[2], a.Score.CorrectCount, a.Score.TotalQuestions, rec[5]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
