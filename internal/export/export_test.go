package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/xuri/excelize/v2"
)

func sample() []model.Attempt {
	at := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	return []model.Attempt{
		{StudentName: "Ada", StudentEmail: "ada@example.com", Status: model.AttemptStatusCompleted, SubmittedAt: &at,
			Score: model.Score{CorrectCount: 2, TotalQuestions: 3}},
		{StudentName: "Bob", StudentEmail: "bob@example.com", Status: model.AttemptStatusInProgress},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want 3", len(recs))
	}
	if recs[0][0] != "studentName" || recs[0][5] != "submittedAt" {
		t.Fatalf("header = %v", recs[0])
	}
	if recs[1][3] != "2" || recs[1][4] != "3" || recs[1][5] != "2026-05-04T09:30:00Z" {
		t.Fatalf("row 1 = %v", recs[1])
	}
	if recs[2][5] != "" {
		t.Fatalf("unsubmitted attempt has submittedAt %q", recs[2][5])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sample()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[1][0] != "Ada" || rows[1][3] != "2" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatCSV {
		t.Fatalf("default = %q, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatal("expected error for pdf")
	}
}
