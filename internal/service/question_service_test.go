package service

import (
	"errors"
	"testing"

	"github.com/omarrislam/Quiz-App/internal/importer"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/rs/zerolog"
)

func TestParseQuestionRow(t *testing.T) {
	tests := []struct {
		name        string
		row         importer.Row
		wantOptions int
		wantCorrect int
		wantErr     bool
	}{
		{"defaults to A", importer.Row{"question": "Q", "optiona": "x", "optionb": "y"}, 2, 0, false},
		{"letter C", importer.Row{"question": "Q", "optiona": "x", "optionb": "y", "optionc": "z", "correctletter": "c"}, 3, 2, false},
		{"blank option compacted", importer.Row{"question": "Q", "optiona": "x", "optionc": "z", "correctletter": "C"}, 2, 1, false},
		{"missing text", importer.Row{"optiona": "x", "optionb": "y"}, 0, 0, true},
		{"one option", importer.Row{"question": "Q", "optiona": "x"}, 0, 0, true},
		{"letter E", importer.Row{"question": "Q", "optiona": "x", "optionb": "y", "correctletter": "E"}, 0, 0, true},
		{"empty correct option", importer.Row{"question": "Q", "optiona": "x", "optionb": "y", "correctletter": "D"}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, msg := parseQuestionRow(tt.row)
			if tt.wantErr {
				if msg == "" {
					t.Fatal("expected rejection")
				}
				return
			}
			if msg != "" {
				t.Fatalf("rejected: %s", msg)
			}
			if len(q.Options) != tt.wantOptions || q.CorrectIndex != tt.wantCorrect {
				t.Fatalf("question = %+v", q)
			}
		})
	}
}

func TestQuestionImport_ReplacesSet(t *testing.T) {
	f := newFixture(t)
	q, _, _ := f.seedQuiz(nil)
	svc := NewQuestionService(f.db.Questions(), zerolog.Nop())

	res, err := svc.Import(f.ctx, q, []importer.Row{
		{"question": "New 1", "optiona": "x", "optionb": "y"},
		{"question": "New 2", "optiona": "x", "optionb": "y", "correctletter": "B"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 2 {
		t.Fatalf("imported = %d", res.Imported)
	}
	qs, _ := svc.List(f.ctx, q)
	if len(qs) != 2 || qs[0].Text != "New 1" || qs[1].Order != 2 || qs[1].CorrectIndex != 1 {
		t.Fatalf("questions = %+v", qs)
	}

	_, err = svc.Import(f.ctx, q, []importer.Row{{"question": "Broken"}})
	var ierr *ImportError
	if !errors.As(err, &ierr) {
		t.Fatalf("err = %v, want ImportError", err)
	}
	if qs, _ = svc.List(f.ctx, q); len(qs) != 2 {
		t.Fatalf("rejected upload replaced the set: %d", len(qs))
	}
}

func TestQuestionUpdate_ValidatesIndex(t *testing.T) {
	f := newFixture(t)
	q, _, qs := f.seedQuiz(nil)
	svc := NewQuestionService(f.db.Questions(), zerolog.Nop())

	if _, err := svc.Update(f.ctx, q, qs[0].ID, model.UpdateQuestionRequest{CorrectIndex: intp(5)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	got, err := svc.Update(f.ctx, q, qs[0].ID, model.UpdateQuestionRequest{CorrectIndex: intp(2)})
	if err != nil {
		t.Fatal(err)
	}
	if got.CorrectIndex != 2 {
		t.Fatalf("correct = %d", got.CorrectIndex)
	}
}
