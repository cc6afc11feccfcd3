package service

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/omarrislam/Quiz-App/internal/export"
	"github.com/omarrislam/Quiz-App/internal/model"
)

func TestDashboardMetrics(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(nil)
	end := f.now.Add(30 * time.Minute)
	q.EndAt = &end
	if err := f.db.Quizzes().Update(f.ctx, q); err != nil {
		t.Fatal(err)
	}

	out := f.mustStart(q, f.invite(q, st, "424242"))
	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0, 1, 0)); err != nil {
		t.Fatal(err)
	}

	m, err := f.dashboard.Metrics(f.ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalAttempts != 1 || m.CompletedCount != 1 || m.ActiveAttempts != 0 || m.InvitedCount != 1 {
		t.Fatalf("metrics = %+v", m)
	}
	if m.AverageScore == nil || *m.AverageScore != 2 {
		t.Fatalf("average = %v", m.AverageScore)
	}
	if m.RemainingSeconds == nil || *m.RemainingSeconds != 1800 {
		t.Fatalf("remaining = %v", m.RemainingSeconds)
	}

	f.advance(time.Hour)
	m, err = f.dashboard.Metrics(f.ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != model.QuizStatusClosed || *m.RemainingSeconds != 0 {
		t.Fatalf("after end: %+v", m)
	}
}

func TestDashboardTimeline_MergesNewestFirst(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))

	f.advance(time.Second)
	if _, err := f.attempts.RecordEvent(f.ctx, out.AttemptID, model.RecordEventRequest{Type: model.EventFullscreenExit}); err != nil {
		t.Fatal(err)
	}
	f.advance(time.Second)
	if _, err := f.attempts.Terminate(f.ctx, q, out.AttemptID, "Left the room"); err != nil {
		t.Fatal(err)
	}

	entries, err := f.dashboard.Timeline(f.ctx, q, model.AuditQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %+v", entries)
	}
	wantTypes := []string{string(model.AuditAttemptEnded), string(model.EventFullscreenExit), string(model.AuditOTPSent)}
	for i, want := range wantTypes {
		if entries[i].Type != want {
			t.Fatalf("entry %d type = %s, want %s", i, entries[i].Type, want)
		}
	}
	if entries[1].Source != model.TimelineEvent || entries[1].StudentEmail != testEmail {
		t.Fatalf("event entry = %+v", entries[1])
	}

	limited, err := f.dashboard.Timeline(f.ctx, q, model.AuditQuery{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Type != string(model.AuditAttemptEnded) {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestDashboardExport_CSV(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))
	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := f.dashboard.Export(f.ctx, q, &buf, export.FormatCSV); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[1], testEmail) || !strings.Contains(lines[1], "completed") {
		t.Fatalf("row = %q", lines[1])
	}
}
