package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/omarrislam/Quiz-App/internal/model"
)

func answersFor(qs []model.Question, picks ...int) []model.SubmittedAnswer {
	out := make([]model.SubmittedAnswer, 0, len(picks))
	for i, p := range picks {
		p := p
		out = append(out, model.SubmittedAnswer{QuestionID: qs[i].ID, SelectedIndex: &p})
	}
	return out
}

func TestStart_OpensAttempt(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(nil)
	code := f.invite(q, st, "424242")

	out := f.mustStart(q, code)
	if out.Resumed {
		t.Fatal("fresh attempt reported as resumed")
	}
	if len(out.Questions) != len(qs) {
		t.Fatalf("questions = %d, want %d", len(out.Questions), len(qs))
	}
	for _, sq := range out.Questions {
		if len(sq.OptionIndexes) != len(sq.Options) {
			t.Fatalf("option indexes do not line up: %+v", sq)
		}
	}
	if out.SecondCamToken != "" {
		t.Fatal("second cam token issued with the feature off")
	}

	a, err := f.db.Attempts().GetByID(f.ctx, out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != model.AttemptStatusInProgress || a.StudentName != "Ada" || a.StudentID == nil {
		t.Fatalf("attempt = %+v", a)
	}
}

func TestStart_ResumesRunningAttempt(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(nil)
	first := f.mustStart(q, f.invite(q, st, "111111"))

	f.codes = append(f.codes, "222222")
	if err := f.invites.Resend(f.ctx, q, st.ID); err != nil {
		t.Fatal(err)
	}
	second := f.mustStart(q, "222222")

	if second.AttemptID != first.AttemptID || !second.Resumed {
		t.Fatalf("second start = %+v, want resume of %s", second, first.AttemptID)
	}
}

func TestStart_SingleAttemptPolicy(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "111111"))
	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0, 1, 2)); err != nil {
		t.Fatal(err)
	}

	f.invite(q, st, "222222")
	if _, err := f.start(q, "222222"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestStart_MultipleAttemptsAllowed(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(func(s *model.QuizSettings) { s.AllowMultipleAttempts = true })
	out := f.mustStart(q, f.invite(q, st, "111111"))
	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, nil); err != nil {
		t.Fatal(err)
	}

	again := f.mustStart(q, f.invite(q, st, "222222"))
	if again.AttemptID == out.AttemptID || again.Resumed {
		t.Fatalf("expected a new attempt, got %+v", again)
	}
}

func TestStart_NoQuestionsKeepsCode(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(nil)
	code := f.invite(q, st, "424242")
	if _, err := f.db.Questions().DeleteAll(f.ctx, q.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := f.start(q, code); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}

	if err := f.db.Questions().Replace(f.ctx, q.ID, qs); err != nil {
		t.Fatal(err)
	}
	f.mustStart(q, code)
}

func TestFinish_ScoresOnceAgainstLiveQuestions(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))

	res, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.AttemptStatusCompleted {
		t.Fatalf("status = %s", res.Status)
	}
	if res.CorrectCount != nil {
		t.Fatal("score revealed with show_score_to_student off")
	}

	a, err := f.db.Attempts().GetByID(f.ctx, out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Score.CorrectCount != 2 || a.Score.TotalQuestions != 3 || len(a.Score.Details) != 3 {
		t.Fatalf("score = %+v", a.Score)
	}
	if a.SubmittedAt == nil || !a.SubmittedAt.Equal(f.now) {
		t.Fatalf("submitted_at = %v", a.SubmittedAt)
	}

	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0, 1, 2)); !errors.Is(err, ErrAttemptAlreadyEnded) {
		t.Fatalf("second finish: err = %v, want ErrAttemptAlreadyEnded", err)
	}
	a, _ = f.db.Attempts().GetByID(f.ctx, out.AttemptID)
	if a.Score.CorrectCount != 2 {
		t.Fatalf("score overwritten: %+v", a.Score)
	}
}

func TestFinish_ShowsScoreWhenEnabled(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(func(s *model.QuizSettings) { s.ShowScoreToStudent = true })
	out := f.mustStart(q, f.invite(q, st, "424242"))

	res, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0))
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrectCount == nil || *res.CorrectCount != 1 || *res.TotalQuestions != 3 {
		t.Fatalf("result = %+v", res)
	}

	view, err := f.attempts.Status(f.ctx, out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Score == nil || view.Score.CorrectCount != 1 {
		t.Fatalf("status score = %+v", view.Score)
	}
}

func TestRecordEvent_CountsOnlyWhileRunning(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))
	req := model.RecordEventRequest{Type: model.EventTabHidden}

	for i := 0; i < 2; i++ {
		ok, err := f.attempts.RecordEvent(f.ctx, out.AttemptID, req)
		if err != nil || !ok {
			t.Fatalf("record %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0)); err != nil {
		t.Fatal(err)
	}
	ok, err := f.attempts.RecordEvent(f.ctx, out.AttemptID, req)
	if err != nil || ok {
		t.Fatalf("record after finish: ok=%v err=%v", ok, err)
	}

	a, _ := f.db.Attempts().GetByID(f.ctx, out.AttemptID)
	if a.Flags.SuspiciousEventsCount != 2 {
		t.Fatalf("count = %d, want 2", a.Flags.SuspiciousEventsCount)
	}
	if got := len(f.db.Events()); got != 2 {
		t.Fatalf("events = %d, want 2", got)
	}
}

func TestRecordEvent_LoggingDisabled(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(func(s *model.QuizSettings) { s.LogSuspiciousActivity = false })
	out := f.mustStart(q, f.invite(q, st, "424242"))

	ok, err := f.attempts.RecordEvent(f.ctx, out.AttemptID, model.RecordEventRequest{Type: model.EventWindowBlur})
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestSubmitSnapshot_OnePerPhase(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(func(s *model.QuizSettings) { s.EnableWebcamSnapshots = true })
	out := f.mustStart(q, f.invite(q, st, "424242"))
	req := model.SubmitSnapshotRequest{Phase: model.SnapshotPhaseStart, Data: "data:image/jpeg;base64,AAAA"}

	res, err := f.attempts.SubmitSnapshot(f.ctx, out.AttemptID, req)
	if err != nil || res.Status != model.SnapshotSaved {
		t.Fatalf("first: res=%+v err=%v", res, err)
	}
	res, err = f.attempts.SubmitSnapshot(f.ctx, out.AttemptID, req)
	if err != nil || res.Status != model.SnapshotExists {
		t.Fatalf("repeat: res=%+v err=%v", res, err)
	}

	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0)); err != nil {
		t.Fatal(err)
	}
	req.Phase = model.SnapshotPhaseEnd
	if res, err = f.attempts.SubmitSnapshot(f.ctx, out.AttemptID, req); err != nil || res.Status != model.SnapshotSaved {
		t.Fatalf("end phase after finish: res=%+v err=%v", res, err)
	}

	snaps, err := f.db.Snapshots().ListByAttempt(f.ctx, out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 || snaps[0].Mime != "image/jpeg" || snaps[0].Width != model.DefaultSnapshotWidth {
		t.Fatalf("snapshots = %+v", snaps)
	}
}

func TestSubmitSnapshot_Rejections(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(func(s *model.QuizSettings) { s.EnableFaceCentering = true })
	out := f.mustStart(q, f.invite(q, st, "424242"))

	tests := []struct {
		name string
		req  model.SubmitSnapshotRequest
		want error
	}{
		{"bad phase", model.SubmitSnapshotRequest{Phase: "later", Mime: "image/png", Data: "AAAA"}, ErrInvalidPhase},
		{"empty data", model.SubmitSnapshotRequest{Phase: model.SnapshotPhaseMiddle, Mime: "image/png"}, ErrInvalidImage},
		{"not an image", model.SubmitSnapshotRequest{Phase: model.SnapshotPhaseMiddle, Mime: "text/plain", Data: "AAAA"}, ErrInvalidImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.attempts.SubmitSnapshot(f.ctx, out.AttemptID, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubmitSnapshot_Disabled(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))

	req := model.SubmitSnapshotRequest{Phase: model.SnapshotPhaseStart, Mime: "image/png", Data: "AAAA"}
	if _, err := f.attempts.SubmitSnapshot(f.ctx, out.AttemptID, req); !errors.Is(err, ErrSnapshotsOff) {
		t.Fatalf("err = %v, want ErrSnapshotsOff", err)
	}
}

func TestTerminate_AnyStatusAuditsEachCall(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))
	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0)); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		f.advance(time.Second)
		a, err := f.attempts.Terminate(f.ctx, q, out.AttemptID, "")
		if err != nil {
			t.Fatalf("terminate %d: %v", i+1, err)
		}
		if a.Status != model.AttemptStatusForciblyEnded {
			t.Fatalf("status = %s", a.Status)
		}
		if a.Flags.ForcedEndReason == nil || *a.Flags.ForcedEndReason != "Ended by instructor" {
			t.Fatalf("reason = %v", a.Flags.ForcedEndReason)
		}
	}
	if got := len(f.db.AuditOfType(model.AuditAttemptEnded)); got != 2 {
		t.Fatalf("attempt_ended entries = %d, want 2", got)
	}
}

func TestTerminate_OtherQuiz(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))

	other := &model.Quiz{ID: uuid.New()}
	if _, err := f.attempts.Terminate(f.ctx, other, out.AttemptID, "x"); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("err = %v, want ErrAttemptNotFound", err)
	}
}

func TestDelete_WritesAudit(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))

	if err := f.attempts.Delete(f.ctx, q, out.AttemptID); err != nil {
		t.Fatal(err)
	}
	if err := f.attempts.Delete(f.ctx, q, out.AttemptID); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("second delete: err = %v", err)
	}
	if got := len(f.db.AuditOfType(model.AuditAttemptRemoved)); got != 1 {
		t.Fatalf("attempt_removed entries = %d, want 1", got)
	}
}

func TestDetail_JoinsLiveQuestions(t *testing.T) {
	f := newFixture(t)
	q, st, qs := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))
	if _, err := f.attempts.Finish(f.ctx, out.AttemptID, answersFor(qs, 0, 2)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.db.Questions().Delete(f.ctx, q.ID, qs[1].ID); err != nil {
		t.Fatal(err)
	}

	d, err := f.attempts.Detail(f.ctx, q, out.AttemptID)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(d.Answers))
	}
	if d.Answers[0].Text != "One?" || !d.Answers[0].IsCorrect {
		t.Fatalf("first answer = %+v", d.Answers[0])
	}
	if d.Answers[1].Text != "" || d.Answers[1].CorrectIndex != -1 || d.Answers[1].IsCorrect {
		t.Fatalf("deleted question answer = %+v", d.Answers[1])
	}
}
