package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/omarrislam/Quiz-App/internal/model"
)

func boolp(v bool) *bool { return &v }

func TestQuizCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	q, err := f.quiz.Create(f.ctx, owner, model.CreateQuizRequest{Title: "  Finals ", Code: strp("fin42")})
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != model.QuizStatusDraft || q.Title != "Finals" || *q.Code != "FIN42" {
		t.Fatalf("quiz = %+v", q)
	}
	if q.Settings.QuestionTimeSeconds != 35 || !q.Settings.ShuffleQuestions || !q.Settings.MobileAllowed {
		t.Fatalf("settings = %+v", q.Settings)
	}

	if _, err := f.quiz.Create(f.ctx, owner, model.CreateQuizRequest{Title: "Dup", Code: strp("FIN42")}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate code: err = %v", err)
	}
}

func strp(s string) *string { return &s }

func TestMergeSettings_MobileConflict(t *testing.T) {
	base := model.DefaultQuizSettings()

	if _, err := mergeSettings(base, &model.QuizSettingsInput{EnableSecondCam: boolp(true), MobileAllowed: boolp(true)}); !errors.Is(err, ErrMobileConflict) {
		t.Fatalf("explicit conflict: err = %v", err)
	}

	got, err := mergeSettings(base, &model.QuizSettingsInput{EnableFaceCentering: boolp(true)})
	if err != nil {
		t.Fatal(err)
	}
	if got.MobileAllowed {
		t.Fatal("mobile left on alongside face centering")
	}

	got, err = mergeSettings(base, &model.QuizSettingsInput{EnableWebcamSnapshots: boolp(true)})
	if err != nil {
		t.Fatal(err)
	}
	if !got.MobileAllowed {
		t.Fatal("plain webcam snapshots should not disable mobile")
	}

	got, err = mergeSettings(base, &model.QuizSettingsInput{TotalTimeSeconds: intp(0)})
	if err != nil || got.TotalTimeSeconds != nil {
		t.Fatalf("zero total time should clear the limit: %v %v", got.TotalTimeSeconds, err)
	}
}

func TestQuizGet_LazilyClosesAndAudits(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	q, err := f.quiz.Create(f.ctx, owner, model.CreateQuizRequest{Title: "Q", EndAt: tp(f.now.Add(time.Hour))})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.quiz.SetStatus(f.ctx, owner, q.ID, model.QuizStatusPublished); err != nil {
		t.Fatal(err)
	}

	f.advance(2 * time.Hour)
	got, err := f.quiz.Get(f.ctx, owner, q.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.QuizStatusClosed {
		t.Fatalf("status = %s, want closed", got.Status)
	}
	stored, _ := f.db.Quizzes().GetByID(f.ctx, q.ID)
	if stored.Status != model.QuizStatusClosed {
		t.Fatalf("stored status = %s", stored.Status)
	}

	if _, err := f.quiz.List(f.ctx, owner); err != nil {
		t.Fatal(err)
	}
	if n := len(f.db.AuditOfType(model.AuditQuizClosed)); n != 1 {
		t.Fatalf("quiz_closed entries = %d, want 1", n)
	}
}

func TestQuizList_ClosesExpired(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	q, err := f.quiz.Create(f.ctx, owner, model.CreateQuizRequest{Title: "Q", EndAt: tp(f.now.Add(time.Minute))})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.quiz.SetStatus(f.ctx, owner, q.ID, model.QuizStatusPublished); err != nil {
		t.Fatal(err)
	}
	f.advance(time.Hour)

	list, err := f.quiz.List(f.ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != model.QuizStatusClosed {
		t.Fatalf("list = %+v", list)
	}
}

func TestQuizExtend_Republishes(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	q, err := f.quiz.Create(f.ctx, owner, model.CreateQuizRequest{Title: "Q", EndAt: tp(f.now.Add(-10 * time.Minute))})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.quiz.SetStatus(f.ctx, owner, q.ID, model.QuizStatusClosed); err != nil {
		t.Fatal(err)
	}

	got, err := f.quiz.Extend(f.ctx, owner, q.ID, 30)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.QuizStatusPublished || !got.EndAt.Equal(f.now.Add(20*time.Minute)) {
		t.Fatalf("quiz = %+v", got)
	}

	if _, err := f.quiz.Extend(f.ctx, uuid.New(), q.ID, 30); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("foreign instructor: err = %v", err)
	}
}

func TestQuizTerminate_EndsRunningAttempts(t *testing.T) {
	f := newFixture(t)
	q, st, _ := f.seedQuiz(nil)
	out := f.mustStart(q, f.invite(q, st, "424242"))

	n, err := f.quiz.Terminate(f.ctx, q.InstructorID, q.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("ended = %d, want 1", n)
	}
	a, _ := f.db.Attempts().GetByID(f.ctx, out.AttemptID)
	if a.Status != model.AttemptStatusForciblyEnded {
		t.Fatalf("attempt status = %s", a.Status)
	}
	stored, _ := f.db.Quizzes().GetByID(f.ctx, q.ID)
	if stored.Status != model.QuizStatusClosed {
		t.Fatalf("quiz status = %s", stored.Status)
	}
}

func TestQuizPublicInfo_ByCode(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	q, err := f.quiz.Create(f.ctx, owner, model.CreateQuizRequest{Title: "Q", Code: strp("ABCD")})
	if err != nil {
		t.Fatal(err)
	}

	info, err := f.quiz.PublicInfo(f.ctx, " abcd")
	if err != nil {
		t.Fatal(err)
	}
	if info.ID != q.ID {
		t.Fatalf("resolved %s, want %s", info.ID, q.ID)
	}
	if _, err := f.quiz.PublicInfo(f.ctx, "NOPE"); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("err = %v", err)
	}
}
