package service

import (
	"context"
	"testing"
	"time"

	"github.com/omarrislam/Quiz-App/internal/config"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/testutil/memstore"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const testEmail = "ada@example.com"

type fixture struct {
	t       *testing.T
	ctx     context.Context
	db      *memstore.DB
	queue   *memstore.Queue
	limiter *memstore.Limiter
	now     time.Time
	codes   []string

	auth      *AuthService
	quiz      *QuizService
	invites   *InvitationService
	attempts  *AttemptService
	secondCam *SecondCamService
	students  *StudentService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		db:      memstore.New(),
		queue:   &memstore.Queue{},
		limiter: memstore.NewLimiter(3),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	log := zerolog.Nop()

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		JWTExpiry:       time.Hour,
		SecondCamExpiry: 6 * time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}
	f.auth = NewAuthService(cfg, f.db.Instructors())
	f.auth.now = clock

	f.quiz = NewQuizService(f.db.Quizzes(), f.db.Questions(), log)
	f.quiz.now = clock

	f.invites = NewInvitationService(f.db.Quizzes(), f.db.Students(), f.db.Invitations(), f.db.Audit(),
		f.queue, f.limiter, memstore.MailCheck{}, "https://quiz.example.com", log)
	f.invites.now = clock
	f.invites.generate = func() (string, error) {
		if len(f.codes) == 0 {
			return "123456", nil
		}
		c := f.codes[0]
		f.codes = f.codes[1:]
		return c, nil
	}

	f.attempts = NewAttemptService(f.db.Quizzes(), f.db.Questions(), f.db.Attempts(), f.db.Snapshots(),
		f.invites, f.auth, 1<<20, log)
	f.attempts.now = clock

	f.secondCam = NewSecondCamService(f.db.Quizzes(), f.db.Attempts(), f.db.Snapshots(), f.auth, 1<<20, log)
	f.secondCam.now = clock

	f.students = NewStudentService(f.db.Students(), log)

	f.dashboard = NewDashboardService(f.db.Quizzes(), f.db.Attempts(), f.db.Invitations(), f.db.Audit(), log)
	f.dashboard.now = clock
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

// seedQuiz stores a published quiz with three questions (answers A, B, C)
// and a single rostered student.
func (f *fixture) seedQuiz(mutate func(*model.QuizSettings)) (*model.Quiz, *model.Student, []model.Question) {
	f.t.Helper()
	settings := model.DefaultQuizSettings()
	if mutate != nil {
		mutate(&settings)
	}
	q := &model.Quiz{Title: "Midterm", Status: model.QuizStatusPublished, Settings: settings}
	if err := f.db.Quizzes().Create(f.ctx, q); err != nil {
		f.t.Fatal(err)
	}

	qs := []model.Question{
		{Text: "One?", Options: []string{"a", "b", "c"}, CorrectIndex: 0, Order: 1},
		{Text: "Two?", Options: []string{"a", "b", "c"}, CorrectIndex: 1, Order: 2},
		{Text: "Three?", Options: []string{"a", "b", "c"}, CorrectIndex: 2, Order: 3},
	}
	if err := f.db.Questions().Replace(f.ctx, q.ID, qs); err != nil {
		f.t.Fatal(err)
	}

	sts := []model.Student{{QuizID: q.ID, Name: "Ada", Email: testEmail, ExternalID: "SID-0001"}}
	if err := f.db.Students().CreateMany(f.ctx, sts); err != nil {
		f.t.Fatal(err)
	}
	return q, &sts[0], qs
}

// invite sends the student a code and returns it.
func (f *fixture) invite(q *model.Quiz, st *model.Student, code string) string {
	f.t.Helper()
	f.codes = append(f.codes, code)
	if err := f.invites.SendOne(f.ctx, q, st.ID); err != nil {
		f.t.Fatalf("SendOne: %v", err)
	}
	return code
}

func (f *fixture) start(q *model.Quiz, code string) (*model.StartedAttempt, error) {
	return f.attempts.Start(f.ctx, q.ID, model.VerifyOTPRequest{Email: testEmail, OTP: code})
}

func (f *fixture) mustStart(q *model.Quiz, code string) *model.StartedAttempt {
	f.t.Helper()
	out, err := f.start(q, code)
	if err != nil {
		f.t.Fatalf("Start: %v", err)
	}
	return out
}

func intp(v int) *int { return &v }
