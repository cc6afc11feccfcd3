package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/queue"
	"github.com/omarrislam/Quiz-App/internal/testutil/memstore"
	"github.com/rs/zerolog"
)

type sliceSource struct {
	mu     sync.Mutex
	jobs   []*model.MailJob
	errs   []error
	cancel context.CancelFunc
}

func (s *sliceSource) Pop(ctx context.Context, _ time.Duration) (*model.MailJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if len(s.jobs) == 0 {
		s.cancel()
		return nil, queue.ErrEmpty
	}
	j := s.jobs[0]
	s.jobs = s.jobs[1:]
	return j, nil
}

func (s *sliceSource) Requeue(_ context.Context, job *model.MailJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

type flakySender struct {
	mu    sync.Mutex
	fails int
	sent  []string
	tries int
}

func (s *flakySender) Send(_ context.Context, job *model.MailJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tries++
	if s.fails > 0 {
		s.fails--
		return errors.New("smtp: 421 try later")
	}
	s.sent = append(s.sent, job.To)
	return nil
}

func runWorker(t *testing.T, src *sliceSource, sender *flakySender, db *memstore.DB) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	src.cancel = cancel
	w := NewMailWorker(src, sender, db.Audit(), zerolog.Nop())
	w.retryDelay = 0
	w.errBackoff = 0

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func newJob(to string) *model.MailJob {
	return &model.MailJob{ID: uuid.NewString(), QuizID: uuid.New(), To: to, Subject: "Your code", Text: "123456"}
}

func TestMailWorkerRetriesThenDelivers(t *testing.T) {
	db := memstore.New()
	src := &sliceSource{jobs: []*model.MailJob{newJob("ada@example.com")}}
	sender := &flakySender{fails: 2}

	runWorker(t, src, sender, db)

	if len(sender.sent) != 1 || sender.tries != 3 {
		t.Fatalf("sent=%v tries=%d", sender.sent, sender.tries)
	}
	if n := len(db.AuditOfType(model.AuditOTPDeliveryFailed)); n != 0 {
		t.Fatalf("unexpected failure audit: %d", n)
	}
}

func TestMailWorkerGivesUpAfterThreeTries(t *testing.T) {
	db := memstore.New()
	job := newJob("grace@example.com")
	src := &sliceSource{jobs: []*model.MailJob{job}}
	sender := &flakySender{fails: 10}

	runWorker(t, src, sender, db)

	if sender.tries != MaxDeliveryAttempts {
		t.Fatalf("tries = %d", sender.tries)
	}
	entries := db.AuditOfType(model.AuditOTPDeliveryFailed)
	if len(entries) != 1 {
		t.Fatalf("failure audits = %d", len(entries))
	}
	e := entries[0]
	if e.QuizID != job.QuizID || e.Meta["email"] != "grace@example.com" || e.Meta["attempts"] != MaxDeliveryAttempts {
		t.Fatalf("entry = %+v", e)
	}
}

func TestMailWorkerSkipsMalformedAndQueueErrors(t *testing.T) {
	db := memstore.New()
	src := &sliceSource{
		errs: []error{
			&queue.MalformedError{Raw: "{", Err: errors.New("unexpected end of JSON input")},
			errors.New("connection reset"),
		},
		jobs: []*model.MailJob{newJob("ada@example.com")},
	}
	sender := &flakySender{}

	runWorker(t, src, sender, db)

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %v", sender.sent)
	}
}
