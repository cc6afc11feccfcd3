package memstore

import (
	"context"
	"sync"

	"github.com/omarrislam/Quiz-App/internal/model"
)

// Queue records enqueued mail jobs.
type Queue struct {
	mu   sync.Mutex
	Jobs []model.MailJob
	Err  error
}

func (q *Queue) Enqueue(_ context.Context, job *model.MailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.Jobs = append(q.Jobs, *job)
	return nil
}

// Last returns the most recent job, or nil.
func (q *Queue) Last() *model.MailJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.Jobs) == 0 {
		return nil
	}
	j := q.Jobs[len(q.Jobs)-1]
	return &j
}

// Limiter admits Max hits per key for the life of the test.
type Limiter struct {
	mu   sync.Mutex
	Max  int
	hits map[string]int
}

func NewLimiter(limit int) *Limiter {
	return &Limiter{Max: limit, hits: map[string]int{}}
}

func (l *Limiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hits[key] >= l.Max {
		return false, nil
	}
	l.hits[key]++
	return true, nil
}

// MailCheck is a configurable mail configuration check.
type MailCheck struct{ Err error }

func (m MailCheck) Check() error { return m.Err }
