package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omarrislam/Quiz-App/internal/model"
)

// Attempts implements service.AttemptStore.
type Attempts struct{ db *DB }

func cloneAttempt(a model.Attempt) *model.Attempt {
	a.Score.Details = append([]model.AnswerDetail{}, a.Score.Details...)
	return &a
}

func (s *Attempts) Create(_ context.Context, a *model.Attempt) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, cur := range s.db.attempts {
		if cur.QuizID == a.QuizID && cur.StudentEmail == a.StudentEmail && cur.Status == model.AttemptStatusInProgress {
			return false, nil
		}
	}
	a.ID = uuid.New()
	s.db.attempts[a.ID] = *cloneAttempt(*a)
	return true, nil
}

func (s *Attempts) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneAttempt(a), nil
}

func (s *Attempts) FindActive(_ context.Context, quizID uuid.UUID, email string) (*model.Attempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.attempts {
		if a.QuizID == quizID && a.StudentEmail == email && a.Status == model.AttemptStatusInProgress {
			return cloneAttempt(a), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Attempts) HasCompleted(_ context.Context, quizID uuid.UUID, email string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.attempts {
		if a.QuizID == quizID && a.StudentEmail == email && a.Status == model.AttemptStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (s *Attempts) ListByQuiz(_ context.Context, quizID uuid.UUID) ([]model.Attempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Attempt
	for _, a := range s.db.attempts {
		if a.QuizID == quizID {
			out = append(out, *cloneAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *Attempts) AppendEvent(_ context.Context, ev *model.Event) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.attempts[ev.AttemptID]
	if !ok || a.Status != model.AttemptStatusInProgress {
		return false, nil
	}
	a.Flags.SuspiciousEventsCount++
	s.db.attempts[a.ID] = a
	ev.ID = uuid.New()
	s.db.events = append(s.db.events, *ev)
	return true, nil
}

func (s *Attempts) ListEvents(_ context.Context, attemptID uuid.UUID) ([]model.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Event
	for _, e := range s.db.events {
		if e.AttemptID == attemptID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Attempts) Finish(_ context.Context, id uuid.UUID, score model.Score, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.attempts[id]
	if !ok || a.Status != model.AttemptStatusInProgress {
		return false, nil
	}
	a.Status = model.AttemptStatusCompleted
	a.SubmittedAt = &at
	a.Score = score
	s.db.attempts[id] = *cloneAttempt(a)
	delete(s.db.sessions, id)
	return true, nil
}

func (s *Attempts) Terminate(_ context.Context, id uuid.UUID, reason string, at time.Time) (*model.Attempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	a.Status = model.AttemptStatusForciblyEnded
	a.Flags.ForcedEndReason = &reason
	if a.SubmittedAt == nil {
		a.SubmittedAt = &at
	}
	s.db.attempts[id] = a
	delete(s.db.sessions, id)
	s.db.appendAudit(a.QuizID, model.AuditAttemptEnded, "Attempt ended for "+a.StudentEmail, map[string]any{
		"attempt_id": a.ID.String(),
		"email":      a.StudentEmail,
		"reason":     reason,
	}, at)
	return cloneAttempt(a), nil
}

func (s *Attempts) Delete(_ context.Context, quizID, id uuid.UUID, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.attempts[id]
	if !ok || a.QuizID != quizID {
		return false, nil
	}
	delete(s.db.attempts, id)
	delete(s.db.sessions, id)
	s.db.events = filter(s.db.events, func(e model.Event) bool { return e.AttemptID != id })
	s.db.snapshots = filter(s.db.snapshots, func(p model.Snapshot) bool { return p.AttemptID != id })
	s.db.secondCam = filter(s.db.secondCam, func(p model.SecondCamSnapshot) bool { return p.AttemptID != id })
	s.db.appendAudit(quizID, model.AuditAttemptRemoved, "Attempt removed for "+a.StudentEmail, map[string]any{
		"attempt_id": a.ID.String(),
		"email":      a.StudentEmail,
	}, at)
	return true, nil
}

func (s *Attempts) ExpireOverdue(_ context.Context, grace time.Duration, now time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, a := range s.db.attempts {
		if a.Status != model.AttemptStatusInProgress {
			continue
		}
		q, ok := s.db.quizzes[a.QuizID]
		if !ok || q.Settings.TotalTimeSeconds == nil {
			continue
		}
		limit := time.Duration(*q.Settings.TotalTimeSeconds)*time.Second + grace
		if a.StartedAt.Add(limit).Before(now) {
			a.Status = model.AttemptStatusExpired
			a.SubmittedAt = &now
			s.db.attempts[id] = a
			delete(s.db.sessions, id)
			n++
		}
	}
	return n, nil
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
