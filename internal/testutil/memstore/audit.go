package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/omarrislam/Quiz-App/internal/model"
)

// Audit implements service.AuditStore.
type Audit struct{ db *DB }

func (s *Audit) Append(_ context.Context, entry *model.AuditLog) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.audit = append(s.db.audit, *entry)
	return nil
}

func (s *Audit) ListByQuiz(_ context.Context, quizID uuid.UUID, q model.AuditQuery) ([]model.AuditLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.AuditLog
	for _, e := range s.db.audit {
		if e.QuizID != quizID || (q.Since != nil && e.CreatedAt.Before(*q.Since)) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Audit) ListEventsByQuiz(_ context.Context, quizID uuid.UUID, q model.AuditQuery) ([]model.QuizEvent, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.QuizEvent
	for _, e := range s.db.events {
		a, ok := s.db.attempts[e.AttemptID]
		if !ok || a.QuizID != quizID || (q.Since != nil && e.CreatedAt.Before(*q.Since)) {
			continue
		}
		out = append(out, model.QuizEvent{Event: e, StudentEmail: a.StudentEmail, StudentName: a.StudentName})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Audit) AttemptStats(_ context.Context, quizID uuid.UUID) (model.AttemptStats, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var st model.AttemptStats
	sum := 0
	for _, a := range s.db.attempts {
		if a.QuizID != quizID {
			continue
		}
		st.Total++
		switch a.Status {
		case model.AttemptStatusInProgress:
			st.Active++
		case model.AttemptStatusCompleted:
			st.Completed++
			sum += a.Score.CorrectCount
			if a.SubmittedAt != nil && (st.LastSubmissionAt == nil || a.SubmittedAt.After(*st.LastSubmissionAt)) {
				t := *a.SubmittedAt
				st.LastSubmissionAt = &t
			}
		}
	}
	if st.Completed > 0 {
		avg := float64(sum) / float64(st.Completed)
		st.AverageCorrect = &avg
	}
	return st, nil
}
