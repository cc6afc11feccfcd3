// Package memstore provides in-memory implementations of the service
// storage contracts for tests. Every store shares one DB so cross-table
// effects (cascades, audit rows written by attempt mutations) behave like
// the Postgres repositories.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/repository"
)

// DB is the shared backing state.
type DB struct {
	mu          sync.Mutex
	instructors map[uuid.UUID]model.Instructor
	quizzes     map[uuid.UUID]model.Quiz
	questions   map[uuid.UUID]model.Question
	students    map[uuid.UUID]model.Student
	invitations map[uuid.UUID]model.Invitation
	attempts    map[uuid.UUID]model.Attempt
	events      []model.Event
	snapshots   []model.Snapshot
	secondCam   []model.SecondCamSnapshot
	sessions    map[uuid.UUID]model.SecondCamSession
	audit       []model.AuditLog
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		instructors: map[uuid.UUID]model.Instructor{},
		quizzes:     map[uuid.UUID]model.Quiz{},
		questions:   map[uuid.UUID]model.Question{},
		students:    map[uuid.UUID]model.Student{},
		invitations: map[uuid.UUID]model.Invitation{},
		attempts:    map[uuid.UUID]model.Attempt{},
		sessions:    map[uuid.UUID]model.SecondCamSession{},
	}
}

func (db *DB) Instructors() *Instructors { return &Instructors{db} }
func (db *DB) Quizzes() *Quizzes         { return &Quizzes{db} }
func (db *DB) Questions() *Questions     { return &Questions{db} }
func (db *DB) Students() *Students       { return &Students{db} }
func (db *DB) Invitations() *Invitations { return &Invitations{db} }
func (db *DB) Attempts() *Attempts       { return &Attempts{db} }
func (db *DB) Snapshots() *Snapshots     { return &Snapshots{db} }
func (db *DB) Audit() *Audit             { return &Audit{db} }

// AuditEntries returns a copy of the audit trail in insertion order.
func (db *DB) AuditEntries() []model.AuditLog {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]model.AuditLog(nil), db.audit...)
}

// AuditOfType returns the entries with the given type.
func (db *DB) AuditOfType(t model.AuditType) []model.AuditLog {
	var out []model.AuditLog
	for _, e := range db.AuditEntries() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Events returns a copy of every recorded suspicious event.
func (db *DB) Events() []model.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]model.Event(nil), db.events...)
}

// Session returns the raw second camera session, if any.
func (db *DB) Session(attemptID uuid.UUID) (model.SecondCamSession, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.sessions[attemptID]
	return s, ok
}

func (db *DB) appendAudit(quizID uuid.UUID, t model.AuditType, msg string, meta map[string]any, at time.Time) {
	db.audit = append(db.audit, *model.NewAuditLog(quizID, t, msg, meta, at))
}

// Instructors implements service.InstructorStore.
type Instructors struct{ db *DB }

func (s *Instructors) Create(_ context.Context, in *model.Instructor) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, e := range s.db.instructors {
		if e.Email == in.Email {
			return repository.ErrDuplicate
		}
	}
	in.ID = uuid.New()
	in.CreatedAt = time.Now()
	s.db.instructors[in.ID] = *in
	return nil
}

func (s *Instructors) GetByEmail(_ context.Context, email string) (*model.Instructor, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, e := range s.db.instructors {
		if e.Email == email {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Instructors) GetByID(_ context.Context, id uuid.UUID) (*model.Instructor, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.instructors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

// Quizzes implements service.QuizStore.
type Quizzes struct{ db *DB }

func (s *Quizzes) codeTaken(code *string, except uuid.UUID) bool {
	if code == nil {
		return false
	}
	for id, q := range s.db.quizzes {
		if id != except && q.Code != nil && *q.Code == *code {
			return true
		}
	}
	return false
}

func (s *Quizzes) Create(_ context.Context, q *model.Quiz) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.codeTaken(q.Code, uuid.Nil) {
		return repository.ErrDuplicate
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	now := time.Now()
	q.CreatedAt, q.UpdatedAt = now, now
	s.db.quizzes[q.ID] = *q
	return nil
}

func (s *Quizzes) GetByID(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quizzes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &q, nil
}

func (s *Quizzes) GetOwned(ctx context.Context, id, instructorID uuid.UUID) (*model.Quiz, error) {
	q, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.InstructorID != instructorID {
		return nil, pgx.ErrNoRows
	}
	return q, nil
}

func (s *Quizzes) GetByCode(_ context.Context, code string) (*model.Quiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, q := range s.db.quizzes {
		if q.Code != nil && *q.Code == code {
			return &q, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Quizzes) ListByInstructor(_ context.Context, instructorID uuid.UUID) ([]model.Quiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Quiz
	for _, q := range s.db.quizzes {
		if q.InstructorID == instructorID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Quizzes) Update(_ context.Context, q *model.Quiz) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.quizzes[q.ID]; !ok {
		return pgx.ErrNoRows
	}
	if s.codeTaken(q.Code, q.ID) {
		return repository.ErrDuplicate
	}
	q.UpdatedAt = time.Now()
	s.db.quizzes[q.ID] = *q
	return nil
}

func (s *Quizzes) Delete(_ context.Context, id, instructorID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quizzes[id]
	if !ok || q.InstructorID != instructorID {
		return false, nil
	}
	delete(s.db.quizzes, id)
	return true, nil
}

func (s *Quizzes) closeLocked(q model.Quiz, now time.Time) {
	q.Status = model.QuizStatusClosed
	q.UpdatedAt = now
	s.db.quizzes[q.ID] = q
	s.db.appendAudit(q.ID, model.AuditQuizClosed, "Quiz closed (end time reached)",
		map[string]any{"end_at": q.EndAt.Format(time.RFC3339)}, now)
}

func expired(q model.Quiz, now time.Time) bool {
	return q.Status == model.QuizStatusPublished && q.EndAt != nil && q.EndAt.Before(now)
}

func (s *Quizzes) CloseExpired(_ context.Context, instructorID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var ids []uuid.UUID
	for _, q := range s.db.quizzes {
		if q.InstructorID == instructorID && expired(q, now) {
			s.closeLocked(q, now)
			ids = append(ids, q.ID)
		}
	}
	return ids, nil
}

func (s *Quizzes) CloseIfExpired(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quizzes[id]
	if !ok || !expired(q, now) {
		return false, nil
	}
	s.closeLocked(q, now)
	return true, nil
}

func (s *Quizzes) CloseAndEndAttempts(_ context.Context, id uuid.UUID, reason string, now time.Time) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quizzes[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	q.Status = model.QuizStatusClosed
	q.UpdatedAt = now
	s.db.quizzes[id] = q

	ended := 0
	for aid, a := range s.db.attempts {
		if a.QuizID != id || a.Status != model.AttemptStatusInProgress {
			continue
		}
		r := reason
		a.Status = model.AttemptStatusForciblyEnded
		a.Flags.ForcedEndReason = &r
		if a.SubmittedAt == nil {
			a.SubmittedAt = &now
		}
		s.db.attempts[aid] = a
		delete(s.db.sessions, aid)
		ended++
	}
	s.db.appendAudit(id, model.AuditQuizClosed, "Quiz closed by instructor",
		map[string]any{"ended_attempts": ended}, now)
	return ended, nil
}

// Questions implements service.QuestionStore.
type Questions struct{ db *DB }

func (s *Questions) ListByQuiz(_ context.Context, quizID uuid.UUID) ([]model.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Question
	for _, q := range s.db.questions {
		if q.QuizID == quizID {
			q.Options = append([]string(nil), q.Options...)
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *Questions) GetByID(_ context.Context, quizID, id uuid.UUID) (*model.Question, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.questions[id]
	if !ok || q.QuizID != quizID {
		return nil, pgx.ErrNoRows
	}
	q.Options = append([]string(nil), q.Options...)
	return &q, nil
}

func (s *Questions) Replace(_ context.Context, quizID uuid.UUID, qs []model.Question) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, q := range s.db.questions {
		if q.QuizID == quizID {
			delete(s.db.questions, id)
		}
	}
	for i := range qs {
		qs[i].ID = uuid.New()
		qs[i].QuizID = quizID
		qs[i].CreatedAt = time.Now()
		s.db.questions[qs[i].ID] = qs[i]
	}
	return nil
}

func (s *Questions) Update(_ context.Context, q *model.Question) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.questions[q.ID]
	if !ok || cur.QuizID != q.QuizID {
		return pgx.ErrNoRows
	}
	s.db.questions[q.ID] = *q
	return nil
}

func (s *Questions) Delete(_ context.Context, quizID, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.questions[id]
	if !ok || q.QuizID != quizID {
		return false, nil
	}
	delete(s.db.questions, id)
	return true, nil
}

func (s *Questions) DeleteAll(_ context.Context, quizID uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, q := range s.db.questions {
		if q.QuizID == quizID {
			delete(s.db.questions, id)
			n++
		}
	}
	return n, nil
}

// Students implements service.StudentStore.
type Students struct{ db *DB }

func (s *Students) ListByQuiz(_ context.Context, quizID uuid.UUID) ([]model.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Student
	for _, st := range s.db.students {
		if st.QuizID == quizID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (s *Students) GetByID(_ context.Context, quizID, id uuid.UUID) (*model.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	st, ok := s.db.students[id]
	if !ok || st.QuizID != quizID {
		return nil, pgx.ErrNoRows
	}
	return &st, nil
}

func (s *Students) GetByEmail(_ context.Context, quizID uuid.UUID, email string) (*model.Student, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, st := range s.db.students {
		if st.QuizID == quizID && st.Email == email {
			return &st, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Students) conflicts(st model.Student) bool {
	for id, e := range s.db.students {
		if id == st.ID || e.QuizID != st.QuizID {
			continue
		}
		if e.Email == st.Email || e.ExternalID == st.ExternalID {
			return true
		}
	}
	return false
}

func (s *Students) CreateMany(_ context.Context, students []model.Student) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	added := make([]uuid.UUID, 0, len(students))
	for i := range students {
		students[i].ID = uuid.New()
		students[i].CreatedAt = time.Now()
		if s.conflicts(students[i]) {
			for _, id := range added {
				delete(s.db.students, id)
			}
			return repository.ErrDuplicate
		}
		s.db.students[students[i].ID] = students[i]
		added = append(added, students[i].ID)
	}
	return nil
}

func (s *Students) Update(_ context.Context, st *model.Student) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cur, ok := s.db.students[st.ID]
	if !ok || cur.QuizID != st.QuizID {
		return pgx.ErrNoRows
	}
	if s.conflicts(*st) {
		return repository.ErrDuplicate
	}
	s.db.students[st.ID] = *st
	return nil
}

func (s *Students) deleteLocked(id uuid.UUID) {
	delete(s.db.students, id)
	for iid, inv := range s.db.invitations {
		if inv.StudentID == id {
			delete(s.db.invitations, iid)
		}
	}
	for aid, a := range s.db.attempts {
		if a.StudentID != nil && *a.StudentID == id {
			a.StudentID = nil
			s.db.attempts[aid] = a
		}
	}
}

func (s *Students) Delete(_ context.Context, quizID, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	st, ok := s.db.students[id]
	if !ok || st.QuizID != quizID {
		return false, nil
	}
	s.deleteLocked(id)
	return true, nil
}

func (s *Students) DeleteAll(_ context.Context, quizID uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, st := range s.db.students {
		if st.QuizID == quizID {
			s.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (s *Students) Search(_ context.Context, quizID uuid.UUID, query string, limit int) ([]model.StudentSearchResult, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q := strings.ToLower(query)
	var out []model.StudentSearchResult
	for _, st := range s.db.students {
		if st.QuizID == quizID && strings.Contains(strings.ToLower(st.Name), q) {
			out = append(out, model.StudentSearchResult{Name: st.Name, Email: st.Email})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Invitations implements service.InvitationStore.
type Invitations struct{ db *DB }

func (s *Invitations) Upsert(_ context.Context, inv *model.Invitation) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, cur := range s.db.invitations {
		if cur.QuizID == inv.QuizID && cur.StudentID == inv.StudentID {
			inv.ID = id
		}
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.Attempts = 0
	inv.VerifiedAt = nil
	s.db.invitations[inv.ID] = *inv
	return nil
}

func (s *Invitations) GetByStudent(_ context.Context, quizID, studentID uuid.UUID) (*model.Invitation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, inv := range s.db.invitations {
		if inv.QuizID == quizID && inv.StudentID == studentID {
			return &inv, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Invitations) IncrementAttempts(_ context.Context, id uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	inv, ok := s.db.invitations[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	inv.Attempts++
	s.db.invitations[id] = inv
	return inv.Attempts, nil
}

func (s *Invitations) Consume(_ context.Context, id uuid.UUID, otpHash string, at time.Time) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	inv, ok := s.db.invitations[id]
	if !ok || inv.OTPHash != otpHash || inv.VerifiedAt != nil || inv.Exhausted() || !at.Before(inv.OTPExpiresAt) {
		return false, nil
	}
	inv.VerifiedAt = &at
	inv.Attempts = 0
	s.db.invitations[id] = inv
	return true, nil
}

func (s *Invitations) CountByQuiz(_ context.Context, quizID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, inv := range s.db.invitations {
		if inv.QuizID == quizID {
			n++
		}
	}
	return n, nil
}
