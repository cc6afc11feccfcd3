package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/omarrislam/Quiz-App/internal/model"
)

// The interfaces below are the storage contracts the services consume.
// internal/repository provides the Postgres implementations and
// internal/testutil/memstore the in-memory ones. Lookups that find nothing
// return pgx.ErrNoRows; writes that hit a unique key return
// repository.ErrDuplicate.

// InstructorStore persists instructor accounts.
type InstructorStore interface {
	Create(ctx context.Context, in *model.Instructor) error
	GetByEmail(ctx context.Context, email string) (*model.Instructor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Instructor, error)
}

// QuizStore persists quizzes and their window/status.
type QuizStore interface {
	Create(ctx context.Context, q *model.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	GetOwned(ctx context.Context, id, instructorID uuid.UUID) (*model.Quiz, error)
	GetByCode(ctx context.Context, code string) (*model.Quiz, error)
	ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]model.Quiz, error)
	Update(ctx context.Context, q *model.Quiz) error
	Delete(ctx context.Context, id, instructorID uuid.UUID) (bool, error)
	// CloseExpired flips the instructor's published quizzes whose end has
	// passed to closed, writing one quiz_closed audit entry per quiz.
	CloseExpired(ctx context.Context, instructorID uuid.UUID, now time.Time) ([]uuid.UUID, error)
	// CloseIfExpired does the same for a single quiz.
	CloseIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	// CloseAndEndAttempts closes the quiz, force-ends every running attempt
	// and writes a quiz_closed audit entry, atomically.
	CloseAndEndAttempts(ctx context.Context, id uuid.UUID, reason string, now time.Time) (int, error)
}

// QuestionStore persists a quiz's question set.
type QuestionStore interface {
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error)
	GetByID(ctx context.Context, quizID, id uuid.UUID) (*model.Question, error)
	// Replace swaps the whole set in one transaction.
	Replace(ctx context.Context, quizID uuid.UUID, qs []model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, quizID, id uuid.UUID) (bool, error)
	DeleteAll(ctx context.Context, quizID uuid.UUID) (int64, error)
}

// StudentStore persists a quiz's roster.
type StudentStore interface {
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Student, error)
	GetByID(ctx context.Context, quizID, id uuid.UUID) (*model.Student, error)
	GetByEmail(ctx context.Context, quizID uuid.UUID, email string) (*model.Student, error)
	CreateMany(ctx context.Context, students []model.Student) error
	Update(ctx context.Context, s *model.Student) error
	// Delete removes the student and its invitation.
	Delete(ctx context.Context, quizID, id uuid.UUID) (bool, error)
	DeleteAll(ctx context.Context, quizID uuid.UUID) (int64, error)
	Search(ctx context.Context, quizID uuid.UUID, query string, limit int) ([]model.StudentSearchResult, error)
}

// InvitationStore persists the single OTP slot per (quiz, student).
type InvitationStore interface {
	// Upsert replaces hash, expiry and send time and clears the counter
	// and verification stamp.
	Upsert(ctx context.Context, inv *model.Invitation) error
	GetByStudent(ctx context.Context, quizID, studentID uuid.UUID) (*model.Invitation, error)
	// IncrementAttempts persists one failed guess and returns the new count.
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)
	// Consume stamps verification and resets the counter only if the slot
	// is still unverified and holds otpHash. False means it lost a race.
	Consume(ctx context.Context, id uuid.UUID, otpHash string, at time.Time) (bool, error)
	CountByQuiz(ctx context.Context, quizID uuid.UUID) (int, error)
}

// AttemptStore persists attempts and their suspicious-event log. Every
// mutation is a single conditional statement.
type AttemptStore interface {
	// Create returns false when an in-progress attempt already exists for
	// the (quiz, email) pair.
	Create(ctx context.Context, a *model.Attempt) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	FindActive(ctx context.Context, quizID uuid.UUID, email string) (*model.Attempt, error)
	HasCompleted(ctx context.Context, quizID uuid.UUID, email string) (bool, error)
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Attempt, error)
	// AppendEvent inserts ev and bumps the counter only while the attempt
	// is in progress. False means nothing was written.
	AppendEvent(ctx context.Context, ev *model.Event) (bool, error)
	ListEvents(ctx context.Context, attemptID uuid.UUID) ([]model.Event, error)
	// Finish writes the score and moves in_progress to completed. False
	// means the attempt had already left in_progress.
	Finish(ctx context.Context, id uuid.UUID, score model.Score, at time.Time) (bool, error)
	// Terminate moves any status to forcibly_ended and writes an
	// attempt_ended audit entry in the same statement.
	Terminate(ctx context.Context, id uuid.UUID, reason string, at time.Time) (*model.Attempt, error)
	// Delete removes the attempt with its dependents and writes an
	// attempt_removed audit entry.
	Delete(ctx context.Context, quizID, id uuid.UUID, at time.Time) (bool, error)
	// ExpireOverdue marks running attempts past their total time limit
	// plus grace as expired.
	ExpireOverdue(ctx context.Context, grace time.Duration, now time.Time) (int64, error)
}

// SnapshotStore persists webcam captures and second-camera liveness.
type SnapshotStore interface {
	// InsertPhase returns false when the (attempt, phase) slot is taken.
	InsertPhase(ctx context.Context, s *model.Snapshot) (bool, error)
	ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Snapshot, error)
	// TouchSession upserts the session: connected_at once, last_seen_at always.
	TouchSession(ctx context.Context, attemptID uuid.UUID, at time.Time) (*model.SecondCamSession, error)
	// RecordHeartbeat stores a capture and refreshes the session together.
	RecordHeartbeat(ctx context.Context, s *model.SecondCamSnapshot) (*model.SecondCamSession, error)
	GetSession(ctx context.Context, attemptID uuid.UUID) (*model.SecondCamSession, error)
	ListSecondCam(ctx context.Context, attemptID uuid.UUID) ([]model.SecondCamSnapshot, error)
	// Purge drops captures older than snapshotsBefore and sessions idle
	// since sessionsBefore.
	Purge(ctx context.Context, snapshotsBefore, sessionsBefore time.Time) (model.PurgeStats, error)
}

// AuditStore persists a quiz's audit trail and serves dashboard reads.
type AuditStore interface {
	Append(ctx context.Context, entry *model.AuditLog) error
	ListByQuiz(ctx context.Context, quizID uuid.UUID, q model.AuditQuery) ([]model.AuditLog, error)
	ListEventsByQuiz(ctx context.Context, quizID uuid.UUID, q model.AuditQuery) ([]model.QuizEvent, error)
	AttemptStats(ctx context.Context, quizID uuid.UUID) (model.AttemptStats, error)
}

// MailQueue hands OTP deliveries to the background mail worker.
type MailQueue interface {
	Enqueue(ctx context.Context, job *model.MailJob) error
}

// Limiter admits at most a fixed number of hits per key in a rolling window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
