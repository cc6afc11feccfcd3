package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omarrislam/Quiz-App/internal/model"
)

const attemptColumns = `id, quiz_id, student_id, student_name, student_email, status, started_at, submitted_at,
	correct_count, total_questions, details, suspicious_events_count, forced_end_reason`

// AttemptRepository handles attempt and event data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	var details []byte
	err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.StudentName, &a.StudentEmail, &a.Status,
		&a.StartedAt, &a.SubmittedAt, &a.Score.CorrectCount, &a.Score.TotalQuestions, &details,
		&a.Flags.SuspiciousEventsCount, &a.Flags.ForcedEndReason)
	if err != nil {
		return nil, err
	}
	a.Score.Details = []model.AnswerDetail{}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &a.Score.Details); err != nil {
			return nil, fmt.Errorf("decode attempt details: %w", err)
		}
	}
	return a, nil
}

// Create inserts a running attempt unless one already exists for the
// (quiz, email) pair.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) (bool, error) {
	details, err := json.Marshal(a.Score.Details)
	if err != nil {
		return false, err
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO attempts (quiz_id, student_id, student_name, student_email, status, started_at,
		                       correct_count, total_questions, details)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, 0, $7)
		 ON CONFLICT (quiz_id, student_email) WHERE status = 'in_progress' DO NOTHING
		 RETURNING id`,
		a.QuizID, a.StudentID, a.StudentName, a.StudentEmail, a.Status, a.StartedAt, details,
	).Scan(&a.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
}

// FindActive retrieves the running attempt for an invitee.
func (r *AttemptRepository) FindActive(ctx context.Context, quizID uuid.UUID, email string) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE quiz_id = $1 AND student_email = $2 AND status = 'in_progress'`, quizID, email))
}

// HasCompleted reports whether the invitee already finished this quiz.
func (r *AttemptRepository) HasCompleted(ctx context.Context, quizID uuid.UUID, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM attempts WHERE quiz_id = $1 AND student_email = $2 AND status = 'completed')`,
		quizID, email).Scan(&exists)
	return exists, err
}

// ListByQuiz retrieves a quiz's attempts, newest first.
func (r *AttemptRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE quiz_id = $1 ORDER BY started_at DESC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// AppendEvent inserts the event and bumps the counter in one statement.
// Nothing is written once the attempt has ended.
func (r *AttemptRepository) AppendEvent(ctx context.Context, ev *model.Event) (bool, error) {
	var extra []byte
	if len(ev.Extra) > 0 {
		extra = ev.Extra
	}
	err := r.pool.QueryRow(ctx,
		`WITH bumped AS (
		     UPDATE attempts SET suspicious_events_count = suspicious_events_count + 1
		     WHERE id = $1 AND status = 'in_progress'
		     RETURNING id
		 )
		 INSERT INTO events (attempt_id, type, message, extra, created_at)
		 SELECT id, $2, $3, $4::jsonb, $5 FROM bumped
		 RETURNING id`,
		ev.AttemptID, ev.Type, ev.Message, extra, ev.CreatedAt,
	).Scan(&ev.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListEvents retrieves an attempt's events in order.
func (r *AttemptRepository) ListEvents(ctx context.Context, attemptID uuid.UUID) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, type, message, extra, created_at
		 FROM events WHERE attempt_id = $1 ORDER BY created_at`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.ID, &ev.AttemptID, &ev.Type, &ev.Message, &ev.Extra, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Finish completes a running attempt and drops its second-camera session.
func (r *AttemptRepository) Finish(ctx context.Context, id uuid.UUID, score model.Score, at time.Time) (bool, error) {
	details, err := json.Marshal(score.Details)
	if err != nil {
		return false, err
	}
	var n int
	err = r.pool.QueryRow(ctx,
		`WITH done AS (
		     UPDATE attempts
		     SET status = 'completed', submitted_at = $2, correct_count = $3, total_questions = $4, details = $5
		     WHERE id = $1 AND status = 'in_progress'
		     RETURNING id
		 ), purged AS (
		     DELETE FROM second_cam_sessions WHERE attempt_id IN (SELECT id FROM done)
		 )
		 SELECT COUNT(*) FROM done`,
		id, at, score.CorrectCount, score.TotalQuestions, details,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Terminate force-ends an attempt from any state, drops its session and
// writes the attempt_ended audit entry.
func (r *AttemptRepository) Terminate(ctx context.Context, id uuid.UUID, reason string, at time.Time) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`WITH ended AS (
		     UPDATE attempts
		     SET status = 'forcibly_ended', forced_end_reason = $2, submitted_at = COALESCE(submitted_at, $3)
		     WHERE id = $1
		     RETURNING `+attemptColumns+`
		 ), purged AS (
		     DELETE FROM second_cam_sessions WHERE attempt_id IN (SELECT id FROM ended)
		 ), logged AS (
		     INSERT INTO audit_logs (quiz_id, type, message, meta, created_at)
		     SELECT quiz_id, 'attempt_ended', 'Attempt ended for ' || student_email,
		            jsonb_build_object('attempt_id', id, 'email', student_email, 'reason', $2::text), $3
		     FROM ended
		 )
		 SELECT `+attemptColumns+` FROM ended`,
		id, reason, at))
}

// Delete removes an attempt. Events, snapshots and the session cascade.
func (r *AttemptRepository) Delete(ctx context.Context, quizID, id uuid.UUID, at time.Time) (bool, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`WITH removed AS (
		     DELETE FROM attempts WHERE id = $2 AND quiz_id = $1
		     RETURNING id, quiz_id, student_email
		 ), logged AS (
		     INSERT INTO audit_logs (quiz_id, type, message, meta, created_at)
		     SELECT quiz_id, 'attempt_removed', 'Attempt removed for ' || student_email,
		            jsonb_build_object('attempt_id', id, 'email', student_email), $3
		     FROM removed
		 )
		 SELECT COUNT(*) FROM removed`,
		quizID, id, at,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExpireOverdue marks running attempts whose quiz carries a total time
// limit and whose start lies further back than that limit plus grace.
func (r *AttemptRepository) ExpireOverdue(ctx context.Context, grace time.Duration, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`WITH overdue AS (
		     SELECT a.id FROM attempts a
		     JOIN quizzes q ON q.id = a.quiz_id
		     WHERE a.status = 'in_progress'
		       AND (q.settings->>'total_time_seconds') IS NOT NULL
		       AND a.started_at + make_interval(secs => (q.settings->>'total_time_seconds')::int + $2::float8) < $1
		 ), purged AS (
		     DELETE FROM second_cam_sessions WHERE attempt_id IN (SELECT id FROM overdue)
		 )
		 UPDATE attempts SET status = 'expired', submitted_at = $1
		 WHERE id IN (SELECT id FROM overdue) AND status = 'in_progress'`,
		now, grace.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
