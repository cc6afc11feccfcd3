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

const quizColumns = `id, instructor_id, title, code, status, start_at, end_at, settings, created_at, updated_at`

// QuizRepository handles quiz data access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

func scanQuiz(row pgx.Row) (*model.Quiz, error) {
	q := &model.Quiz{}
	var settings []byte
	if err := row.Scan(&q.ID, &q.InstructorID, &q.Title, &q.Code, &q.Status, &q.StartAt, &q.EndAt,
		&settings, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Settings = model.DefaultQuizSettings()
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &q.Settings); err != nil {
			return nil, fmt.Errorf("decode quiz settings: %w", err)
		}
	}
	return q, nil
}

// Create inserts a new quiz. A taken code returns ErrDuplicate.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	settings, err := json.Marshal(q.Settings)
	if err != nil {
		return fmt.Errorf("encode quiz settings: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (instructor_id, title, code, status, start_at, end_at, settings)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		q.InstructorID, q.Title, q.Code, q.Status, q.StartAt, q.EndAt, settings,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return mapUnique(err)
}

// GetByID retrieves a quiz regardless of owner.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
}

// GetOwned retrieves a quiz only if instructorID owns it.
func (r *QuizRepository) GetOwned(ctx context.Context, id, instructorID uuid.UUID) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1 AND instructor_id = $2`, id, instructorID))
}

// GetByCode retrieves a quiz by its short code.
func (r *QuizRepository) GetByCode(ctx context.Context, code string) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE code = $1`, code))
}

// ListByInstructor retrieves an instructor's quizzes, newest first.
func (r *QuizRepository) ListByInstructor(ctx context.Context, instructorID uuid.UUID) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE instructor_id = $1 ORDER BY created_at DESC`, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}

// Update writes every mutable column.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	settings, err := json.Marshal(q.Settings)
	if err != nil {
		return fmt.Errorf("encode quiz settings: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes
		 SET title = $2, code = $3, status = $4, start_at = $5, end_at = $6, settings = $7, updated_at = $8
		 WHERE id = $1`,
		q.ID, q.Title, q.Code, q.Status, q.StartAt, q.EndAt, settings, q.UpdatedAt)
	if err != nil {
		return mapUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a quiz; dependents go with it via ON DELETE CASCADE.
func (r *QuizRepository) Delete(ctx context.Context, id, instructorID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1 AND instructor_id = $2`, id, instructorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const closeExpiredAudit = `
	INSERT INTO audit_logs (quiz_id, type, message, meta, created_at)
	SELECT id, 'quiz_closed', 'Quiz closed (end time reached)', jsonb_build_object('end_at', end_at), $2 FROM closed
	RETURNING quiz_id`

// CloseExpired closes the instructor's lapsed published quizzes.
func (r *QuizRepository) CloseExpired(ctx context.Context, instructorID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`WITH closed AS (
			UPDATE quizzes SET status = 'closed', updated_at = $2
			WHERE instructor_id = $1 AND status = 'published' AND end_at IS NOT NULL AND end_at < $2
			RETURNING id, end_at
		)`+closeExpiredAudit, instructorID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CloseIfExpired closes one quiz if it is published past its end.
func (r *QuizRepository) CloseIfExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	var got uuid.UUID
	err := r.pool.QueryRow(ctx,
		`WITH closed AS (
			UPDATE quizzes SET status = 'closed', updated_at = $2
			WHERE id = $1 AND status = 'published' AND end_at IS NOT NULL AND end_at < $2
			RETURNING id, end_at
		)`+closeExpiredAudit, id, now).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CloseAndEndAttempts closes the quiz and force-ends its running attempts
// in one transaction. Returns the number of attempts ended.
func (r *QuizRepository) CloseAndEndAttempts(ctx context.Context, id uuid.UUID, reason string, now time.Time) (int, error) {
	var ended int
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE quizzes SET status = 'closed', updated_at = $2 WHERE id = $1`, id, now)
		if err != nil {
			return fmt.Errorf("close quiz: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		tag, err = tx.Exec(ctx,
			`UPDATE attempts SET status = 'forcibly_ended', submitted_at = $2, forced_end_reason = $3
			 WHERE quiz_id = $1 AND status = 'in_progress'`, id, now, reason)
		if err != nil {
			return fmt.Errorf("end attempts: %w", err)
		}
		ended = int(tag.RowsAffected())

		if _, err := tx.Exec(ctx,
			`DELETE FROM second_cam_sessions s USING attempts a
			 WHERE s.attempt_id = a.id AND a.quiz_id = $1`, id); err != nil {
			return fmt.Errorf("purge second cam sessions: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO audit_logs (quiz_id, type, message, meta, created_at)
			 VALUES ($1, 'quiz_closed', $2, jsonb_build_object('ended_attempts', $3::int), $4)`,
			id, reason, ended, now)
		if err != nil {
			return fmt.Errorf("write audit: %w", err)
		}
		return nil
	})
	return ended, err
}
