package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omarrislam/Quiz-App/internal/model"
)

// AuditRepository handles the audit trail and dashboard aggregates.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append inserts one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry *model.AuditLog) error {
	var meta []byte
	if len(entry.Meta) > 0 {
		b, err := json.Marshal(entry.Meta)
		if err != nil {
			return fmt.Errorf("encode audit meta: %w", err)
		}
		meta = b
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, quiz_id, type, message, meta, created_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		entry.ID, entry.QuizID, entry.Type, entry.Message, meta, entry.CreatedAt)
	return err
}

// ListByQuiz retrieves audit entries newest first.
func (r *AuditRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID, q model.AuditQuery) ([]model.AuditLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, type, message, meta, created_at
		 FROM audit_logs
		 WHERE quiz_id = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
		 ORDER BY created_at DESC
		 LIMIT $3`, quizID, q.Since, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditLog
	for rows.Next() {
		var l model.AuditLog
		var meta []byte
		if err := rows.Scan(&l.ID, &l.QuizID, &l.Type, &l.Message, &meta, &l.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &l.Meta); err != nil {
				return nil, fmt.Errorf("decode audit meta: %w", err)
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListEventsByQuiz retrieves suspicious events across all of a quiz's
// attempts, newest first.
func (r *AuditRepository) ListEventsByQuiz(ctx context.Context, quizID uuid.UUID, q model.AuditQuery) ([]model.QuizEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.attempt_id, e.type, e.message, e.extra, e.created_at, a.student_email, a.student_name
		 FROM events e
		 JOIN attempts a ON a.id = e.attempt_id
		 WHERE a.quiz_id = $1 AND ($2::timestamptz IS NULL OR e.created_at >= $2)
		 ORDER BY e.created_at DESC
		 LIMIT $3`, quizID, q.Since, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QuizEvent
	for rows.Next() {
		var e model.QuizEvent
		if err := rows.Scan(&e.ID, &e.AttemptID, &e.Type, &e.Message, &e.Extra, &e.CreatedAt,
			&e.StudentEmail, &e.StudentName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AttemptStats aggregates a quiz's attempts for the dashboard.
func (r *AuditRepository) AttemptStats(ctx context.Context, quizID uuid.UUID) (model.AttemptStats, error) {
	var st model.AttemptStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'in_progress'),
		        COUNT(*) FILTER (WHERE status = 'completed'),
		        (AVG(correct_count) FILTER (WHERE status = 'completed'))::float8,
		        MAX(submitted_at) FILTER (WHERE status = 'completed')
		 FROM attempts WHERE quiz_id = $1`, quizID,
	).Scan(&st.Total, &st.Active, &st.Completed, &st.AverageCorrect, &st.LastSubmissionAt)
	return st, err
}
