package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omarrislam/Quiz-App/internal/model"
)

const studentColumns = `id, quiz_id, name, email, external_id, created_at`

// StudentRepository handles roster data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row, s *model.Student) error {
	return row.Scan(&s.ID, &s.QuizID, &s.Name, &s.Email, &s.ExternalID, &s.CreatedAt)
}

// ListByQuiz retrieves the roster in insertion order.
func (r *StudentRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE quiz_id = $1 ORDER BY created_at, external_id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetByID retrieves one roster entry.
func (r *StudentRepository) GetByID(ctx context.Context, quizID, id uuid.UUID) (*model.Student, error) {
	s := &model.Student{}
	if err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1 AND quiz_id = $2`, id, quizID), s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByEmail retrieves a roster entry by its (lowercased) email.
func (r *StudentRepository) GetByEmail(ctx context.Context, quizID uuid.UUID, email string) (*model.Student, error) {
	s := &model.Student{}
	if err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE quiz_id = $1 AND email = $2`, quizID, email), s); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateMany inserts the batch in one transaction. Any unique collision
// rolls the whole batch back with ErrDuplicate.
func (r *StudentRepository) CreateMany(ctx context.Context, students []model.Student) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range students {
			s := &students[i]
			batch.Queue(
				`INSERT INTO students (quiz_id, name, email, external_id)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id, created_at`,
				s.QuizID, s.Name, s.Email, s.ExternalID,
			).QueryRow(func(row pgx.Row) error {
				return row.Scan(&s.ID, &s.CreatedAt)
			})
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert students: %w", err)
		}
		return nil
	})
	return mapUnique(err)
}

// Update writes name, email and external ID.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students SET name = $3, email = $4, external_id = $5 WHERE id = $1 AND quiz_id = $2`,
		s.ID, s.QuizID, s.Name, s.Email, s.ExternalID)
	if err != nil {
		return mapUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a roster entry; its invitation cascades.
func (r *StudentRepository) Delete(ctx context.Context, quizID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1 AND quiz_id = $2`, id, quizID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAll clears the roster.
func (r *StudentRepository) DeleteAll(ctx context.Context, quizID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE quiz_id = $1`, quizID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Search matches names case-insensitively. The query is treated as a
// literal substring.
func (r *StudentRepository) Search(ctx context.Context, quizID uuid.UUID, query string, limit int) ([]model.StudentSearchResult, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := r.pool.Query(ctx,
		`SELECT name, email FROM students
		 WHERE quiz_id = $1 AND name ILIKE $2 ESCAPE '\'
		 ORDER BY name
		 LIMIT $3`, quizID, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StudentSearchResult
	for rows.Next() {
		var s model.StudentSearchResult
		if err := rows.Scan(&s.Name, &s.Email); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
