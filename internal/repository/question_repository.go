package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omarrislam/Quiz-App/internal/model"
)

const questionColumns = `id, quiz_id, text, options, correct_index, display_order, created_at`

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row pgx.Row, q *model.Question) error {
	return row.Scan(&q.ID, &q.QuizID, &q.Text, &q.Options, &q.CorrectIndex, &q.Order, &q.CreatedAt)
}

// ListByQuiz retrieves all questions for a quiz in display order.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE quiz_id = $1 ORDER BY display_order, created_at`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID retrieves one question of a quiz.
func (r *QuestionRepository) GetByID(ctx context.Context, quizID, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1 AND quiz_id = $2`, id, quizID), q)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Replace deletes the quiz's questions and inserts qs in a single transaction.
func (r *QuestionRepository) Replace(ctx context.Context, quizID uuid.UUID, qs []model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range qs {
			q := &qs[i]
			batch.Queue(
				`INSERT INTO questions (quiz_id, text, options, correct_index, display_order)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING id, created_at`,
				quizID, q.Text, q.Options, q.CorrectIndex, q.Order,
			).QueryRow(func(row pgx.Row) error {
				q.QuizID = quizID
				return row.Scan(&q.ID, &q.CreatedAt)
			})
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// Update writes text, options, answer and order.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET text = $3, options = $4, correct_index = $5, display_order = $6
		 WHERE id = $1 AND quiz_id = $2`,
		q.ID, q.QuizID, q.Text, q.Options, q.CorrectIndex, q.Order)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes one question.
func (r *QuestionRepository) Delete(ctx context.Context, quizID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1 AND quiz_id = $2`, id, quizID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAll removes every question of a quiz.
func (r *QuestionRepository) DeleteAll(ctx context.Context, quizID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
