package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omarrislam/Quiz-App/internal/model"
)

// InvitationRepository handles OTP slot data access.
type InvitationRepository struct {
	pool *pgxpool.Pool
}

// NewInvitationRepository creates a new InvitationRepository.
func NewInvitationRepository(pool *pgxpool.Pool) *InvitationRepository {
	return &InvitationRepository{pool: pool}
}

// Upsert writes a fresh code into the (quiz, student) slot.
func (r *InvitationRepository) Upsert(ctx context.Context, inv *model.Invitation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO invitations (quiz_id, student_id, otp_hash, otp_expires_at, sent_at, attempts, max_attempts, verified_at)
		 VALUES ($1, $2, $3, $4, $5, 0, $6, NULL)
		 ON CONFLICT (quiz_id, student_id) DO UPDATE SET
		     otp_hash = EXCLUDED.otp_hash,
		     otp_expires_at = EXCLUDED.otp_expires_at,
		     sent_at = EXCLUDED.sent_at,
		     attempts = 0,
		     max_attempts = EXCLUDED.max_attempts,
		     verified_at = NULL,
		     updated_at = now()
		 RETURNING id, attempts`,
		inv.QuizID, inv.StudentID, inv.OTPHash, inv.OTPExpiresAt, inv.SentAt, inv.MaxAttempts,
	).Scan(&inv.ID, &inv.Attempts)
}

// GetByStudent retrieves the slot for one student.
func (r *InvitationRepository) GetByStudent(ctx context.Context, quizID, studentID uuid.UUID) (*model.Invitation, error) {
	inv := &model.Invitation{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, student_id, otp_hash, otp_expires_at, sent_at, attempts, max_attempts, verified_at
		 FROM invitations WHERE quiz_id = $1 AND student_id = $2`, quizID, studentID,
	).Scan(&inv.ID, &inv.QuizID, &inv.StudentID, &inv.OTPHash, &inv.OTPExpiresAt, &inv.SentAt,
		&inv.Attempts, &inv.MaxAttempts, &inv.VerifiedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// IncrementAttempts records one failed guess.
func (r *InvitationRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`UPDATE invitations SET attempts = attempts + 1, updated_at = now() WHERE id = $1 RETURNING attempts`, id,
	).Scan(&n)
	return n, err
}

// Consume marks the slot verified. The guard repeats every check the
// service made so two concurrent verifications cannot both win.
func (r *InvitationRepository) Consume(ctx context.Context, id uuid.UUID, otpHash string, at time.Time) (bool, error) {
	var got uuid.UUID
	err := r.pool.QueryRow(ctx,
		`UPDATE invitations SET verified_at = $3, attempts = 0, updated_at = now()
		 WHERE id = $1
		   AND otp_hash = $2
		   AND verified_at IS NULL
		   AND attempts < max_attempts
		   AND otp_expires_at > $3
		 RETURNING id`, id, otpHash, at,
	).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountByQuiz returns how many students have been sent a code.
func (r *InvitationRepository) CountByQuiz(ctx context.Context, quizID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invitations WHERE quiz_id = $1`, quizID).Scan(&n)
	return n, err
}
