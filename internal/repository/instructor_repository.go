package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omarrislam/Quiz-App/internal/model"
)

// InstructorRepository handles instructor data access.
type InstructorRepository struct {
	pool *pgxpool.Pool
}

// NewInstructorRepository creates a new InstructorRepository.
func NewInstructorRepository(pool *pgxpool.Pool) *InstructorRepository {
	return &InstructorRepository{pool: pool}
}

// Create inserts an instructor and fills its ID and timestamp.
func (r *InstructorRepository) Create(ctx context.Context, in *model.Instructor) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO instructors (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		in.Name, in.Email, in.PasswordHash,
	).Scan(&in.ID, &in.CreatedAt)
	return mapUnique(err)
}

// GetByEmail retrieves an instructor by login email.
func (r *InstructorRepository) GetByEmail(ctx context.Context, email string) (*model.Instructor, error) {
	in := &model.Instructor{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at FROM instructors WHERE email = $1`, email,
	).Scan(&in.ID, &in.Name, &in.Email, &in.PasswordHash, &in.CreatedAt)
	if err != nil {
		return nil, err
	}
	return in, nil
}

// GetByID retrieves an instructor by ID.
func (r *InstructorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Instructor, error) {
	in := &model.Instructor{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at FROM instructors WHERE id = $1`, id,
	).Scan(&in.ID, &in.Name, &in.Email, &in.PasswordHash, &in.CreatedAt)
	if err != nil {
		return nil, err
	}
	return in, nil
}
