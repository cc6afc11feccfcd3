package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omarrislam/Quiz-App/internal/model"
)

// SnapshotRepository handles webcam capture and second-camera session data access.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// InsertPhase stores a phase capture unless the slot is already taken.
func (r *SnapshotRepository) InsertPhase(ctx context.Context, s *model.Snapshot) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempt_snapshots (attempt_id, phase, mime, data, width, height, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (attempt_id, phase) DO NOTHING
		 RETURNING id`,
		s.AttemptID, s.Phase, s.Mime, s.Data, s.Width, s.Height, s.CreatedAt,
	).Scan(&s.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByAttempt retrieves phase captures in start, middle, end order.
func (r *SnapshotRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, phase, mime, data, width, height, created_at
		 FROM attempt_snapshots WHERE attempt_id = $1
		 ORDER BY CASE phase WHEN 'start' THEN 0 WHEN 'middle' THEN 1 ELSE 2 END`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var s model.Snapshot
		if err := rows.Scan(&s.ID, &s.AttemptID, &s.Phase, &s.Mime, &s.Data, &s.Width, &s.Height, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const touchSessionSQL = `INSERT INTO second_cam_sessions (attempt_id, connected_at, last_seen_at)
	VALUES ($1, $2, $2)
	ON CONFLICT (attempt_id) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at
	RETURNING attempt_id, connected_at, last_seen_at`

// TouchSession registers or refreshes the companion device.
func (r *SnapshotRepository) TouchSession(ctx context.Context, attemptID uuid.UUID, at time.Time) (*model.SecondCamSession, error) {
	sess := &model.SecondCamSession{}
	if err := r.pool.QueryRow(ctx, touchSessionSQL, attemptID, at).
		Scan(&sess.AttemptID, &sess.ConnectedAt, &sess.LastSeenAt); err != nil {
		return nil, err
	}
	return sess, nil
}

// RecordHeartbeat stores a companion capture and refreshes the session in
// one transaction.
func (r *SnapshotRepository) RecordHeartbeat(ctx context.Context, s *model.SecondCamSnapshot) (*model.SecondCamSession, error) {
	sess := &model.SecondCamSession{}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO second_cam_snapshots (attempt_id, mime, data, width, height, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			s.AttemptID, s.Mime, s.Data, s.Width, s.Height, s.CreatedAt,
		).Scan(&s.ID); err != nil {
			return fmt.Errorf("insert capture: %w", err)
		}
		return tx.QueryRow(ctx, touchSessionSQL, s.AttemptID, s.CreatedAt).
			Scan(&sess.AttemptID, &sess.ConnectedAt, &sess.LastSeenAt)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession retrieves the companion session for an attempt.
func (r *SnapshotRepository) GetSession(ctx context.Context, attemptID uuid.UUID) (*model.SecondCamSession, error) {
	sess := &model.SecondCamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT attempt_id, connected_at, last_seen_at FROM second_cam_sessions WHERE attempt_id = $1`, attemptID,
	).Scan(&sess.AttemptID, &sess.ConnectedAt, &sess.LastSeenAt)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ListSecondCam retrieves companion captures in arrival order.
func (r *SnapshotRepository) ListSecondCam(ctx context.Context, attemptID uuid.UUID) ([]model.SecondCamSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, mime, data, width, height, created_at
		 FROM second_cam_snapshots WHERE attempt_id = $1 ORDER BY created_at`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SecondCamSnapshot
	for rows.Next() {
		var s model.SecondCamSnapshot
		if err := rows.Scan(&s.ID, &s.AttemptID, &s.Mime, &s.Data, &s.Width, &s.Height, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Purge applies the retention policy.
func (r *SnapshotRepository) Purge(ctx context.Context, snapshotsBefore, sessionsBefore time.Time) (model.PurgeStats, error) {
	var stats model.PurgeStats
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM attempt_snapshots WHERE created_at < $1`, snapshotsBefore)
		if err != nil {
			return fmt.Errorf("purge snapshots: %w", err)
		}
		stats.Snapshots = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM second_cam_snapshots WHERE created_at < $1`, snapshotsBefore)
		if err != nil {
			return fmt.Errorf("purge second camera snapshots: %w", err)
		}
		stats.SecondCamSnapshots = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM second_cam_sessions WHERE last_seen_at < $1`, sessionsBefore)
		if err != nil {
			return fmt.Errorf("purge sessions: %w", err)
		}
		stats.Sessions = tag.RowsAffected()
		return nil
	})
	return stats, err
}
