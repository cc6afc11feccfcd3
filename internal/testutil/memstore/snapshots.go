package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omarrislam/Quiz-App/internal/model"
)

// Snapshots implements service.SnapshotStore.
type Snapshots struct{ db *DB }

func (s *Snapshots) InsertPhase(_ context.Context, snap *model.Snapshot) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, cur := range s.db.snapshots {
		if cur.AttemptID == snap.AttemptID && cur.Phase == snap.Phase {
			return false, nil
		}
	}
	snap.ID = uuid.New()
	s.db.snapshots = append(s.db.snapshots, *snap)
	return true, nil
}

var phaseRank = map[model.SnapshotPhase]int{
	model.SnapshotPhaseStart:  0,
	model.SnapshotPhaseMiddle: 1,
	model.SnapshotPhaseEnd:    2,
}

func (s *Snapshots) ListByAttempt(_ context.Context, attemptID uuid.UUID) ([]model.Snapshot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Snapshot
	for _, p := range s.db.snapshots {
		if p.AttemptID == attemptID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return phaseRank[out[i].Phase] < phaseRank[out[j].Phase] })
	return out, nil
}

func (s *Snapshots) touchLocked(attemptID uuid.UUID, at time.Time) *model.SecondCamSession {
	sess, ok := s.db.sessions[attemptID]
	if !ok {
		sess = model.SecondCamSession{AttemptID: attemptID, ConnectedAt: at}
	}
	sess.LastSeenAt = at
	s.db.sessions[attemptID] = sess
	return &sess
}

func (s *Snapshots) TouchSession(_ context.Context, attemptID uuid.UUID, at time.Time) (*model.SecondCamSession, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.touchLocked(attemptID, at), nil
}

func (s *Snapshots) RecordHeartbeat(_ context.Context, snap *model.SecondCamSnapshot) (*model.SecondCamSession, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	snap.ID = uuid.New()
	s.db.secondCam = append(s.db.secondCam, *snap)
	return s.touchLocked(snap.AttemptID, snap.CreatedAt), nil
}

func (s *Snapshots) GetSession(_ context.Context, attemptID uuid.UUID) (*model.SecondCamSession, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess, ok := s.db.sessions[attemptID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sess, nil
}

func (s *Snapshots) ListSecondCam(_ context.Context, attemptID uuid.UUID) ([]model.SecondCamSnapshot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.SecondCamSnapshot
	for _, p := range s.db.secondCam {
		if p.AttemptID == attemptID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Snapshots) Purge(_ context.Context, snapshotsBefore, sessionsBefore time.Time) (model.PurgeStats, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var st model.PurgeStats
	s.db.snapshots = filter(s.db.snapshots, func(p model.Snapshot) bool {
		if p.CreatedAt.Before(snapshotsBefore) {
			st.Snapshots++
			return false
		}
		return true
	})
	s.db.secondCam = filter(s.db.secondCam, func(p model.SecondCamSnapshot) bool {
		if p.CreatedAt.Before(snapshotsBefore) {
			st.SecondCamSnapshots++
			return false
		}
		return true
	})
	for id, sess := range s.db.sessions {
		if sess.LastSeenAt.Before(sessionsBefore) {
			delete(s.db.sessions, id)
			st.Sessions++
		}
	}
	return st, nil
}
