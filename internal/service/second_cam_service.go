package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/rs/zerolog"
)

// SecondCamStaleAfter is how long a session stays connected without a heartbeat.
const SecondCamStaleAfter = 20 * time.Second

// SecondCamTokenVerifier checks the attempt-scoped companion credential.
type SecondCamTokenVerifier interface {
	VerifySecondCamToken(token string, attemptID uuid.UUID) error
}

// SecondCamService tracks the companion device attached to an attempt.
type SecondCamService struct {
	quizzes   QuizStore
	attempts  AttemptStore
	snapshots SnapshotStore
	tokens    SecondCamTokenVerifier
	maxImage  int
	log       zerolog.Logger
	now       func() time.Time
}

// NewSecondCamService creates a new SecondCamService.
func NewSecondCamService(
	quizzes QuizStore,
	attempts AttemptStore,
	snapshots SnapshotStore,
	tokens SecondCamTokenVerifier,
	maxImageBytes int64,
	log zerolog.Logger,
) *SecondCamService {
	return &SecondCamService{
		quizzes:   quizzes,
		attempts:  attempts,
		snapshots: snapshots,
		tokens:    tokens,
		maxImage:  int(maxImageBytes),
		log:       log.With().Str("component", "second_cam_service").Logger(),
		now:       time.Now,
	}
}

// authorize loads the attempt and enforces: attempt running, feature on,
// token scoped to this attempt.
func (s *SecondCamService) authorize(ctx context.Context, attemptID uuid.UUID, token string) (*model.Attempt, error) {
	a, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if a.Status != model.AttemptStatusInProgress {
		return nil, ErrAttemptNotActive
	}
	quiz, err := getQuiz(ctx, s.quizzes, a.QuizID)
	if err != nil {
		return nil, err
	}
	if !quiz.Settings.EnableSecondCam {
		return nil, ErrSecondCamOff
	}
	if err := s.tokens.VerifySecondCamToken(token, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

// Connect registers (or refreshes) the companion session.
func (s *SecondCamService) Connect(ctx context.Context, attemptID uuid.UUID, token string) (*model.SecondCamSession, error) {
	a, err := s.authorize(ctx, attemptID, token)
	if err != nil {
		return nil, err
	}
	sess, err := s.snapshots.TouchSession(ctx, a.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	s.log.Debug().Str("attempt_id", a.ID.String()).Msg("Second camera connected")
	return sess, nil
}

// Heartbeat stores a companion capture and refreshes liveness. Every call
// creates a new capture row.
func (s *SecondCamService) Heartbeat(ctx context.Context, attemptID uuid.UUID, req model.SecondCamHeartbeatRequest) (*model.SecondCamSession, error) {
	a, err := s.authorize(ctx, attemptID, req.Token)
	if err != nil {
		return nil, err
	}
	mime, data, err := validateImage(req.Mime, req.Data, s.maxImage)
	if err != nil {
		s.log.Warn().Str("attempt_id", a.ID.String()).Str("reason", "invalid_data").Msg("Second camera capture rejected")
		return nil, err
	}

	sess, err := s.snapshots.RecordHeartbeat(ctx, &model.SecondCamSnapshot{
		AttemptID: a.ID,
		Mime:      mime,
		Data:      data,
		Width:     req.Width.OrDefault(model.DefaultSnapshotWidth),
		Height:    req.Height.OrDefault(model.DefaultSnapshotHeight),
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("record heartbeat: %w", err)
	}
	return sess, nil
}

// Status derives connectivity from the last heartbeat. When the feature is
// off it reports disconnected without reading the session.
func (s *SecondCamService) Status(ctx context.Context, attemptID uuid.UUID) (*model.SecondCamStatus, error) {
	a, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	quiz, err := getQuiz(ctx, s.quizzes, a.QuizID)
	if err != nil {
		return nil, err
	}
	if !quiz.Settings.EnableSecondCam {
		return &model.SecondCamStatus{Enabled: false, Connected: false}, nil
	}

	sess, err := s.snapshots.GetSession(ctx, a.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.SecondCamStatus{Enabled: true}, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	last := sess.LastSeenAt
	return &model.SecondCamStatus{
		Enabled:    true,
		Connected:  IsConnected(sess, s.now()),
		LastSeenAt: &last,
	}, nil
}

// IsConnected reports whether sess heartbeated within the staleness window.
func IsConnected(sess *model.SecondCamSession, now time.Time) bool {
	return sess != nil && now.Sub(sess.LastSeenAt) < SecondCamStaleAfter
}
