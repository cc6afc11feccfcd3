package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/scoring"
	"github.com/rs/zerolog"
)

// SecondCamTokenIssuer signs the attempt-scoped companion credential.
type SecondCamTokenIssuer interface {
	IssueSecondCamToken(attemptID uuid.UUID) (string, error)
}

// AttemptService owns the attempt lifecycle: OTP-gated start, suspicious
// event accounting, snapshot admission, finish and forced termination.
type AttemptService struct {
	quizzes     QuizStore
	questions   QuestionStore
	attempts    AttemptStore
	snapshots   SnapshotStore
	invitations *InvitationService
	tokens      SecondCamTokenIssuer
	maxImage    int
	log         zerolog.Logger
	now         func() time.Time
	shuffle     shuffleFunc
}

// NewAttemptService creates a new AttemptService. maxImageBytes bounds the
// base64 payload of a single capture; 0 disables the check.
func NewAttemptService(
	quizzes QuizStore,
	questions QuestionStore,
	attempts AttemptStore,
	snapshots SnapshotStore,
	invitations *InvitationService,
	tokens SecondCamTokenIssuer,
	maxImageBytes int64,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		quizzes:     quizzes,
		questions:   questions,
		attempts:    attempts,
		snapshots:   snapshots,
		invitations: invitations,
		tokens:      tokens,
		maxImage:    int(maxImageBytes),
		log:         log.With().Str("component", "attempt_service").Logger(),
		now:         time.Now,
	}
}

// Start verifies the OTP and opens (or resumes) the invitee's attempt.
// Check order: quiz status, invitation, window, OTP, roster match,
// single-attempt policy, question set, then the code is consumed.
func (s *AttemptService) Start(ctx context.Context, quizID uuid.UUID, req model.VerifyOTPRequest) (*model.StartedAttempt, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := checkStatus(quiz); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	v, err := s.invitations.check(ctx, quiz, email, strings.TrimSpace(req.OTP), now)
	if err != nil {
		return nil, err
	}

	if quiz.Settings.RequireStudentListMatch && v.student == nil {
		return nil, ErrStudentRequired
	}

	active, err := s.attempts.FindActive(ctx, quiz.ID, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find active attempt: %w", err)
	}

	if active == nil && !quiz.Settings.AllowMultipleAttempts {
		done, err := s.attempts.HasCompleted(ctx, quiz.ID, email)
		if err != nil {
			return nil, fmt.Errorf("check completed attempt: %w", err)
		}
		if done {
			return nil, ErrAlreadyCompleted
		}
	}

	qs, err := s.questions.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(qs) == 0 {
		return nil, ErrNoQuestions
	}

	if err := s.invitations.consume(ctx, v, now); err != nil {
		return nil, err
	}

	attempt, resumed, err := s.openAttempt(ctx, quiz, v.student, email, req.Name, active, now)
	if err != nil {
		return nil, err
	}

	out := &model.StartedAttempt{
		AttemptID: attempt.ID,
		Title:     quiz.Title,
		Settings:  attemptSettings(quiz),
		Questions: presentQuestions(qs, quiz.Settings, s.shuffle),
		Resumed:   resumed,
	}
	if quiz.Settings.EnableSecondCam {
		tok, err := s.tokens.IssueSecondCamToken(attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("issue second cam token: %w", err)
		}
		out.SecondCamToken = tok
	}

	s.log.Info().
		Str("quiz_id", quiz.ID.String()).
		Str("attempt_id", attempt.ID.String()).
		Str("email", email).
		Bool("resumed", resumed).
		Msg("Attempt started")
	return out, nil
}

// openAttempt returns the running attempt for the invitee, creating it if
// none exists. A concurrent start that wins the insert is resumed.
func (s *AttemptService) openAttempt(
	ctx context.Context,
	quiz *model.Quiz,
	st *model.Student,
	email, name string,
	active *model.Attempt,
	now time.Time,
) (*model.Attempt, bool, error) {
	if active != nil {
		return active, true, nil
	}

	a := &model.Attempt{
		QuizID:       quiz.ID,
		StudentEmail: email,
		StudentName:  strings.TrimSpace(name),
		Status:       model.AttemptStatusInProgress,
		StartedAt:    now,
		Score:        model.Score{Details: []model.AnswerDetail{}},
	}
	if st != nil {
		a.StudentID = &st.ID
		a.StudentName = st.Name
	}
	if a.StudentName == "" {
		a.StudentName = email
	}

	created, err := s.attempts.Create(ctx, a)
	if err != nil {
		return nil, false, fmt.Errorf("create attempt: %w", err)
	}
	if created {
		return a, false, nil
	}

	existing, err := s.attempts.FindActive(ctx, quiz.ID, email)
	if err != nil {
		return nil, false, fmt.Errorf("find active attempt: %w", err)
	}
	return existing, true, nil
}

// Status returns the attempt's current state for client polling.
func (s *AttemptService) Status(ctx context.Context, attemptID uuid.UUID) (*model.AttemptStatusView, error) {
	a, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	view := &model.AttemptStatusView{
		AttemptID:   a.ID,
		Status:      a.Status,
		StartedAt:   a.StartedAt,
		SubmittedAt: a.SubmittedAt,
	}
	if a.Status == model.AttemptStatusCompleted {
		quiz, err := s.getQuiz(ctx, a.QuizID)
		if err != nil {
			return nil, err
		}
		if quiz.Settings.ShowScoreToStudent {
			view.Score = &model.ScoreSummary{CorrectCount: a.Score.CorrectCount, TotalQuestions: a.Score.TotalQuestions}
		}
	}
	return view, nil
}

// RecordEvent appends a suspicious-activity entry and bumps the tally by
// one. It is a silent no-op once the attempt has left in_progress, or when
// the quiz does not log suspicious activity.
func (s *AttemptService) RecordEvent(ctx context.Context, attemptID uuid.UUID, req model.RecordEventRequest) (bool, error) {
	a, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return false, err
	}
	if a.Status != model.AttemptStatusInProgress {
		return false, nil
	}
	quiz, err := s.getQuiz(ctx, a.QuizID)
	if err != nil {
		return false, err
	}
	if !quiz.Settings.LogSuspiciousActivity {
		return false, nil
	}

	ev := &model.Event{
		AttemptID: a.ID,
		Type:      model.EventType(strings.TrimSpace(string(req.Type))),
		Message:   req.Message,
		Extra:     req.Extra,
		CreatedAt: s.now(),
	}
	ok, err := s.attempts.AppendEvent(ctx, ev)
	if err != nil {
		return false, fmt.Errorf("append event: %w", err)
	}
	return ok, nil
}

// SubmitSnapshot admits one phase capture. A repeat for a phase already
// stored succeeds without writing. Captures are accepted after the attempt
// ends so the end-phase image may trail the submission.
func (s *AttemptService) SubmitSnapshot(ctx context.Context, attemptID uuid.UUID, req model.SubmitSnapshotRequest) (*model.SnapshotResult, error) {
	a, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.getQuiz(ctx, a.QuizID)
	if err != nil {
		return nil, err
	}

	logger := s.log.With().Str("attempt_id", a.ID.String()).Logger()
	if !quiz.Settings.SnapshotsEnabled() {
		logger.Warn().Str("reason", "disabled").Msg("Snapshot rejected")
		return nil, ErrSnapshotsOff
	}
	if !req.Phase.Valid() {
		logger.Warn().Str("reason", "invalid_phase").Str("phase", string(req.Phase)).Msg("Snapshot rejected")
		return nil, ErrInvalidPhase
	}
	mime, data, err := validateImage(req.Mime, req.Data, s.maxImage)
	if err != nil {
		logger.Warn().Str("reason", "invalid_data").Msg("Snapshot rejected")
		return nil, err
	}

	snap := &model.Snapshot{
		AttemptID: a.ID,
		Phase:     req.Phase,
		Mime:      mime,
		Data:      data,
		Width:     req.Width.OrDefault(model.DefaultSnapshotWidth),
		Height:    req.Height.OrDefault(model.DefaultSnapshotHeight),
		CreatedAt: s.now(),
	}
	created, err := s.snapshots.InsertPhase(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	if !created {
		return &model.SnapshotResult{Status: model.SnapshotExists}, nil
	}
	return &model.SnapshotResult{Status: model.SnapshotSaved}, nil
}

// Finish scores the submission against the live question set and moves the
// attempt to completed. Only the first finish can win; later ones get
// ErrAttemptAlreadyEnded.
func (s *AttemptService) Finish(ctx context.Context, attemptID uuid.UUID, answers []model.SubmittedAnswer) (*model.FinishResult, error) {
	a, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AttemptStatusInProgress {
		return nil, ErrAttemptAlreadyEnded
	}

	qs, err := s.questions.ListByQuiz(ctx, a.QuizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	score := scoring.Score(qs, answers)

	ok, err := s.attempts.Finish(ctx, a.ID, score, s.now())
	if err != nil {
		return nil, fmt.Errorf("finish attempt: %w", err)
	}
	if !ok {
		return nil, ErrAttemptAlreadyEnded
	}

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Int("correct", score.CorrectCount).
		Int("total", score.TotalQuestions).
		Msg("Attempt finished")

	res := &model.FinishResult{Status: model.AttemptStatusCompleted}
	quiz, err := s.getQuiz(ctx, a.QuizID)
	if err == nil && quiz.Settings.ShowScoreToStudent {
		res.CorrectCount = &score.CorrectCount
		res.TotalQuestions = &score.TotalQuestions
	}
	return res, nil
}

// Terminate force-ends an attempt regardless of its current status. Each
// call writes one attempt_ended audit entry.
func (s *AttemptService) Terminate(ctx context.Context, quiz *model.Quiz, attemptID uuid.UUID, reason string) (*model.Attempt, error) {
	a, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.QuizID != quiz.ID {
		return nil, ErrAttemptNotFound
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Ended by instructor"
	}

	ended, err := s.attempts.Terminate(ctx, a.ID, reason, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("terminate attempt: %w", err)
	}
	s.log.Info().Str("attempt_id", a.ID.String()).Str("reason", reason).Msg("Attempt forcibly ended")
	return ended, nil
}

// Delete removes an attempt with its events, captures and session.
func (s *AttemptService) Delete(ctx context.Context, quiz *model.Quiz, attemptID uuid.UUID) error {
	ok, err := s.attempts.Delete(ctx, quiz.ID, attemptID, s.now())
	if err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	if !ok {
		return ErrAttemptNotFound
	}
	return nil
}

// List returns every attempt on a quiz, newest first.
func (s *AttemptService) List(ctx context.Context, quiz *model.Quiz) ([]model.Attempt, error) {
	list, err := s.attempts.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return list, nil
}

// Detail joins an attempt's answers with the live questions and attaches
// its captures and events.
func (s *AttemptService) Detail(ctx context.Context, quiz *model.Quiz, attemptID uuid.UUID) (*model.AttemptDetail, error) {
	a, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.QuizID != quiz.ID {
		return nil, ErrAttemptNotFound
	}

	qs, err := s.questions.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byID := make(map[uuid.UUID]model.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}

	answers := make([]model.ReviewedAnswer, 0, len(a.Score.Details))
	for _, d := range a.Score.Details {
		ra := model.ReviewedAnswer{AnswerDetail: d, CorrectIndex: -1}
		if q, ok := byID[d.QuestionID]; ok {
			ra.Text = q.Text
			ra.Options = q.Options
			ra.CorrectIndex = q.CorrectIndex
		}
		answers = append(answers, ra)
	}

	snaps, err := s.snapshots.ListByAttempt(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	second, err := s.snapshots.ListSecondCam(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list second cam snapshots: %w", err)
	}
	events, err := s.attempts.ListEvents(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return &model.AttemptDetail{
		Attempt:            *a,
		Answers:            answers,
		Snapshots:          nonNil(snaps),
		SecondCamSnapshots: nonNil(second),
		Events:             nonNil(events),
	}, nil
}

func (s *AttemptService) getAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a, err := s.attempts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

func (s *AttemptService) getQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return getQuiz(ctx, s.quizzes, id)
}

func getQuiz(ctx context.Context, store QuizStore, id uuid.UUID) (*model.Quiz, error) {
	q, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

func attemptSettings(q *model.Quiz) model.AttemptSettings {
	st := q.Settings
	return model.AttemptSettings{
		QuestionTimeSeconds:   st.QuestionTimeSeconds,
		TotalTimeSeconds:      st.TotalTimeSeconds,
		EndAt:                 q.EndAt,
		RequireFullscreen:     st.RequireFullscreen,
		LogSuspiciousActivity: st.LogSuspiciousActivity,
		EnableWebcamSnapshots: st.EnableWebcamSnapshots,
		EnableFaceCentering:   st.EnableFaceCentering,
		EnableSecondCam:       st.EnableSecondCam,
		ShowScoreToStudent:    st.ShowScoreToStudent,
		MobileAllowed:         st.MobileAllowed,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
