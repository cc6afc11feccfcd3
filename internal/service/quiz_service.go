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
	"github.com/omarrislam/Quiz-App/internal/repository"
	"github.com/rs/zerolog"
)

// QuizService handles quiz CRUD and the window/status rules.
type QuizService struct {
	quizzes   QuizStore
	questions QuestionStore
	log       zerolog.Logger
	now       func() time.Time
	shuffle   shuffleFunc
}

// NewQuizService creates a new QuizService.
func NewQuizService(quizzes QuizStore, questions QuestionStore, log zerolog.Logger) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		questions: questions,
		log:       log.With().Str("component", "quiz_service").Logger(),
		now:       time.Now,
	}
}

// AssertOwnership returns the quiz if instructorID owns it, else ErrQuizNotFound.
func (s *QuizService) AssertOwnership(ctx context.Context, instructorID, quizID uuid.UUID) (*model.Quiz, error) {
	q, err := s.quizzes.GetOwned(ctx, quizID, instructorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

// Create inserts a draft quiz with default settings merged with req.
func (s *QuizService) Create(ctx context.Context, instructorID uuid.UUID, req model.CreateQuizRequest) (*model.Quiz, error) {
	settings, err := mergeSettings(model.DefaultQuizSettings(), req.Settings)
	if err != nil {
		return nil, err
	}
	if req.StartAt != nil && req.EndAt != nil && !req.EndAt.After(*req.StartAt) {
		return nil, ErrInvalidInput.WithMessage("end_at must be after start_at")
	}

	q := &model.Quiz{
		InstructorID: instructorID,
		Title:        strings.TrimSpace(req.Title),
		Code:         normalizeCode(req.Code),
		Status:       model.QuizStatusDraft,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		Settings:     settings,
	}
	if err := s.quizzes.Create(ctx, q); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicate.WithMessage("Quiz code already in use.")
		}
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	s.log.Info().Str("quiz_id", q.ID.String()).Msg("Quiz created")
	return q, nil
}

// Get returns an owned quiz, closing it first if its window has lapsed.
func (s *QuizService) Get(ctx context.Context, instructorID, quizID uuid.UUID) (*model.Quiz, error) {
	q, err := s.AssertOwnership(ctx, instructorID, quizID)
	if err != nil {
		return nil, err
	}
	return s.refreshStatus(ctx, q)
}

// List returns the instructor's quizzes. Published quizzes whose end time
// has passed are closed as a side effect of the read.
func (s *QuizService) List(ctx context.Context, instructorID uuid.UUID) ([]model.Quiz, error) {
	closed, err := s.quizzes.CloseExpired(ctx, instructorID, s.now())
	if err != nil {
		return nil, fmt.Errorf("close expired quizzes: %w", err)
	}
	if len(closed) > 0 {
		s.log.Info().Int("count", len(closed)).Msg("Auto-closed expired quizzes")
	}

	quizzes, err := s.quizzes.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// refreshStatus applies the lazy auto-close to a single quiz.
func (s *QuizService) refreshStatus(ctx context.Context, q *model.Quiz) (*model.Quiz, error) {
	now := s.now()
	if !ShouldAutoClose(q, now) {
		return q, nil
	}
	if _, err := s.quizzes.CloseIfExpired(ctx, q.ID, now); err != nil {
		return nil, fmt.Errorf("close expired quiz: %w", err)
	}
	q.Status = model.QuizStatusClosed
	return q, nil
}

// Update edits title, code, window and settings.
func (s *QuizService) Update(ctx context.Context, instructorID, quizID uuid.UUID, req model.UpdateQuizRequest) (*model.Quiz, error) {
	q, err := s.AssertOwnership(ctx, instructorID, quizID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		q.Title = strings.TrimSpace(*req.Title)
	}
	if req.Code != nil {
		q.Code = normalizeCode(req.Code)
	}
	if req.ClearStartAt {
		q.StartAt = nil
	} else if req.StartAt != nil {
		q.StartAt = req.StartAt
	}

	now := s.now()
	if req.ClearEndAt {
		q.EndAt = nil
	} else if req.EndAt != nil {
		q.EndAt = req.EndAt
		if q.Status == model.QuizStatusClosed && req.EndAt.After(now) {
			q.Status = model.QuizStatusPublished
		}
	}
	if q.StartAt != nil && q.EndAt != nil && !q.EndAt.After(*q.StartAt) {
		return nil, ErrInvalidInput.WithMessage("end_at must be after start_at")
	}

	settings, err := mergeSettings(q.Settings, req.Settings)
	if err != nil {
		return nil, err
	}
	q.Settings = settings

	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// SetStatus moves a quiz to the requested status.
func (s *QuizService) SetStatus(ctx context.Context, instructorID, quizID uuid.UUID, status model.QuizStatus) (*model.Quiz, error) {
	if !status.Valid() {
		return nil, ErrInvalidInput.WithMessage("unknown quiz status")
	}
	q, err := s.AssertOwnership(ctx, instructorID, quizID)
	if err != nil {
		return nil, err
	}
	q.Status = status
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	s.log.Info().Str("quiz_id", q.ID.String()).Str("status", string(status)).Msg("Quiz status changed")
	return q, nil
}

// Extend pushes the end time out by minutes from the current end (or now).
func (s *QuizService) Extend(ctx context.Context, instructorID, quizID uuid.UUID, minutes int) (*model.Quiz, error) {
	if minutes <= 0 {
		return nil, ErrInvalidInput.WithMessage("minutes must be positive")
	}
	q, err := s.AssertOwnership(ctx, instructorID, quizID)
	if err != nil {
		return nil, err
	}
	end, status := ExtendEnd(q, time.Duration(minutes)*time.Minute, s.now())
	q.EndAt = &end
	q.Status = status
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Terminate closes the quiz and force-ends every running attempt.
func (s *QuizService) Terminate(ctx context.Context, instructorID, quizID uuid.UUID) (int, error) {
	if _, err := s.AssertOwnership(ctx, instructorID, quizID); err != nil {
		return 0, err
	}
	n, err := s.quizzes.CloseAndEndAttempts(ctx, quizID, "Quiz closed by instructor", s.now())
	if err != nil {
		return 0, fmt.Errorf("terminate quiz: %w", err)
	}
	s.log.Info().Str("quiz_id", quizID.String()).Int("ended_attempts", n).Msg("Quiz terminated")
	return n, nil
}

// Delete removes a quiz and everything hanging off it.
func (s *QuizService) Delete(ctx context.Context, instructorID, quizID uuid.UUID) error {
	ok, err := s.quizzes.Delete(ctx, quizID, instructorID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if !ok {
		return ErrQuizNotFound
	}
	return nil
}

// Preview returns the question set the way a student would receive it.
func (s *QuizService) Preview(ctx context.Context, instructorID, quizID uuid.UUID) ([]model.QuestionForStudent, error) {
	q, err := s.AssertOwnership(ctx, instructorID, quizID)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions.ListByQuiz(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return presentQuestions(qs, q.Settings, s.shuffle), nil
}

// PublicInfo resolves a quiz by ID or code for the invite landing page.
func (s *QuizService) PublicInfo(ctx context.Context, idOrCode string) (*model.PublicQuizInfo, error) {
	q, err := s.resolve(ctx, idOrCode)
	if err != nil {
		return nil, err
	}
	if q, err = s.refreshStatus(ctx, q); err != nil {
		return nil, err
	}
	return &model.PublicQuizInfo{
		ID:                  q.ID,
		Title:               q.Title,
		Status:              q.Status,
		StartAt:             q.StartAt,
		EndAt:               q.EndAt,
		QuestionTimeSeconds: q.Settings.QuestionTimeSeconds,
		TotalTimeSeconds:    q.Settings.TotalTimeSeconds,
		RequireFullscreen:   q.Settings.RequireFullscreen,
		EnableWebcam:        q.Settings.EnableWebcamSnapshots,
		EnableFaceCentering: q.Settings.EnableFaceCentering,
		EnableSecondCam:     q.Settings.EnableSecondCam,
		MobileAllowed:       q.Settings.MobileAllowed,
	}, nil
}

func (s *QuizService) resolve(ctx context.Context, idOrCode string) (*model.Quiz, error) {
	var (
		q   *model.Quiz
		err error
	)
	if id, perr := uuid.Parse(idOrCode); perr == nil {
		q, err = s.quizzes.GetByID(ctx, id)
	} else {
		q, err = s.quizzes.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(idOrCode)))
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

func (s *QuizService) save(ctx context.Context, q *model.Quiz) error {
	q.UpdatedAt = s.now()
	if err := s.quizzes.Update(ctx, q); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuizNotFound
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrDuplicate.WithMessage("Quiz code already in use.")
		}
		return fmt.Errorf("update quiz: %w", err)
	}
	return nil
}

// mergeSettings overlays in onto base and enforces that mobile devices are
// never allowed alongside a desktop-only camera check. When a camera check
// is on and mobile_allowed was not sent, mobile is switched off.
func mergeSettings(base model.QuizSettings, in *model.QuizSettingsInput) (model.QuizSettings, error) {
	s := base
	var mobileExplicit *bool
	if in != nil {
		setInt(&s.QuestionTimeSeconds, in.QuestionTimeSeconds)
		if in.TotalTimeSeconds != nil {
			if *in.TotalTimeSeconds == 0 {
				s.TotalTimeSeconds = nil
			} else {
				v := *in.TotalTimeSeconds
				s.TotalTimeSeconds = &v
			}
		}
		setBool(&s.ShuffleQuestions, in.ShuffleQuestions)
		setBool(&s.ShuffleOptions, in.ShuffleOptions)
		setBool(&s.RequireFullscreen, in.RequireFullscreen)
		setBool(&s.LogSuspiciousActivity, in.LogSuspiciousActivity)
		setBool(&s.EnableWebcamSnapshots, in.EnableWebcamSnapshots)
		setBool(&s.EnableFaceCentering, in.EnableFaceCentering)
		setBool(&s.EnableSecondCam, in.EnableSecondCam)
		setBool(&s.AllowMultipleAttempts, in.AllowMultipleAttempts)
		setBool(&s.ShowScoreToStudent, in.ShowScoreToStudent)
		setBool(&s.MobileAllowed, in.MobileAllowed)
		setBool(&s.RequireStudentListMatch, in.RequireStudentListMatch)
		mobileExplicit = in.MobileAllowed
	}

	if s.DesktopCameraRequired() && s.MobileAllowed {
		if mobileExplicit != nil && *mobileExplicit {
			return base, ErrMobileConflict
		}
		s.MobileAllowed = false
	}
	return s, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func normalizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	c := strings.ToUpper(strings.TrimSpace(*code))
	if c == "" {
		return nil
	}
	return &c
}
