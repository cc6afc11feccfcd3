package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omarrislam/Quiz-App/internal/importer"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/rs/zerolog"
)

var optionColumns = []string{"optiona", "optionb", "optionc", "optiond"}

// QuestionService manages a quiz's question set.
type QuestionService struct {
	questions QuestionStore
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// List returns questions in display order, answers included.
func (s *QuestionService) List(ctx context.Context, quiz *model.Quiz) ([]model.Question, error) {
	qs, err := s.questions.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return nonNil(qs), nil
}

// Import replaces the question set with the uploaded rows. Columns:
// Question, OptionA..OptionD and CorrectLetter (defaults to A).
func (s *QuestionService) Import(ctx context.Context, quiz *model.Quiz, rows []importer.Row) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, ErrInvalidInput.WithMessage("The file has no question rows.")
	}

	var ierr ImportError
	qs := make([]model.Question, 0, len(rows))
	for i, row := range rows {
		q, msg := parseQuestionRow(row)
		if msg != "" {
			ierr.add(i+2, "%s", msg)
			continue
		}
		q.QuizID = quiz.ID
		q.Order = len(qs) + 1
		qs = append(qs, q)
	}
	if err := ierr.orNil(); err != nil {
		return nil, err
	}

	if err := s.questions.Replace(ctx, quiz.ID, qs); err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}
	s.log.Info().Str("quiz_id", quiz.ID.String()).Int("count", len(qs)).Msg("Questions imported")
	return &ImportResult{Imported: len(qs)}, nil
}

func parseQuestionRow(row importer.Row) (model.Question, string) {
	text := row.Get("question", "text")
	if text == "" {
		return model.Question{}, "question text is required"
	}

	letter := strings.ToUpper(strings.TrimSpace(row.Get("correctletter", "correct", "answer")))
	if letter == "" {
		letter = "A"
	}
	if len(letter) != 1 || letter[0] < 'A' || int(letter[0]-'A') >= len(optionColumns) {
		return model.Question{}, fmt.Sprintf("correct letter %q must be one of A-D", letter)
	}
	want := int(letter[0] - 'A')

	var opts []string
	correct := -1
	for col, name := range optionColumns {
		v := row.Get(name)
		if v == "" {
			continue
		}
		if col == want {
			correct = len(opts)
		}
		opts = append(opts, v)
	}
	if len(opts) < 2 {
		return model.Question{}, "at least two options are required"
	}
	if correct < 0 {
		return model.Question{}, fmt.Sprintf("option %s is empty", letter)
	}
	return model.Question{Text: text, Options: opts, CorrectIndex: correct}, ""
}

// Update edits one question. Edits apply to attempts finished afterwards.
func (s *QuestionService) Update(ctx context.Context, quiz *model.Quiz, id uuid.UUID, req model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, quiz.ID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	if req.Text != nil {
		q.Text = strings.TrimSpace(*req.Text)
	}
	if req.Options != nil {
		q.Options = req.Options
	}
	if req.CorrectIndex != nil {
		q.CorrectIndex = *req.CorrectIndex
	}
	if req.Order != nil {
		q.Order = *req.Order
	}
	if len(q.Options) < 2 {
		return nil, ErrInvalidInput.WithMessage("at least two options are required")
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return nil, ErrInvalidInput.WithMessage("correct_index is out of range")
	}

	if err := s.questions.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// Delete removes one question.
func (s *QuestionService) Delete(ctx context.Context, quiz *model.Quiz, id uuid.UUID) error {
	ok, err := s.questions.Delete(ctx, quiz.ID, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if !ok {
		return ErrQuestionNotFound
	}
	return nil
}

// DeleteAll clears the question set.
func (s *QuestionService) DeleteAll(ctx context.Context, quiz *model.Quiz) (int64, error) {
	n, err := s.questions.DeleteAll(ctx, quiz.ID)
	if err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	return n, nil
}
