package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omarrislam/Quiz-App/internal/importer"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/repository"
	"github.com/rs/zerolog"
)

const (
	externalIDPrefix  = "SID-"
	studentSearchMax  = 20
	studentSearchMinQ = 1
)

// StudentService manages a quiz's roster.
type StudentService struct {
	students StudentStore
	validate *govalidator.Validate
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students StudentStore, log zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		validate: govalidator.New(),
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// List returns the roster in import order.
func (s *StudentService) List(ctx context.Context, quiz *model.Quiz) ([]model.Student, error) {
	list, err := s.students.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return nonNil(list), nil
}

// Import appends the uploaded rows to the roster. Columns: Name, Email and
// an optional StudentId. The upload is rejected as a whole when any row is
// invalid or duplicates an existing email or ID.
func (s *StudentService) Import(ctx context.Context, quiz *model.Quiz, rows []importer.Row) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, ErrInvalidInput.WithMessage("The file has no student rows.")
	}

	existing, err := s.students.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	emails := make(map[string]struct{}, len(existing)+len(rows))
	ids := make(map[string]struct{}, len(existing)+len(rows))
	for _, st := range existing {
		emails[strings.ToLower(st.Email)] = struct{}{}
		ids[strings.ToUpper(st.ExternalID)] = struct{}{}
	}

	var (
		ierr    ImportError
		pending []model.Student
		missing []int
	)
	for i, row := range rows {
		line := i + 2
		name := row.Get("name", "fullname", "studentname")
		email := normalizeEmail(row.Get("email", "emailaddress"))
		ext := strings.TrimSpace(row.Get("studentid", "id", "externalid"))

		if name == "" {
			ierr.add(line, "name is required")
		}
		if err := s.validate.Var(email, "required,email"); err != nil {
			ierr.add(line, "invalid email %q", email)
			continue
		}
		if _, dup := emails[email]; dup {
			ierr.add(line, "duplicate email %s", email)
			continue
		}
		emails[email] = struct{}{}

		if ext != "" {
			key := strings.ToUpper(ext)
			if _, dup := ids[key]; dup {
				ierr.add(line, "duplicate student id %s", ext)
				continue
			}
			ids[key] = struct{}{}
		} else {
			missing = append(missing, len(pending))
		}

		pending = append(pending, model.Student{
			QuizID:     quiz.ID,
			Name:       name,
			Email:      email,
			ExternalID: ext,
		})
	}
	if err := ierr.orNil(); err != nil {
		return nil, err
	}

	next := nextExternalSeq(ids)
	for _, idx := range missing {
		var id string
		for {
			id = formatExternalID(next)
			next++
			if _, taken := ids[id]; !taken {
				break
			}
		}
		ids[id] = struct{}{}
		pending[idx].ExternalID = id
	}

	if err := s.students.CreateMany(ctx, pending); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicate.WithMessage("A student with this email or ID already exists.")
		}
		return nil, fmt.Errorf("create students: %w", err)
	}

	s.log.Info().Str("quiz_id", quiz.ID.String()).Int("count", len(pending)).Msg("Students imported")
	return &ImportResult{Imported: len(pending)}, nil
}

// nextExternalSeq returns one past the highest SID-n already in use.
func nextExternalSeq(taken map[string]struct{}) int {
	highest := 0
	for id := range taken {
		if !strings.HasPrefix(id, externalIDPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, externalIDPrefix))
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

func formatExternalID(n int) string {
	return fmt.Sprintf("%s%04d", externalIDPrefix, n)
}

// Update edits one roster entry.
func (s *StudentService) Update(ctx context.Context, quiz *model.Quiz, id uuid.UUID, req model.UpdateStudentRequest) (*model.Student, error) {
	st, err := s.students.GetByID(ctx, quiz.ID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	if req.Name != nil {
		st.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		st.Email = normalizeEmail(*req.Email)
	}
	if req.ExternalID != nil {
		st.ExternalID = strings.TrimSpace(*req.ExternalID)
	}
	if err := s.students.Update(ctx, st); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicate.WithMessage("A student with this email or ID already exists.")
		}
		return nil, fmt.Errorf("update student: %w", err)
	}
	return st, nil
}

// Delete removes one roster entry and its invitation.
func (s *StudentService) Delete(ctx context.Context, quiz *model.Quiz, id uuid.UUID) error {
	ok, err := s.students.Delete(ctx, quiz.ID, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if !ok {
		return ErrStudentNotFound
	}
	return nil
}

// DeleteAll clears the roster.
func (s *StudentService) DeleteAll(ctx context.Context, quiz *model.Quiz) (int64, error) {
	n, err := s.students.DeleteAll(ctx, quiz.ID)
	if err != nil {
		return 0, fmt.Errorf("delete students: %w", err)
	}
	return n, nil
}

// Search is the public name autocomplete on the landing page.
func (s *StudentService) Search(ctx context.Context, quizID uuid.UUID, query string) ([]model.StudentSearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < studentSearchMinQ {
		return []model.StudentSearchResult{}, nil
	}
	res, err := s.students.Search(ctx, quizID, query, studentSearchMax)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return nonNil(res), nil
}
