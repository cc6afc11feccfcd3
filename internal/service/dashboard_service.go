package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/omarrislam/Quiz-App/internal/export"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/rs/zerolog"
)

const defaultTimelineLimit = 200

// DashboardService builds the read-only projections an instructor watches.
type DashboardService struct {
	quizzes     QuizStore
	attempts    AttemptStore
	invitations InvitationStore
	audit       AuditStore
	log         zerolog.Logger
	now         func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(quizzes QuizStore, attempts AttemptStore, invitations InvitationStore, audit AuditStore, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		quizzes:     quizzes,
		attempts:    attempts,
		invitations: invitations,
		audit:       audit,
		log:         log.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

// Metrics returns counts, average score and remaining time. Reading the
// dashboard closes a published quiz whose end time has passed.
func (s *DashboardService) Metrics(ctx context.Context, quiz *model.Quiz) (*model.DashboardMetrics, error) {
	now := s.now()
	if ShouldAutoClose(quiz, now) {
		if _, err := s.quizzes.CloseIfExpired(ctx, quiz.ID, now); err != nil {
			return nil, fmt.Errorf("close expired quiz: %w", err)
		}
		quiz.Status = model.QuizStatusClosed
	}

	stats, err := s.audit.AttemptStats(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("attempt stats: %w", err)
	}
	invited, err := s.invitations.CountByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("count invitations: %w", err)
	}

	return &model.DashboardMetrics{
		QuizID:           quiz.ID,
		Status:           quiz.Status,
		TotalAttempts:    stats.Total,
		ActiveAttempts:   stats.Active,
		CompletedCount:   stats.Completed,
		AverageScore:     stats.AverageCorrect,
		LastSubmissionAt: stats.LastSubmissionAt,
		EndAt:            quiz.EndAt,
		RemainingSeconds: RemainingSeconds(quiz, now),
		InvitedCount:     invited,
	}, nil
}

// Timeline merges audit entries and suspicious events, newest first.
func (s *DashboardService) Timeline(ctx context.Context, quiz *model.Quiz, q model.AuditQuery) ([]model.TimelineEntry, error) {
	if q.Limit <= 0 {
		q.Limit = defaultTimelineLimit
	}

	logs, err := s.audit.ListByQuiz(ctx, quiz.ID, q)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	events, err := s.audit.ListEventsByQuiz(ctx, quiz.ID, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]model.TimelineEntry, 0, len(logs)+len(events))
	for _, l := range logs {
		var meta json.RawMessage
		if len(l.Meta) > 0 {
			meta, _ = json.Marshal(l.Meta)
		}
		email, _ := l.Meta["email"].(string)
		out = append(out, model.TimelineEntry{
			Source:       model.TimelineAudit,
			Type:         string(l.Type),
			Message:      l.Message,
			StudentEmail: email,
			Meta:         meta,
			CreatedAt:    l.CreatedAt,
		})
	}
	for _, e := range events {
		id := e.AttemptID
		entry := model.TimelineEntry{
			Source:       model.TimelineEvent,
			Type:         string(e.Type),
			AttemptID:    &id,
			StudentEmail: e.StudentEmail,
			Meta:         e.Extra,
			CreatedAt:    e.CreatedAt,
		}
		if e.Message != nil {
			entry.Message = *e.Message
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Export writes every attempt on the quiz in the requested format.
func (s *DashboardService) Export(ctx context.Context, quiz *model.Quiz, w io.Writer, f export.Format) error {
	list, err := s.attempts.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return fmt.Errorf("list attempts: %w", err)
	}
	if err := export.Write(w, f, list); err != nil {
		return fmt.Errorf("render export: %w", err)
	}
	return nil
}
