package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/omarrislam/Quiz-App/internal/config"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/otp"
	"github.com/rs/zerolog"
)

// MailConfigChecker reports whether outbound mail can be attempted at all.
type MailConfigChecker interface {
	Check() error
}

// InvitationService issues, re-issues and verifies OTP invitations.
type InvitationService struct {
	quizzes     QuizStore
	students    StudentStore
	invitations InvitationStore
	audit       AuditStore
	queue       MailQueue
	limiter     Limiter
	mail        MailConfigChecker
	baseURL     string
	log         zerolog.Logger
	now         func() time.Time
	generate    func() (string, error)
}

// NewInvitationService creates a new InvitationService.
func NewInvitationService(
	quizzes QuizStore,
	students StudentStore,
	invitations InvitationStore,
	audit AuditStore,
	queue MailQueue,
	limiter Limiter,
	mail MailConfigChecker,
	baseURL string,
	log zerolog.Logger,
) *InvitationService {
	return &InvitationService{
		quizzes:     quizzes,
		students:    students,
		invitations: invitations,
		audit:       audit,
		queue:       queue,
		limiter:     limiter,
		mail:        mail,
		baseURL:     baseURL,
		log:         log.With().Str("component", "invitation_service").Logger(),
		now:         time.Now,
		generate:    otp.Generate,
	}
}

// SendAll issues a fresh OTP to every student on the roster.
func (s *InvitationService) SendAll(ctx context.Context, quiz *model.Quiz) (*model.SendInvitationsResult, error) {
	if err := s.checkMail(); err != nil {
		return nil, err
	}
	students, err := s.students.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	res := &model.SendInvitationsResult{}
	for i := range students {
		if err := s.issue(ctx, quiz, &students[i], model.AuditOTPSent); err != nil {
			s.log.Error().Err(err).Str("quiz_id", quiz.ID.String()).Str("email", students[i].Email).Msg("Failed to issue invitation")
			res.Failed = append(res.Failed, students[i].Email)
			continue
		}
		res.Queued++
	}
	return res, nil
}

// SendOne issues a fresh OTP to a single roster entry.
func (s *InvitationService) SendOne(ctx context.Context, quiz *model.Quiz, studentID uuid.UUID) error {
	if err := s.checkMail(); err != nil {
		return err
	}
	st, err := s.students.GetByID(ctx, quiz.ID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("get student: %w", err)
	}
	return s.issue(ctx, quiz, st, model.AuditOTPSent)
}

// Resend re-issues the OTP for a roster entry, throttled per (quiz, email).
func (s *InvitationService) Resend(ctx context.Context, quiz *model.Quiz, studentID uuid.UUID) error {
	st, err := s.students.GetByID(ctx, quiz.ID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("get student: %w", err)
	}
	return s.resend(ctx, quiz, st)
}

// ResendByEmail is the student-facing resend from the landing page.
func (s *InvitationService) ResendByEmail(ctx context.Context, quizID uuid.UUID, email string) error {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("get quiz: %w", err)
	}
	if err := checkStatus(quiz); err != nil {
		return err
	}
	st, err := s.students.GetByEmail(ctx, quiz.ID, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("get student: %w", err)
	}
	return s.resend(ctx, quiz, st)
}

func (s *InvitationService) resend(ctx context.Context, quiz *model.Quiz, st *model.Student) error {
	ok, err := s.limiter.Allow(ctx, config.CacheKey.OTPResendKey(quiz.ID.String(), st.Email))
	if err != nil {
		return fmt.Errorf("resend limiter: %w", err)
	}
	if !ok {
		return ErrResendLimited
	}
	if err := s.checkMail(); err != nil {
		return err
	}
	return s.issue(ctx, quiz, st, model.AuditOTPResend)
}

// issue replaces the invitation slot with a fresh code and queues delivery.
func (s *InvitationService) issue(ctx context.Context, quiz *model.Quiz, st *model.Student, kind model.AuditType) error {
	code, err := s.generate()
	if err != nil {
		return err
	}

	now := s.now()
	inv := &model.Invitation{
		QuizID:       quiz.ID,
		StudentID:    st.ID,
		OTPHash:      otp.Hash(code),
		OTPExpiresAt: otp.ExpiresAt(now),
		SentAt:       &now,
		MaxAttempts:  model.DefaultMaxOTPAttempts,
	}
	if err := s.invitations.Upsert(ctx, inv); err != nil {
		return fmt.Errorf("upsert invitation: %w", err)
	}

	link := inviteLink(s.baseURL, quiz.ID, st.Email, st.Name)
	job := &model.MailJob{
		ID:       uuid.NewString(),
		QuizID:   quiz.ID,
		To:       st.Email,
		Subject:  otpMailSubject,
		Text:     otpMailText(st.Name, link, code),
		HTML:     otpMailHTML(st.Name, link, code),
		Type:     kind,
		QueuedAt: now,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}

	msg := "OTP sent to " + st.Email
	if kind == model.AuditOTPResend {
		msg = "OTP resent to " + st.Email
	}
	entry := model.NewAuditLog(quiz.ID, kind, msg, map[string]any{
		"email":      st.Email,
		"student_id": st.ID.String(),
	}, now)
	if err := s.audit.Append(ctx, entry); err != nil {
		// Delivery is already queued; a missing audit row is not worth failing the send.
		s.log.Warn().Err(err).Str("quiz_id", quiz.ID.String()).Msg("Failed to write audit entry")
	}
	return nil
}

func (s *InvitationService) checkMail() error {
	if s.mail == nil {
		return nil
	}
	if err := s.mail.Check(); err != nil {
		s.log.Error().Err(err).Msg("Mail is not configured")
		return ErrMailNotConfigured
	}
	return nil
}

// verifiedInvite is a candidate code that matched and may be consumed.
type verifiedInvite struct {
	student    *model.Student
	invitation *model.Invitation
	hash       string
}

// check runs the OTP gate without consuming the code. A wrong guess is
// counted and persisted before the failure is returned.
func (s *InvitationService) check(ctx context.Context, quiz *model.Quiz, email, candidate string, now time.Time) (*verifiedInvite, error) {
	st, err := s.students.GetByEmail(ctx, quiz.ID, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	inv, err := s.invitations.GetByStudent(ctx, quiz.ID, st.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	if err := checkWindow(quiz, now); err != nil {
		return nil, err
	}

	if inv.VerifiedAt != nil {
		return nil, ErrOTPUsed
	}
	if !now.Before(inv.OTPExpiresAt) {
		return nil, ErrOTPExpired
	}
	if inv.Exhausted() {
		return nil, ErrOTPAttemptsExceeded
	}
	if !otp.Matches(inv.OTPHash, candidate) {
		n, err := s.invitations.IncrementAttempts(ctx, inv.ID)
		if err != nil {
			return nil, fmt.Errorf("count otp attempt: %w", err)
		}
		s.log.Warn().Str("quiz_id", quiz.ID.String()).Str("email", email).Int("attempts", n).Msg("Invalid OTP")
		return nil, ErrOTPInvalid
	}
	return &verifiedInvite{student: st, invitation: inv, hash: inv.OTPHash}, nil
}

// consume marks the code used. Only one concurrent caller can win.
func (s *InvitationService) consume(ctx context.Context, v *verifiedInvite, now time.Time) error {
	ok, err := s.invitations.Consume(ctx, v.invitation.ID, v.hash, now)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if !ok {
		return ErrOTPUsed
	}
	return nil
}
