package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxOTPAttempts is the guess ceiling stored on a fresh invitation.
const DefaultMaxOTPAttempts = 5

// Invitation is the single OTP slot for one (quiz, student) pair.
type Invitation struct {
	ID           uuid.UUID  `json:"id"`
	QuizID       uuid.UUID  `json:"quiz_id"`
	StudentID    uuid.UUID  `json:"student_id"`
	OTPHash      string     `json:"-"`
	OTPExpiresAt time.Time  `json:"otp_expires_at"`
	SentAt       *time.Time `json:"sent_at"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	VerifiedAt   *time.Time `json:"verified_at"`
}

// Exhausted reports whether the guess counter has reached the ceiling.
func (i *Invitation) Exhausted() bool {
	return i.Attempts >= i.MaxAttempts
}

// VerifyOTPRequest starts an attempt.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
	Name  string `json:"name" binding:"omitempty,max=255"`
}

// ResendOTPRequest asks for a fresh code.
type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendInvitationsResult summarises a bulk send.
type SendInvitationsResult struct {
	Queued int      `json:"queued"`
	Failed []string `json:"failed,omitempty"`
}

// MailJob is a queued OTP delivery.
type MailJob struct {
	ID       string    `json:"id"`
	QuizID   uuid.UUID `json:"quiz_id"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Text     string    `json:"text"`
	HTML     string    `json:"html,omitempty"`
	Type     AuditType `json:"type"`
	QueuedAt time.Time `json:"queued_at"`
	Attempts int       `json:"attempts"`
}
