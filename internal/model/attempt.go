package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the closed set of attempt lifecycle states.
type AttemptStatus string

const (
	AttemptStatusInProgress    AttemptStatus = "in_progress"
	AttemptStatusCompleted     AttemptStatus = "completed"
	AttemptStatusForciblyEnded AttemptStatus = "forcibly_ended"
	AttemptStatusExpired       AttemptStatus = "expired"
)

// Valid reports whether s is a known status.
func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptStatusInProgress, AttemptStatusCompleted, AttemptStatusForciblyEnded, AttemptStatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s AttemptStatus) Terminal() bool {
	switch s {
	case AttemptStatusCompleted, AttemptStatusForciblyEnded, AttemptStatusExpired:
		return true
	case AttemptStatusInProgress:
		return false
	}
	return false
}

// AnswerDetail is the per-question outcome written at finish.
type AnswerDetail struct {
	QuestionID    uuid.UUID `json:"question_id"`
	SelectedIndex *int      `json:"selected_index"`
	IsCorrect     bool      `json:"is_correct"`
}

// Score is the tally stored on an attempt.
type Score struct {
	CorrectCount   int            `json:"correct_count"`
	TotalQuestions int            `json:"total_questions"`
	Details        []AnswerDetail `json:"details"`
}

// AttemptFlags carries proctoring counters.
type AttemptFlags struct {
	SuspiciousEventsCount int     `json:"suspicious_events_count"`
	ForcedEndReason       *string `json:"forced_end_reason,omitempty"`
}

// Attempt is one student's run through a quiz.
type Attempt struct {
	ID           uuid.UUID     `json:"id"`
	QuizID       uuid.UUID     `json:"quiz_id"`
	StudentID    *uuid.UUID    `json:"student_id,omitempty"`
	StudentName  string        `json:"student_name"`
	StudentEmail string        `json:"student_email"`
	Status       AttemptStatus `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	SubmittedAt  *time.Time    `json:"submitted_at"`
	Score        Score         `json:"score"`
	Flags        AttemptFlags  `json:"flags"`
}

// SubmittedAnswer is one entry of a finish payload. SelectedIndex is the
// canonical (unshuffled) option index, or null when unanswered.
type SubmittedAnswer struct {
	QuestionID    uuid.UUID `json:"question_id" binding:"required"`
	SelectedIndex *int      `json:"selected_index" binding:"omitempty,min=0"`
}

// FinishAttemptRequest is the payload for self-submission.
type FinishAttemptRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"omitempty,dive"`
}

// TerminateAttemptRequest is the payload for a forced end.
type TerminateAttemptRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// StartedAttempt is returned from OTP verification.
type StartedAttempt struct {
	AttemptID      uuid.UUID            `json:"attempt_id"`
	Title          string               `json:"title"`
	Settings       AttemptSettings      `json:"settings"`
	SecondCamToken string               `json:"second_cam_token,omitempty"`
	Questions      []QuestionForStudent `json:"questions"`
	Resumed        bool                 `json:"resumed"`
}

// AttemptSettings is the subset of quiz settings the exam client needs.
type AttemptSettings struct {
	QuestionTimeSeconds   int        `json:"question_time_seconds"`
	TotalTimeSeconds      *int       `json:"total_time_seconds"`
	EndAt                 *time.Time `json:"end_at"`
	RequireFullscreen     bool       `json:"require_fullscreen"`
	LogSuspiciousActivity bool       `json:"log_suspicious_activity"`
	EnableWebcamSnapshots bool       `json:"enable_webcam_snapshots"`
	EnableFaceCentering   bool       `json:"enable_face_centering"`
	EnableSecondCam       bool       `json:"enable_second_cam"`
	ShowScoreToStudent    bool       `json:"show_score_to_student"`
	MobileAllowed         bool       `json:"mobile_allowed"`
}

// AttemptStatusView is what the exam client polls.
type AttemptStatusView struct {
	AttemptID   uuid.UUID     `json:"attempt_id"`
	Status      AttemptStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	SubmittedAt *time.Time    `json:"submitted_at"`
	Score       *ScoreSummary `json:"score,omitempty"`
}

// ScoreSummary is the score without per-question detail.
type ScoreSummary struct {
	CorrectCount   int `json:"correct_count"`
	TotalQuestions int `json:"total_questions"`
}

// FinishResult is returned from a successful finish.
type FinishResult struct {
	Status         AttemptStatus `json:"status"`
	CorrectCount   *int          `json:"correct_count,omitempty"`
	TotalQuestions *int          `json:"total_questions,omitempty"`
}

// AttemptDetail is the instructor review projection.
type AttemptDetail struct {
	Attempt            Attempt             `json:"attempt"`
	Answers            []ReviewedAnswer    `json:"answers"`
	Snapshots          []Snapshot          `json:"snapshots"`
	SecondCamSnapshots []SecondCamSnapshot `json:"second_cam_snapshots"`
	Events             []Event             `json:"events"`
}

// ReviewedAnswer joins an answer detail with the live question.
type ReviewedAnswer struct {
	AnswerDetail
	Text         string   `json:"text,omitempty"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex int      `json:"correct_index"`
}
