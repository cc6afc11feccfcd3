package model

import (
	"time"

	"github.com/google/uuid"
)

// QuizStatus enumerates the possible states of a quiz.
type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
	QuizStatusClosed    QuizStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s QuizStatus) Valid() bool {
	switch s {
	case QuizStatusDraft, QuizStatusPublished, QuizStatusClosed:
		return true
	}
	return false
}

// QuizSettings is the proctoring and timing bundle stored alongside a quiz.
type QuizSettings struct {
	QuestionTimeSeconds     int  `json:"question_time_seconds"`
	TotalTimeSeconds        *int `json:"total_time_seconds"`
	ShuffleQuestions        bool `json:"shuffle_questions"`
	ShuffleOptions          bool `json:"shuffle_options"`
	RequireFullscreen       bool `json:"require_fullscreen"`
	LogSuspiciousActivity   bool `json:"log_suspicious_activity"`
	EnableWebcamSnapshots   bool `json:"enable_webcam_snapshots"`
	EnableFaceCentering     bool `json:"enable_face_centering"`
	EnableSecondCam         bool `json:"enable_second_cam"`
	AllowMultipleAttempts   bool `json:"allow_multiple_attempts"`
	ShowScoreToStudent      bool `json:"show_score_to_student"`
	MobileAllowed           bool `json:"mobile_allowed"`
	RequireStudentListMatch bool `json:"require_student_list_match"`
}

// DefaultQuizSettings returns the settings a freshly created quiz starts with.
func DefaultQuizSettings() QuizSettings {
	return QuizSettings{
		QuestionTimeSeconds:   35,
		ShuffleQuestions:      true,
		ShuffleOptions:        true,
		LogSuspiciousActivity: true,
		MobileAllowed:         true,
	}
}

// SnapshotsEnabled reports whether phase snapshots are accepted.
func (s QuizSettings) SnapshotsEnabled() bool {
	return s.EnableWebcamSnapshots || s.EnableFaceCentering
}

// DesktopCameraRequired reports whether a check mobile devices cannot run is on.
func (s QuizSettings) DesktopCameraRequired() bool {
	return s.EnableFaceCentering || s.EnableSecondCam
}

// Quiz represents a quiz entity.
type Quiz struct {
	ID           uuid.UUID    `json:"id"`
	InstructorID uuid.UUID    `json:"instructor_id"`
	Title        string       `json:"title"`
	Code         *string      `json:"code,omitempty"`
	Status       QuizStatus   `json:"status"`
	StartAt      *time.Time   `json:"start_at"`
	EndAt        *time.Time   `json:"end_at"`
	Settings     QuizSettings `json:"settings"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// QuizSettingsInput carries optional overrides; nil fields keep the current value.
type QuizSettingsInput struct {
	QuestionTimeSeconds     *int  `json:"question_time_seconds" binding:"omitempty,min=5,max=3600"`
	TotalTimeSeconds        *int  `json:"total_time_seconds" binding:"omitempty,min=0,max=86400"`
	ShuffleQuestions        *bool `json:"shuffle_questions"`
	ShuffleOptions          *bool `json:"shuffle_options"`
	RequireFullscreen       *bool `json:"require_fullscreen"`
	LogSuspiciousActivity   *bool `json:"log_suspicious_activity"`
	EnableWebcamSnapshots   *bool `json:"enable_webcam_snapshots"`
	EnableFaceCentering     *bool `json:"enable_face_centering"`
	EnableSecondCam         *bool `json:"enable_second_cam"`
	AllowMultipleAttempts   *bool `json:"allow_multiple_attempts"`
	ShowScoreToStudent      *bool `json:"show_score_to_student"`
	MobileAllowed           *bool `json:"mobile_allowed"`
	RequireStudentListMatch *bool `json:"require_student_list_match"`
}

// CreateQuizRequest is the payload for creating a new quiz.
type CreateQuizRequest struct {
	Title    string             `json:"title" binding:"required,notblank,max=255"`
	Code     *string            `json:"code" binding:"omitempty,alphanum,min=4,max=32"`
	StartAt  *time.Time         `json:"start_at"`
	EndAt    *time.Time         `json:"end_at"`
	Settings *QuizSettingsInput `json:"settings"`
}

// UpdateQuizRequest is the payload for updating an existing quiz.
type UpdateQuizRequest struct {
	Title        *string            `json:"title" binding:"omitempty,notblank,max=255"`
	Code         *string            `json:"code" binding:"omitempty,alphanum,min=4,max=32"`
	StartAt      *time.Time         `json:"start_at"`
	EndAt        *time.Time         `json:"end_at"`
	ClearStartAt bool               `json:"clear_start_at"`
	ClearEndAt   bool               `json:"clear_end_at"`
	Settings     *QuizSettingsInput `json:"settings"`
}

// UpdateQuizStatusRequest moves a quiz between draft, published and closed.
type UpdateQuizStatusRequest struct {
	Status QuizStatus `json:"status" binding:"required,oneof=draft published closed"`
}

// ExtendQuizRequest pushes the end of the quiz window out.
type ExtendQuizRequest struct {
	Minutes int `json:"minutes" binding:"required,min=1,max=10080"`
}

// PublicQuizInfo is what an invitee sees before entering the OTP.
type PublicQuizInfo struct {
	ID                  uuid.UUID  `json:"id"`
	Title               string     `json:"title"`
	Status              QuizStatus `json:"status"`
	StartAt             *time.Time `json:"start_at"`
	EndAt               *time.Time `json:"end_at"`
	QuestionTimeSeconds int        `json:"question_time_seconds"`
	TotalTimeSeconds    *int       `json:"total_time_seconds"`
	RequireFullscreen   bool       `json:"require_fullscreen"`
	EnableWebcam        bool       `json:"enable_webcam_snapshots"`
	EnableFaceCentering bool       `json:"enable_face_centering"`
	EnableSecondCam     bool       `json:"enable_second_cam"`
	MobileAllowed       bool       `json:"mobile_allowed"`
}
