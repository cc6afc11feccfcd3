package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrQuizNotFound     ErrCode = "QUIZ_NOT_FOUND"
	ErrAttemptNotFound  ErrCode = "ATTEMPT_NOT_FOUND"
	ErrStudentNotFound  ErrCode = "STUDENT_NOT_FOUND"
	ErrQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"
	ErrInviteNotFound   ErrCode = "INVITATION_NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"

	// ─── Quiz window ───────────────────────────────────────────────────
	ErrQuizClosed       ErrCode = "QUIZ_CLOSED"
	ErrQuizNotPublished ErrCode = "QUIZ_NOT_PUBLISHED"
	ErrQuizNotStarted   ErrCode = "QUIZ_NOT_STARTED"
	ErrQuizEnded        ErrCode = "QUIZ_ENDED"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"
	ErrMobileConflict   ErrCode = "MOBILE_CAMERA_CONFLICT"

	// ─── OTP ───────────────────────────────────────────────────────────
	ErrOTPInvalid          ErrCode = "OTP_INVALID"
	ErrOTPExpired          ErrCode = "OTP_EXPIRED"
	ErrOTPAttemptsExceeded ErrCode = "OTP_ATTEMPTS_EXCEEDED"
	ErrOTPUsed             ErrCode = "OTP_ALREADY_USED"
	ErrStudentRequired     ErrCode = "STUDENT_REQUIRED"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrAlreadyCompleted    ErrCode = "ALREADY_COMPLETED"
	ErrAttemptAlreadyEnded ErrCode = "ATTEMPT_ALREADY_ENDED"
	ErrAttemptNotActive    ErrCode = "ATTEMPT_NOT_ACTIVE"
	ErrSnapshotsDisabled   ErrCode = "SNAPSHOTS_DISABLED"
	ErrInvalidPhase        ErrCode = "INVALID_PHASE"
	ErrInvalidImage        ErrCode = "INVALID_IMAGE_DATA"
	ErrSecondCamDisabled   ErrCode = "SECOND_CAM_DISABLED"

	// ─── Import / export ───────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"
	ErrImportRows      ErrCode = "IMPORT_ROWS_INVALID"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrResendLimited     ErrCode = "OTP_RESEND_LIMITED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal   ErrCode = "INTERNAL_ERROR"
	ErrMailConfig ErrCode = "MAIL_NOT_CONFIGURED"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrQuizNotFound:
		return "Quiz not found."
	case ErrAttemptNotFound:
		return "Attempt not found."
	case ErrStudentNotFound:
		return "Student not found."
	case ErrQuestionNotFound:
		return "Question not found."
	case ErrInviteNotFound:
		return "Invitation not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Quiz window ───────────────────────────────────────────────────
	case ErrQuizClosed:
		return "Quiz is closed."
	case ErrQuizNotPublished:
		return "Quiz is not published."
	case ErrQuizNotStarted:
		return "Quiz has not started yet."
	case ErrQuizEnded:
		return "Quiz has ended."
	case ErrNoQuestions:
		return "No questions uploaded."
	case ErrMobileConflict:
		return "Mobile devices cannot be allowed when face centering or second camera is required."

	// ─── OTP ───────────────────────────────────────────────────────────
	case ErrOTPInvalid:
		return "Invalid OTP."
	case ErrOTPExpired:
		return "OTP expired."
	case ErrOTPAttemptsExceeded:
		return "OTP attempts exceeded."
	case ErrOTPUsed:
		return "OTP already used. Request a new code."
	case ErrStudentRequired:
		return "Student not found in the list for this quiz."

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	case ErrAlreadyCompleted:
		return "You have already completed this quiz."
	case ErrAttemptAlreadyEnded:
		return "Attempt already ended."
	case ErrAttemptNotActive:
		return "Attempt is not active."
	case ErrSnapshotsDisabled:
		return "Snapshots are disabled for this quiz."
	case ErrInvalidPhase:
		return "Invalid snapshot phase."
	case ErrInvalidImage:
		return "Invalid image data."
	case ErrSecondCamDisabled:
		return "Second camera is disabled for this quiz."

	// ─── Import / export ───────────────────────────────────────────────
	case ErrFileRequired:
		return "File upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type. Use CSV or XLSX."
	case ErrFileTooLarge:
		return "File exceeds the size limit."
	case ErrImportRows:
		return "Some rows could not be imported."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrResendLimited:
		return "Too many resend requests. Try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	case ErrMailConfig:
		return "Email delivery is not configured."
	default:
		return "An unexpected error occurred."
	}
}
