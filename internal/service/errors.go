package service

import (
	"errors"

	"github.com/omarrislam/Quiz-App/internal/response"
)

// Kind classifies a domain failure. Handlers map it to a transport status.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidInput
	KindRateLimited
	KindConflict
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	case KindRateLimited:
		return "rate_limited"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// Error is a tagged domain failure. Every public service operation returns
// either a result or exactly one of these (possibly wrapped).
type Error struct {
	Kind    Kind
	Code    response.ErrCode
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return response.GetMessage(e.Code)
}

func newError(kind Kind, code response.ErrCode) *Error {
	return &Error{Kind: kind, Code: code}
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg}
}

// Is matches on kind and code so copies made by WithMessage still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// KindOf returns the kind of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Domain errors.
var (
	ErrQuizNotFound     = newError(KindNotFound, response.ErrQuizNotFound)
	ErrAttemptNotFound  = newError(KindNotFound, response.ErrAttemptNotFound)
	ErrStudentNotFound  = newError(KindNotFound, response.ErrStudentNotFound)
	ErrQuestionNotFound = newError(KindNotFound, response.ErrQuestionNotFound)
	ErrInviteNotFound   = newError(KindNotFound, response.ErrInviteNotFound)

	ErrQuizClosed       = newError(KindForbidden, response.ErrQuizClosed)
	ErrQuizNotPublished = newError(KindForbidden, response.ErrQuizNotPublished)
	ErrQuizNotStarted   = newError(KindForbidden, response.ErrQuizNotStarted)
	ErrQuizEnded        = newError(KindForbidden, response.ErrQuizEnded)
	ErrAttemptNotActive = newError(KindForbidden, response.ErrAttemptNotActive)
	ErrSnapshotsOff     = newError(KindForbidden, response.ErrSnapshotsDisabled)
	ErrSecondCamOff     = newError(KindForbidden, response.ErrSecondCamDisabled)
	ErrOTPExpired       = newError(KindForbidden, response.ErrOTPExpired)
	ErrOTPUsed          = newError(KindForbidden, response.ErrOTPUsed)
	ErrStudentRequired  = newError(KindForbidden, response.ErrStudentRequired)
	ErrOTPInvalid       = newError(KindUnauthenticated, response.ErrOTPInvalid)
	ErrSecondCamToken   = newError(KindUnauthenticated, response.ErrTokenInvalid)

	ErrInvalidPhase   = newError(KindInvalidInput, response.ErrInvalidPhase)
	ErrInvalidImage   = newError(KindInvalidInput, response.ErrInvalidImage)
	ErrNoQuestions    = newError(KindInvalidInput, response.ErrNoQuestions)
	ErrMobileConflict = newError(KindInvalidInput, response.ErrMobileConflict)
	ErrInvalidInput   = newError(KindInvalidInput, response.ErrValidation)

	ErrOTPAttemptsExceeded = newError(KindRateLimited, response.ErrOTPAttemptsExceeded)
	ErrResendLimited       = newError(KindRateLimited, response.ErrResendLimited)

	ErrAlreadyCompleted    = newError(KindConflict, response.ErrAlreadyCompleted)
	ErrAttemptAlreadyEnded = newError(KindConflict, response.ErrAttemptAlreadyEnded)
	ErrEmailTaken          = newError(KindConflict, response.ErrEmailTaken)
	ErrDuplicate           = newError(KindConflict, response.ErrConflict)

	ErrInvalidCredentials = newError(KindUnauthenticated, response.ErrInvalidCredentials)

	ErrMailNotConfigured = newError(KindInternal, response.ErrMailConfig)
)
