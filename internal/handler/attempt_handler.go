package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/response"
	"github.com/omarrislam/Quiz-App/internal/service"
	"github.com/omarrislam/Quiz-App/internal/validator"
)

// AttemptHandler serves the student attempt flow and the instructor's
// attempt review. Student routes are keyed by the attempt ID returned from
// OTP verification.
type AttemptHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
	maxBody        int64
}

// NewAttemptHandler creates a new AttemptHandler. maxBody caps snapshot
// request bodies; 0 leaves them unbounded.
func NewAttemptHandler(quizService *service.QuizService, attemptService *service.AttemptService, maxBody int64) *AttemptHandler {
	return &AttemptHandler{quizService: quizService, attemptService: attemptService, maxBody: maxBody}
}

// StartAttempt godoc
// POST /api/v1/public/quizzes/:quiz_id/verify-otp
// Verifies the emailed code and opens (or resumes) the student's attempt.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.VerifyOTPRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	started, err := h.attemptService.Start(c.Request.Context(), quizID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, started)
}

// GetAttemptStatus godoc
// GET /api/v1/public/attempts/:attempt_id
// Polled by the exam page to notice a forced end.
func (h *AttemptHandler) GetAttemptStatus(c *gin.Context) {
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	view, err := h.attemptService.Status(c.Request.Context(), attemptID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// RecordEvent godoc
// POST /api/v1/public/attempts/:attempt_id/events
// Logs one suspicious-activity signal. Ignored once the attempt has ended.
func (h *AttemptHandler) RecordEvent(c *gin.Context) {
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	var req model.RecordEventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	recorded, err := h.attemptService.RecordEvent(c.Request.Context(), attemptID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": recorded})
}

// SubmitSnapshot godoc
// POST /api/v1/public/attempts/:attempt_id/snapshots
// Stores the capture for a phase. A second capture for the same phase reports "exists".
func (h *AttemptHandler) SubmitSnapshot(c *gin.Context) {
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}
	var req model.SubmitSnapshotRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.attemptService.SubmitSnapshot(c.Request.Context(), attemptID, req)
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusCreated
	if res.Status == model.SnapshotExists {
		status = http.StatusOK
	}
	response.Success(c, status, res)
}

// FinishAttempt godoc
// POST /api/v1/public/attempts/:attempt_id/finish
// Scores and completes the attempt. Also the target of the page-hide
// beacon, which may arrive with a text/plain body or none at all.
func (h *AttemptHandler) FinishAttempt(c *gin.Context) {
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	var req model.FinishAttemptRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	res, err := h.attemptService.Finish(c.Request.Context(), attemptID, req.Answers)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// ListAttempts godoc
// GET /api/v1/quizzes/:quiz_id/attempts
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	attempts, err := h.attemptService.List(c.Request.Context(), quiz)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetAttemptDetail godoc
// GET /api/v1/quizzes/:quiz_id/attempts/:attempt_id
// Answers against the live questions, captures and the event log.
func (h *AttemptHandler) GetAttemptDetail(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	detail, err := h.attemptService.Detail(c.Request.Context(), quiz, attemptID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// TerminateAttempt godoc
// POST /api/v1/quizzes/:quiz_id/attempts/:attempt_id/terminate
// Force-ends the attempt whatever its status. Body (reason) is optional.
func (h *AttemptHandler) TerminateAttempt(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	var req model.TerminateAttemptRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	a, err := h.attemptService.Terminate(c.Request.Context(), quiz, attemptID, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": a})
}

// DeleteAttempt godoc
// DELETE /api/v1/quizzes/:quiz_id/attempts/:attempt_id
func (h *AttemptHandler) DeleteAttempt(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}
	if err := h.attemptService.Delete(c.Request.Context(), quiz, attemptID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
