package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omarrislam/Quiz-App/internal/middleware"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/response"
	"github.com/omarrislam/Quiz-App/internal/service"
	"github.com/omarrislam/Quiz-App/internal/validator"
)

// QuizHandler handles quiz management endpoints.
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// ownedQuiz resolves :quiz_id against the authenticated instructor.
// Quizzes owned by someone else are reported as not found.
func ownedQuiz(c *gin.Context, quizzes *service.QuizService) (*model.Quiz, bool) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return nil, false
	}
	quiz, err := quizzes.AssertOwnership(c.Request.Context(), middleware.GetInstructorID(c), quizID)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return quiz, true
}

// ListQuizzes godoc
// GET /api/v1/quizzes
// Lists the instructor's quizzes, closing any whose window has passed.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizService.List(c.Request.Context(), middleware.GetInstructorID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// CreateQuiz godoc
// POST /api/v1/quizzes
// Creates a draft quiz.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), middleware.GetInstructorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// GetQuiz godoc
// GET /api/v1/quizzes/:quiz_id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	quiz, err := h.quizService.Get(c.Request.Context(), middleware.GetInstructorID(c), quizID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// UpdateQuiz godoc
// PATCH /api/v1/quizzes/:quiz_id
// Updates title, code, window or settings. Settings are merged.
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), middleware.GetInstructorID(c), quizID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// UpdateQuizStatus godoc
// PATCH /api/v1/quizzes/:quiz_id/status
func (h *QuizHandler) UpdateQuizStatus(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.UpdateQuizStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.SetStatus(c.Request.Context(), middleware.GetInstructorID(c), quizID, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// ExtendQuiz godoc
// POST /api/v1/quizzes/:quiz_id/extend
// Pushes the end of the window out, reopening a closed quiz if the new end is in the future.
func (h *QuizHandler) ExtendQuiz(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.ExtendQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Extend(c.Request.Context(), middleware.GetInstructorID(c), quizID, req.Minutes)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// TerminateQuiz godoc
// POST /api/v1/quizzes/:quiz_id/terminate
// Closes the quiz and force-ends every running attempt.
func (h *QuizHandler) TerminateQuiz(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	n, err := h.quizService.Terminate(c.Request.Context(), middleware.GetInstructorID(c), quizID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ended_attempts": n})
}

// DeleteQuiz godoc
// DELETE /api/v1/quizzes/:quiz_id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	if err := h.quizService.Delete(c.Request.Context(), middleware.GetInstructorID(c), quizID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// PreviewQuiz godoc
// GET /api/v1/quizzes/:quiz_id/preview
// Returns the questions as a student would see them, shuffled per request.
func (h *QuizHandler) PreviewQuiz(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	questions, err := h.quizService.Preview(c.Request.Context(), middleware.GetInstructorID(c), quizID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// GetPublicQuiz godoc
// GET /api/v1/public/quizzes/:quiz_id
// Accepts the quiz ID or its code.
func (h *QuizHandler) GetPublicQuiz(c *gin.Context) {
	info, err := h.quizService.PublicInfo(c.Request.Context(), c.Param("quiz_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": info})
}
