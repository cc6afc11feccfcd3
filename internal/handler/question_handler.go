package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/response"
	"github.com/omarrislam/Quiz-App/internal/service"
	"github.com/omarrislam/Quiz-App/internal/validator"
)

// QuestionHandler handles question management endpoints.
type QuestionHandler struct {
	quizService     *service.QuizService
	questionService *service.QuestionService
	maxUpload       int64
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(quizService *service.QuizService, questionService *service.QuestionService, maxUpload int64) *QuestionHandler {
	return &QuestionHandler{quizService: quizService, questionService: questionService, maxUpload: maxUpload}
}

// ListQuestions godoc
// GET /api/v1/quizzes/:quiz_id/questions
// Lists questions in display order, with answers.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	questions, err := h.questionService.List(c.Request.Context(), quiz)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ImportQuestions godoc
// POST /api/v1/quizzes/:quiz_id/questions/import
// Replaces the question set from a CSV or XLSX upload (multipart field "file").
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	rows, ok := readUpload(c, h.maxUpload)
	if !ok {
		return
	}

	res, err := h.questionService.Import(c.Request.Context(), quiz, rows)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// UpdateQuestion godoc
// PATCH /api/v1/quizzes/:quiz_id/questions/:question_id
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	questionID, ok := paramUUID(c, "question_id")
	if !ok {
		return
	}
	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.Update(c.Request.Context(), quiz, questionID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/v1/quizzes/:quiz_id/questions/:question_id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	questionID, ok := paramUUID(c, "question_id")
	if !ok {
		return
	}
	if err := h.questionService.Delete(c.Request.Context(), quiz, questionID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// DeleteAllQuestions godoc
// DELETE /api/v1/quizzes/:quiz_id/questions
func (h *QuestionHandler) DeleteAllQuestions(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	n, err := h.questionService.DeleteAll(c.Request.Context(), quiz)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": n})
}
