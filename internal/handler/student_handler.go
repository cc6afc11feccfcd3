package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/response"
	"github.com/omarrislam/Quiz-App/internal/service"
	"github.com/omarrislam/Quiz-App/internal/validator"
)

// StudentHandler handles the quiz roster.
type StudentHandler struct {
	quizService    *service.QuizService
	studentService *service.StudentService
	maxUpload      int64
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(quizService *service.QuizService, studentService *service.StudentService, maxUpload int64) *StudentHandler {
	return &StudentHandler{quizService: quizService, studentService: studentService, maxUpload: maxUpload}
}

// ListStudents godoc
// GET /api/v1/quizzes/:quiz_id/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	students, err := h.studentService.List(c.Request.Context(), quiz)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": students})
}

// ImportStudents godoc
// POST /api/v1/quizzes/:quiz_id/students/import
// Adds students from a CSV or XLSX upload. Any bad row rejects the whole file.
func (h *StudentHandler) ImportStudents(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	rows, ok := readUpload(c, h.maxUpload)
	if !ok {
		return
	}

	res, err := h.studentService.Import(c.Request.Context(), quiz, rows)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// UpdateStudent godoc
// PATCH /api/v1/quizzes/:quiz_id/students/:student_id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}
	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, err := h.studentService.Update(c.Request.Context(), quiz, studentID, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": st})
}

// DeleteStudent godoc
// DELETE /api/v1/quizzes/:quiz_id/students/:student_id
// Removes the student and its invitation.
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}
	if err := h.studentService.Delete(c.Request.Context(), quiz, studentID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// DeleteAllStudents godoc
// DELETE /api/v1/quizzes/:quiz_id/students
func (h *StudentHandler) DeleteAllStudents(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	n, err := h.studentService.DeleteAll(c.Request.Context(), quiz)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": n})
}

// SearchStudents godoc
// GET /api/v1/public/quizzes/:quiz_id/students/search?q=
// Name autocomplete on the join page. Returns names only.
func (h *StudentHandler) SearchStudents(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	res, err := h.studentService.Search(c.Request.Context(), quizID, c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"students": res})
}
