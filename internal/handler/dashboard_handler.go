package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omarrislam/Quiz-App/internal/export"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/response"
	"github.com/omarrislam/Quiz-App/internal/service"
	"github.com/omarrislam/Quiz-App/internal/validator"
)

// DashboardHandler serves the instructor's monitoring views.
type DashboardHandler struct {
	quizService      *service.QuizService
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(quizService *service.QuizService, dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{quizService: quizService, dashboardService: dashboardService}
}

// GetMetrics godoc
// GET /api/v1/quizzes/:quiz_id/dashboard
func (h *DashboardHandler) GetMetrics(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	m, err := h.dashboardService.Metrics(c.Request.Context(), quiz)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

// GetTimeline godoc
// GET /api/v1/quizzes/:quiz_id/timeline?limit=&since=
// Audit entries and suspicious events merged, newest first.
func (h *DashboardHandler) GetTimeline(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	var q model.AuditQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	entries, err := h.dashboardService.Timeline(c.Request.Context(), quiz, q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"timeline": entries})
}

// ExportResults godoc
// GET /api/v1/quizzes/:quiz_id/export?format=csv|xlsx
func (h *DashboardHandler) ExportResults(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"format": "must be csv or xlsx"})
		return
	}

	// Rendered fully before the first byte so a failure still gets a JSON error.
	var buf bytes.Buffer
	if err := h.dashboardService.Export(c.Request.Context(), quiz, &buf, format); err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="quiz-%s-results.%s"`, quiz.ID, format))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
