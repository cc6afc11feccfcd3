package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/omarrislam/Quiz-App/internal/response"
	"github.com/omarrislam/Quiz-App/internal/service"
	"github.com/omarrislam/Quiz-App/internal/validator"
)

// InvitationHandler handles OTP invitation delivery.
type InvitationHandler struct {
	quizService       *service.QuizService
	invitationService *service.InvitationService
}

// NewInvitationHandler creates a new InvitationHandler.
func NewInvitationHandler(quizService *service.QuizService, invitationService *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{quizService: quizService, invitationService: invitationService}
}

// SendAll godoc
// POST /api/v1/quizzes/:quiz_id/invitations
// Issues a fresh OTP to every student on the roster.
func (h *InvitationHandler) SendAll(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	res, err := h.invitationService.SendAll(c.Request.Context(), quiz)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, res)
}

// SendOne godoc
// POST /api/v1/quizzes/:quiz_id/students/:student_id/invite
func (h *InvitationHandler) SendOne(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}
	if err := h.invitationService.SendOne(c.Request.Context(), quiz, studentID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": 1})
}

// Resend godoc
// POST /api/v1/quizzes/:quiz_id/students/:student_id/resend
// Re-issues the OTP. Shares the per-invitee throttle with the student resend.
func (h *InvitationHandler) Resend(c *gin.Context) {
	quiz, ok := ownedQuiz(c, h.quizService)
	if !ok {
		return
	}
	studentID, ok := paramUUID(c, "student_id")
	if !ok {
		return
	}
	if err := h.invitationService.Resend(c.Request.Context(), quiz, studentID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": 1})
}

// ResendOTP godoc
// POST /api/v1/public/quizzes/:quiz_id/resend-otp
// Student-facing resend from the join page.
func (h *InvitationHandler) ResendOTP(c *gin.Context) {
	quizID, ok := paramUUID(c, "quiz_id")
	if !ok {
		return
	}
	var req model.ResendOTPRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if err := h.invitationService.ResendByEmail(c.Request.Context(), quizID, req.Email); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": 1})
}
