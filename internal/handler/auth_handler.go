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

// AuthHandler handles instructor authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register godoc
// POST /api/v1/auth/register
// Creates an instructor account and returns a session token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Login godoc
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated instructor.
func (h *AuthHandler) Me(c *gin.Context) {
	instructor, err := h.authService.Me(c.Request.Context(), middleware.GetInstructorID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"instructor": instructor})
}
