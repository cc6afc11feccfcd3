package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/omarrislam/Quiz-App/internal/config"
	"github.com/omarrislam/Quiz-App/internal/handler"
	"github.com/omarrislam/Quiz-App/internal/logger"
	"github.com/omarrislam/Quiz-App/internal/middleware"
	"github.com/omarrislam/Quiz-App/internal/response"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Quiz       *handler.QuizHandler
	Question   *handler.QuestionHandler
	Student    *handler.StudentHandler
	Invitation *handler.InvitationHandler
	Attempt    *handler.AttemptHandler
	SecondCam  *handler.SecondCamHandler
	Dashboard  *handler.DashboardHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds the background cleanup of the per-IP limiters.
func SetupRouter(
	ctx context.Context,
	authService middleware.TokenValidator,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(logger.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	router.GET("/health", handlers.System.Health)

	// OTP guesses and resends are throttled per IP on top of the per-invitee limits.
	otpLimiter := middleware.NewRateLimiter(ctx, 10, time.Minute)
	authLimiter := middleware.NewRateLimiter(ctx, 30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		authAPI.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		authAPI.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		authAPI.GET("/me", middleware.RequireInstructorJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Public Student Group (attempt ID is the capability) ────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(middleware.NoStore())
	{
		publicAPI.GET("/quizzes/:quiz_id", handlers.Quiz.GetPublicQuiz)
		publicAPI.GET("/quizzes/:quiz_id/students/search", handlers.Student.SearchStudents)
		publicAPI.POST("/quizzes/:quiz_id/verify-otp", otpLimiter.Middleware(), handlers.Attempt.StartAttempt)
		publicAPI.POST("/quizzes/:quiz_id/resend-otp", otpLimiter.Middleware(), handlers.Invitation.ResendOTP)

		publicAPI.GET("/attempts/:attempt_id", handlers.Attempt.GetAttemptStatus)
		publicAPI.POST("/attempts/:attempt_id/events", handlers.Attempt.RecordEvent)
		publicAPI.POST("/attempts/:attempt_id/snapshots", handlers.Attempt.SubmitSnapshot)
		publicAPI.POST("/attempts/:attempt_id/finish", handlers.Attempt.FinishAttempt)

		publicAPI.GET("/attempts/:attempt_id/second-cam", handlers.SecondCam.GetStatus)
		publicAPI.POST("/attempts/:attempt_id/second-cam/connect", handlers.SecondCam.Connect)
		publicAPI.POST("/attempts/:attempt_id/second-cam/heartbeat", handlers.SecondCam.Heartbeat)
	}

	// ─── 3. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/attempts/:attempt_id/second-cam", handlers.SecondCam.Stream)
	}

	// ─── 4. Instructor Group (JWT, quiz ownership checked per handler) ──
	quizzes := router.Group("/api/v1/quizzes")
	quizzes.Use(middleware.RequireInstructorJWT(authService), middleware.NoStore())
	{
		quizzes.GET("", handlers.Quiz.ListQuizzes)
		quizzes.POST("", handlers.Quiz.CreateQuiz)
		quizzes.GET("/:quiz_id", handlers.Quiz.GetQuiz)
		quizzes.PATCH("/:quiz_id", handlers.Quiz.UpdateQuiz)
		quizzes.DELETE("/:quiz_id", handlers.Quiz.DeleteQuiz)
		quizzes.PATCH("/:quiz_id/status", handlers.Quiz.UpdateQuizStatus)
		quizzes.POST("/:quiz_id/extend", handlers.Quiz.ExtendQuiz)
		quizzes.POST("/:quiz_id/terminate", handlers.Quiz.TerminateQuiz)
		quizzes.GET("/:quiz_id/preview", handlers.Quiz.PreviewQuiz)

		// Questions
		quizzes.GET("/:quiz_id/questions", handlers.Question.ListQuestions)
		quizzes.POST("/:quiz_id/questions/import", handlers.Question.ImportQuestions)
		quizzes.PATCH("/:quiz_id/questions/:question_id", handlers.Question.UpdateQuestion)
		quizzes.DELETE("/:quiz_id/questions/:question_id", handlers.Question.DeleteQuestion)
		quizzes.DELETE("/:quiz_id/questions", handlers.Question.DeleteAllQuestions)

		// Roster and invitations
		quizzes.GET("/:quiz_id/students", handlers.Student.ListStudents)
		quizzes.POST("/:quiz_id/students/import", handlers.Student.ImportStudents)
		quizzes.PATCH("/:quiz_id/students/:student_id", handlers.Student.UpdateStudent)
		quizzes.DELETE("/:quiz_id/students/:student_id", handlers.Student.DeleteStudent)
		quizzes.DELETE("/:quiz_id/students", handlers.Student.DeleteAllStudents)
		quizzes.POST("/:quiz_id/invitations", handlers.Invitation.SendAll)
		quizzes.POST("/:quiz_id/students/:student_id/invite", handlers.Invitation.SendOne)
		quizzes.POST("/:quiz_id/students/:student_id/resend", handlers.Invitation.Resend)

		// Attempts
		quizzes.GET("/:quiz_id/attempts", handlers.Attempt.ListAttempts)
		quizzes.GET("/:quiz_id/attempts/:attempt_id", handlers.Attempt.GetAttemptDetail)
		quizzes.POST("/:quiz_id/attempts/:attempt_id/terminate", handlers.Attempt.TerminateAttempt)
		quizzes.DELETE("/:quiz_id/attempts/:attempt_id", handlers.Attempt.DeleteAttempt)

		// Monitoring
		quizzes.GET("/:quiz_id/dashboard", handlers.Dashboard.GetMetrics)
		quizzes.GET("/:quiz_id/timeline", handlers.Dashboard.GetTimeline)
		quizzes.GET("/:quiz_id/export", handlers.Dashboard.ExportResults)
	}

	return router
}
