package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/omarrislam/Quiz-App/internal/config"
	"github.com/omarrislam/Quiz-App/internal/database"
	"github.com/omarrislam/Quiz-App/internal/handler"
	"github.com/omarrislam/Quiz-App/internal/logger"
	"github.com/omarrislam/Quiz-App/internal/mailer"
	"github.com/omarrislam/Quiz-App/internal/queue"
	"github.com/omarrislam/Quiz-App/internal/ratelimit"
	"github.com/omarrislam/Quiz-App/internal/repository"
	"github.com/omarrislam/Quiz-App/internal/router"
	"github.com/omarrislam/Quiz-App/internal/service"
	"github.com/omarrislam/Quiz-App/internal/validator"
	"github.com/omarrislam/Quiz-App/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("dev_email", cfg.DevEmailMode).
		Msg("Starting Quiz backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	instructorRepo := repository.NewInstructorRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	invitationRepo := repository.NewInvitationRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	// ─── Mail Delivery ────────────────────────────────────────────────
	mail := mailer.New(cfg, log)
	if err := mail.Check(); err != nil {
		log.Warn().Err(err).Msg("Mail is not configured; invitations will be rejected")
	}
	mailQueue := queue.NewMailQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, instructorRepo)
	quizService := service.NewQuizService(quizRepo, questionRepo, log)
	questionService := service.NewQuestionService(questionRepo, log)
	studentService := service.NewStudentService(studentRepo, log)
	invitationService := service.NewInvitationService(
		quizRepo, studentRepo, invitationRepo, auditRepo,
		mailQueue, ratelimit.NewResendLimiter(rdb), mail,
		cfg.AppBaseURL, log,
	)
	attemptService := service.NewAttemptService(
		quizRepo, questionRepo, attemptRepo, snapshotRepo,
		invitationService, authService, cfg.MaxSnapshotBytes, log,
	)
	secondCamService := service.NewSecondCamService(quizRepo, attemptRepo, snapshotRepo, authService, cfg.MaxSnapshotBytes, log)
	dashboardService := service.NewDashboardService(quizRepo, attemptRepo, invitationRepo, auditRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	// Snapshot bodies carry base64, which is a third larger than the image.
	maxSnapshotBody := cfg.MaxSnapshotBytes*4/3 + 4096
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Quiz:       handler.NewQuizHandler(quizService),
		Question:   handler.NewQuestionHandler(quizService, questionService, cfg.MaxImportBytes),
		Student:    handler.NewStudentHandler(quizService, studentService, cfg.MaxImportBytes),
		Invitation: handler.NewInvitationHandler(quizService, invitationService),
		Attempt:    handler.NewAttemptHandler(quizService, attemptService, maxSnapshotBody),
		SecondCam:  handler.NewSecondCamHandler(secondCamService, log, cfg.AllowedOrigins, maxSnapshotBody),
		Dashboard:  handler.NewDashboardHandler(quizService, dashboardService),
		System: handler.NewSystemHandler(map[string]handler.Pinger{
			"postgres": pool,
			"redis":    handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		}),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	mailWorker := worker.NewMailWorker(mailQueue, mail, auditRepo, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		mailWorker.Start(workerCtx)
	}()

	var expirer worker.AttemptExpirer
	if cfg.AttemptExpirySweep {
		expirer = attemptRepo
	}
	retentionWorker := worker.NewRetentionWorker(worker.RetentionConfig{
		Schedule:          cfg.RetentionCron,
		SnapshotRetention: cfg.SnapshotRetention,
		SessionTTL:        cfg.SecondCamTTL,
		ExpiryGrace:       cfg.AttemptExpiryGrace,
	}, snapshotRepo, expirer, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := retentionWorker.Start(workerCtx); err != nil {
			log.Error().Err(err).Msg("Retention worker stopped")
		}
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	<-ctx.Done()
	stop()
	log.Info().Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers. A mail already popped finishes sending.
	workerCancel()
	wg.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
