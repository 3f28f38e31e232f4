package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/database"
	"github.com/brightboard/brightboard-backend/internal/handler"
	"github.com/brightboard/brightboard-backend/internal/llm"
	"github.com/brightboard/brightboard-backend/internal/logger"
	"github.com/brightboard/brightboard-backend/internal/pipeline"
	"github.com/brightboard/brightboard-backend/internal/repository"
	"github.com/brightboard/brightboard-backend/internal/router"
	"github.com/brightboard/brightboard-backend/internal/service"
	"github.com/brightboard/brightboard-backend/internal/validator"
	"github.com/brightboard/brightboard-backend/internal/worker"
	"github.com/brightboard/brightboard-backend/internal/ws"
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
		Msg("Starting BrightBoard Backend")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// ─── Initialize LLM Client ─────────────────────────────────────────
	llmClient, err := llm.NewClient(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize LLM client")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	tenantRepo := repository.NewTenantRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	responseRepo := repository.NewResponseRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	airunRepo := repository.NewAIRunRepository(pool)

	// ─── Initialize WebSocket Registry ─────────────────────────────────
	registry := ws.NewRegistry(cfg.HeartbeatInterval, cfg.HeartbeatTimeout, log)

	// ─── Initialize Services ──────────────────────────────────────────
	caps := service.DefaultCaps()
	authService := service.NewAuthService(cfg, tenantRepo, caps)
	quizService := service.NewQuizService(cfg, quizRepo, questionRepo)
	classService := service.NewClassService(classRepo, studentRepo)
	sessionService := service.NewSessionService(
		cfg, sessionRepo, participantRepo, responseRepo,
		quizRepo, questionRepo, studentRepo,
		authService, registry, rdb, caps, log,
	)
	assessmentService := service.NewAssessmentService(
		cfg, assessmentRepo, resultRepo, studentRepo, rdb, log,
	)

	// ─── Initialize Grading Pipeline ──────────────────────────────────
	gradingPipeline := pipeline.New(
		cfg, llmClient,
		assessmentRepo, resultRepo, airunRepo, studentRepo, classRepo,
		rdb, log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Quiz:       handler.NewQuizHandler(quizService),
		Class:      handler.NewClassHandler(classService),
		Session:    handler.NewSessionHandler(sessionService),
		Assessment: handler.NewAssessmentHandler(assessmentService, rdb),
		WS:         handler.NewWSHandler(sessionService, registry, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	gradingWorker := worker.NewGradingWorker(rdb, gradingPipeline, log)
	timeoutWorker := worker.NewSessionTimeoutWorker(sessionService, log)
	anonymiseWorker := worker.NewGuestAnonymiseWorker(participantRepo, cfg, caps.Now, log)

	go gradingWorker.Start(workerCtx)
	go timeoutWorker.Start(workerCtx)
	go anonymiseWorker.Start(workerCtx)
	go sessionService.RunLeaderboardBatcher(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and let the grading worker finish its poll.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
