package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/config"
	"github.com/stemsi/interview-sim/internal/database"
	"github.com/stemsi/interview-sim/internal/handler"
	"github.com/stemsi/interview-sim/internal/llm"
	_ "github.com/stemsi/interview-sim/internal/llm/gemini"
	"github.com/stemsi/interview-sim/internal/logger"
	"github.com/stemsi/interview-sim/internal/middleware"
	"github.com/stemsi/interview-sim/internal/repository"
	"github.com/stemsi/interview-sim/internal/router"
	"github.com/stemsi/interview-sim/internal/service"
	"github.com/stemsi/interview-sim/internal/validator"
	"github.com/stemsi/interview-sim/internal/worker"
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
		Str("store", cfg.StoreBackend).
		Msg("Starting interview simulator")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handler.HealthCheck{}

	// ─── Connect to Redis ──────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		rdb = client
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer p.Close()
		pool = p
		checks["postgres"] = p.Ping
	}

	// ─── Candidate Store ───────────────────────────────────────────────
	var store repository.CandidateStore
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		if rdb == nil {
			log.Fatal().Msg("STORE_BACKEND=redis requires REDIS_URL")
		}
		store = repository.NewRedisCandidateStore(rdb)
	case config.StoreBackendMemory:
		store = repository.NewMemoryCandidateStore()
	default:
		log.Fatal().Str("store", cfg.StoreBackend).Msg("Unknown store backend")
	}

	// ─── Language Model ────────────────────────────────────────────────
	provider, err := llm.NewProvider(cfg.LLMProvider, llm.Options{
		APIKey: cfg.GeminiAPIKey,
		Models: cfg.GeminiModels,
	})
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.LLMProvider).Msg("Failed to create LLM provider")
	}
	if provider.Name() == llm.DisabledProviderName {
		log.Warn().Msg("No LLM API key configured; interviews use default questions and go unscored")
	}

	// ─── Results Archive ───────────────────────────────────────────────
	var (
		archiver   service.Archiver
		queue      *worker.ArchiveQueue
		resultRepo *repository.ResultRepository
	)
	if cfg.ArchiveEnabled() {
		queue = worker.NewArchiveQueue(rdb)
		resultRepo = repository.NewResultRepository(pool)
		archiver = queue
	}

	// ─── Initialize Services ──────────────────────────────────────────
	interviewService := service.NewInterviewService(
		store,
		service.NewLLMQuestionSource(provider, log),
		service.NewLLMScorer(provider, log),
		archiver,
		service.NewBroadcaster(),
		log,
		service.Options{
			Role:              cfg.InterviewRole,
			GenerationTimeout: cfg.GenerationTimeout,
			EvaluationTimeout: cfg.EvaluationTimeout,
			SummaryTimeout:    cfg.SummaryTimeout,
			TickInterval:      cfg.TickInterval,
		},
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	var (
		lister handler.ResultLister
		depth  handler.QueueDepth
	)
	if resultRepo != nil {
		lister = resultRepo
		depth = queue
	}
	handlers := &router.Handlers{
		Interview: handler.NewInterviewHandler(interviewService, log),
		Result:    handler.NewResultHandler(lister, log),
		WS:        handler.NewWSHandler(interviewService, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(checks, depth, provider.Name(), log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if resultRepo != nil {
		archiveWorker := worker.NewArchiveWorker(resultRepo, rdb, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			archiveWorker.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)
	r := router.SetupRouter(handlers, cfg, log, limiter)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	// 2. Stop every countdown.
	if err := interviewService.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Interview service shutdown error")
	}

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	drained := make(chan struct{})
	go func() {
		workers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Archive worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
