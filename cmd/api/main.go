package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jaspreetkaur1509/Agri-bot/internal/api"
	"github.com/jaspreetkaur1509/Agri-bot/internal/audit"
	"github.com/jaspreetkaur1509/Agri-bot/internal/cache"
	"github.com/jaspreetkaur1509/Agri-bot/internal/config"
	"github.com/jaspreetkaur1509/Agri-bot/internal/database"
	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
	"github.com/jaspreetkaur1509/Agri-bot/internal/metrics"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/stt"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/tts"
	"github.com/jaspreetkaur1509/Agri-bot/internal/queue"
	"github.com/jaspreetkaur1509/Agri-bot/internal/speech"
	"github.com/jaspreetkaur1509/Agri-bot/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Warn("configuration incomplete, model-backed endpoints will fail", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (optional, only used for audit logs)
	var db *pgxpool.Pool
	if cfg.Database.URL != "" {
		migrations := database.Migrations()
		if cfg.Database.MigrationsPath != "" {
			migrations = os.DirFS(cfg.Database.MigrationsPath)
		}
		db, err = database.Open(ctx, cfg.Database, migrations)
		if err != nil {
			slog.Warn("database unavailable, running without audit logs", "error", err)
			db = nil
		} else {
			defer db.Close()
		}
	}

	// Redis connection (optional)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var (
		store    cache.Store
		speechSv *speech.Service
	)
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, using in-process cache and disabling speech jobs", "error", err)
		store = cache.NewMemory()
	} else {
		store = cache.NewCache(rdb, "agribot:")

		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		speechSv = speech.NewService(speech.NewStore(store, cfg.App.SpeechTTL), qc, cfg.TTS.Voice)
	}

	m := metrics.New()
	auditSvc := audit.NewService(db)
	gateway := llm.NewGateway(cfg.LLM, m, auditSvc)

	deps := api.Dependencies{
		DB:      db,
		Redis:   rdb,
		Gateway: gateway,
		Cache:   store,
		STT:     stt.New(cfg.STT),
		TTS:     tts.New(cfg.TTS),
		Speech:  speechSv,
		Weather: weather.NewClient(cfg.Weather),
		Audit:   auditSvc,
		Metrics: m,
	}

	router, err := api.NewRouter(cfg, deps)
	if err != nil {
		slog.Error("failed to build router", "error", err)
		os.Exit(1)
	}
	handler := router.Setup(ctx)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "variant", cfg.App.Variant, "provider", cfg.LLM.DefaultProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
