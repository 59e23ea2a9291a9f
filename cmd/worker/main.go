package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jaspreetkaur1509/Agri-bot/internal/cache"
	"github.com/jaspreetkaur1509/Agri-bot/internal/config"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/tts"
	"github.com/jaspreetkaur1509/Agri-bot/internal/queue"
	"github.com/jaspreetkaur1509/Agri-bot/internal/queue/workers"
	"github.com/jaspreetkaur1509/Agri-bot/internal/speech"
)

const concurrency = 4

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.LogLevel}))
	slog.SetDefault(logger)

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	// Audio is written where the API reads it: same Redis, same key prefix.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	store := speech.NewStore(cache.NewCache(rdb, "agribot:"), cfg.App.SpeechTTL)

	registry := queue.NewHandlersRegistry()

	// Register workers
	speechWorker := workers.NewSpeechWorker(tts.New(cfg.TTS), store)
	registry.Register(queue.TypeSpeechSynthesize, asynq.HandlerFunc(speechWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", concurrency, "tts_backend", cfg.TTS.Backend)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
