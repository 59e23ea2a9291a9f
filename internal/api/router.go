package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jaspreetkaur1509/Agri-bot/internal/api/handlers"
	"github.com/jaspreetkaur1509/Agri-bot/internal/api/middleware"
	"github.com/jaspreetkaur1509/Agri-bot/internal/audit"
	"github.com/jaspreetkaur1509/Agri-bot/internal/auth"
	"github.com/jaspreetkaur1509/Agri-bot/internal/cache"
	"github.com/jaspreetkaur1509/Agri-bot/internal/chat"
	"github.com/jaspreetkaur1509/Agri-bot/internal/config"
	"github.com/jaspreetkaur1509/Agri-bot/internal/diagnosis"
	"github.com/jaspreetkaur1509/Agri-bot/internal/guardrails"
	"github.com/jaspreetkaur1509/Agri-bot/internal/llm"
	"github.com/jaspreetkaur1509/Agri-bot/internal/metrics"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/stt"
	"github.com/jaspreetkaur1509/Agri-bot/internal/multimodal/tts"
	"github.com/jaspreetkaur1509/Agri-bot/internal/prompt"
	"github.com/jaspreetkaur1509/Agri-bot/internal/speech"
)

// Dependencies are the clients built in main. DB and Redis may be nil; the
// rest must be set.
type Dependencies struct {
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Gateway llm.Gateway
	Cache   cache.Store
	STT     stt.STTProvider
	TTS     tts.TTSProvider
	Speech  *speech.Service
	Weather handlers.WeatherSource
	Audit   *audit.Service
	Metrics *metrics.Metrics
}

type Router struct {
	mux     *chi.Mux
	cfg     *config.Config
	deps    Dependencies
	variant prompt.Variant
	jwt     *auth.JWTMiddleware
}

func NewRouter(cfg *config.Config, deps Dependencies) (*Router, error) {
	variant, err := prompt.LookupVariant(cfg.App.Variant)
	if err != nil {
		return nil, fmt.Errorf("AGRIBOT_VARIANT: %w", err)
	}

	rt := &Router{
		mux:     chi.NewRouter(),
		cfg:     cfg,
		deps:    deps,
		variant: variant,
	}
	if cfg.Auth.JWTSecret != "" {
		rt.jwt = auth.NewJWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	}
	return rt, nil
}

// Setup registers middleware and routes. ctx bounds background work such as
// the rate limiter's janitor.
func (rt *Router) Setup(ctx context.Context) http.Handler {
	r := rt.mux
	d := rt.deps

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	if rt.cfg.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(ctx, rt.cfg.RateLimit.RPS, rt.cfg.RateLimit.Burst)
		r.Use(rl.Limit)
	}

	// Health and metrics (no auth)
	health := handlers.NewHealthHandler(rt.variant.Name)
	if d.DB != nil {
		health.AddCheck("database", d.DB.Ping)
	}
	if d.Redis != nil {
		health.AddCheck("redis", func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() })
	}
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	// Initialize services
	var speechQueue chat.SpeechQueue
	if rt.variant.SpeechEnabled && d.Speech != nil {
		speechQueue = d.Speech
	}

	guards := guardrails.DefaultPipeline(d.Gateway, 0)
	intents := guardrails.NewIntentClassifier(d.Gateway, guardrails.DefaultIntents())

	chatSvc := chat.NewService(d.Gateway, rt.variant, chat.Options{
		Guards:        guards,
		Intents:       intents,
		STT:           d.STT,
		Speech:        speechQueue,
		HistoryWindow: rt.cfg.App.HistoryWindow,
		ContextTokens: rt.cfg.App.ContextTokens,
	})

	visionModel := rt.cfg.LLM.VisionModel
	if visionModel == "" {
		visionModel = rt.cfg.LLM.DefaultModel
	}
	diagnosisOpts := diagnosis.Options{
		Cache:    d.Cache,
		CacheTTL: rt.cfg.App.DiagnosisCacheTTL,
		MaxBytes: rt.cfg.App.MaxImageBytes,
		Model:    visionModel,
	}
	if speechQueue != nil {
		diagnosisOpts.Speech = speechQueue
	}
	vision := multimodal.NewVisionService(d.Gateway, "", rt.cfg.LLM.VisionModel)
	diagnosisSvc := diagnosis.NewService(vision, rt.variant, diagnosisOpts)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if rt.jwt != nil {
			r.Use(rt.jwt.Authenticate)
		}

		tipsH := handlers.NewTipsHandler(rt.variant)
		r.Get("/tips", tipsH.Tips)

		// Offline advisory routes
		advisoryH := handlers.NewAdvisoryHandler(d.Weather, d.Audit, d.Metrics)
		r.Route("/advisory", func(r chi.Router) {
			r.Post("/soil", advisoryH.Soil)
			r.Post("/irrigation", advisoryH.Irrigation)
		})

		diagnosisH := handlers.NewDiagnosisHandler(diagnosisSvc, d.Audit, rt.cfg.App.MaxImageBytes)
		r.Post("/diagnosis", diagnosisH.Diagnose)

		chatH := handlers.NewChatHandler(chatSvc, rt.cfg.App.MaxAudioBytes)
		r.Route("/chat", func(r chi.Router) {
			r.Post("/", chatH.Ask)
			r.Post("/stream", chatH.AskStream)
			r.Post("/voice", chatH.Voice)
		})

		guardrailH := handlers.NewGuardrailHandler(guards, intents)
		r.Route("/guardrails", func(r chi.Router) {
			r.Post("/check", guardrailH.Check)
			r.Post("/classify", guardrailH.Classify)
		})

		speechH := handlers.NewSpeechHandler(d.TTS, d.STT, d.Speech, rt.variant.SpeechEnabled, rt.cfg.App.MaxAudioBytes)
		r.Route("/speech", func(r chi.Router) {
			r.Post("/tts", speechH.Speak)
			r.Post("/stt", speechH.Transcribe)
			r.Get("/{id}", speechH.Job)
		})

		// Admin routes
		adminH := handlers.NewAdminHandler(d.Audit)
		r.Route("/admin", func(r chi.Router) {
			if rt.jwt != nil {
				r.Use(auth.RequireRole("admin"))
			}
			r.Get("/usage", adminH.Usage)
		})
	})

	return r
}
