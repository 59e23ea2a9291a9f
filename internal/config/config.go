package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	LLM       LLMConfig
	STT       STTConfig
	TTS       TTSConfig
	App       AppConfig
	Weather   WeatherConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	LogLevel    slog.Level
	CORSOrigins []string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string // empty disables bearer auth on /api/v1
	Issuer    string
}

type LLMConfig struct {
	GeminiKey        string
	OpenAIKey        string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	DefaultModel     string
	VisionModel      string
	FallbackProvider string
	MaxRetries       int
	BreakerFailures  int
	BreakerOpenFor   time.Duration
}

type STTConfig struct {
	Backend       string // "openai" or "local"
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	LocalBaseURL  string // default: "http://localhost:8178"
	Language      string
}

type TTSConfig struct {
	Backend       string // "openai" or "local"
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	Voice         string
	LocalBinPath  string // default: "piper"
	LocalModel    string // required when backend=local
}

// AppConfig holds the AgriBot-specific knobs.
type AppConfig struct {
	Variant           string // full, text or compact
	MaxImageBytes     int64
	MaxAudioBytes     int64
	DiagnosisCacheTTL time.Duration
	SpeechTTL         time.Duration
	HistoryWindow     int
	ContextTokens     int
}

type WeatherConfig struct {
	OpenWeatherKey string
	BaseURL        string
	Timeout        time.Duration
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	breakerFailures, err := getEnvInt("LLM_BREAKER_FAILURES", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_BREAKER_FAILURES: %w", err)
	}

	breakerOpenFor, err := getEnvDuration("LLM_BREAKER_OPEN_FOR", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_BREAKER_OPEN_FOR: %w", err)
	}

	maxImage, err := getEnvInt("MAX_IMAGE_BYTES", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_IMAGE_BYTES: %w", err)
	}

	maxAudio, err := getEnvInt("MAX_AUDIO_BYTES", 25<<20)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_AUDIO_BYTES: %w", err)
	}

	cacheTTL, err := getEnvDuration("DIAGNOSIS_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid DIAGNOSIS_CACHE_TTL: %w", err)
	}

	speechTTL, err := getEnvDuration("SPEECH_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid SPEECH_TTL: %w", err)
	}

	historyWindow, err := getEnvInt("CHAT_HISTORY_WINDOW", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_HISTORY_WINDOW: %w", err)
	}

	contextTokens, err := getEnvInt("CHAT_CONTEXT_TOKENS", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_CONTEXT_TOKENS: %w", err)
	}

	weatherTimeout, err := getEnvDuration("WEATHER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_TIMEOUT: %w", err)
	}

	rateLimited, err := getEnvBool("RATE_LIMIT_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_ENABLED: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			LogLevel:    level,
			CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", ""),
		},
		LLM: LLMConfig{
			GeminiKey:        getEnv("GEMINI_API_KEY", ""),
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "gemini"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "gemini-2.5-pro"),
			VisionModel:      getEnv("LLM_VISION_MODEL", ""),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
			BreakerFailures:  breakerFailures,
			BreakerOpenFor:   breakerOpenFor,
		},
		STT: STTConfig{
			Backend:       getEnv("STT_BACKEND", "openai"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("STT_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("STT_OPENAI_MODEL", ""),
			LocalBaseURL:  getEnv("STT_LOCAL_BASE_URL", "http://localhost:8178"),
			Language:      getEnv("STT_LANGUAGE", "en"),
		},
		TTS: TTSConfig{
			Backend:       getEnv("TTS_BACKEND", "openai"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("TTS_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("TTS_OPENAI_MODEL", ""),
			Voice:         getEnv("TTS_VOICE", ""),
			LocalBinPath:  getEnv("TTS_LOCAL_PIPER_BIN", "piper"),
			LocalModel:    getEnv("TTS_LOCAL_PIPER_MODEL", ""),
		},
		App: AppConfig{
			Variant:           strings.ToLower(getEnv("AGRIBOT_VARIANT", "full")),
			MaxImageBytes:     int64(maxImage),
			MaxAudioBytes:     int64(maxAudio),
			DiagnosisCacheTTL: cacheTTL,
			SpeechTTL:         speechTTL,
			HistoryWindow:     historyWindow,
			ContextTokens:     contextTokens,
		},
		Weather: WeatherConfig{
			OpenWeatherKey: getEnv("OPENWEATHER_API_KEY", ""),
			BaseURL:        getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
			Timeout:        weatherTimeout,
		},
		RateLimit: RateLimitConfig{
			Enabled: rateLimited,
			RPS:     rps,
			Burst:   burst,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports configuration that would leave the advice endpoints
// without a working model.
func (c *Config) Validate() error {
	var missing []string
	switch c.LLM.DefaultProvider {
	case "gemini":
		if c.LLM.GeminiKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	case "openai":
		if c.LLM.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.LLM.AnthropicKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case "ollama":
		if c.LLM.OllamaURL == "" {
			missing = append(missing, "OLLAMA_URL")
		}
	default:
		return fmt.Errorf("unknown LLM_DEFAULT_PROVIDER %q", c.LLM.DefaultProvider)
	}
	if c.TTS.Backend == "local" && c.TTS.LocalModel == "" {
		missing = append(missing, "TTS_LOCAL_PIPER_MODEL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
