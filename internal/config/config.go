package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT (verification only, tokens are issued by the identity provider)
	JWTSecret string

	// LLM
	LLMProvider             string
	OpenAIAPIKey            string
	GeminiAPIKey            string
	LLMTextModel            string
	LLMVisionModel          string
	LLMBaseURL              string
	LLMPromptPricePer1K     float64
	LLMCompletionPricePer1K float64
	LLMCharsPerToken        int
	LLMCallTimeout          time.Duration

	// Request queue
	QueueMinInterval  time.Duration
	QueueMaxPerMinute int

	// Cache
	CacheDefaultTTL    time.Duration
	CacheSweepInterval time.Duration
	CacheKeyPrefix     string

	// Content
	ContentLanguage string

	// Publishing
	PublishDispatchInterval time.Duration

	// HTTP rate limit for generation endpoints, per user
	GenerateRateLimitPerMinute int

	// Frontend
	FrontendURL string
}

var (
	defaultTextModels   = map[string]string{"openai": "gpt-4", "gemini": "gemini-1.5-flash"}
	defaultVisionModels = map[string]string{"openai": "gpt-4o", "gemini": "gemini-1.5-flash"}
)

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	provider := getEnvOrDefault("LLM_PROVIDER", "openai")
	if provider != "gemini" {
		provider = "openai"
	}

	cfg := &Config{
		Port:                       getEnvOrDefault("PORT", "8080"),
		Env:                        getEnvOrDefault("ENV", "development"),
		DatabaseURL:                mustGetEnv("DATABASE_URL"),
		RedisURL:                   mustGetEnv("REDIS_URL"),
		JWTSecret:                  mustGetEnv("JWT_SECRET"),
		LLMProvider:                provider,
		LLMTextModel:               getEnvOrDefault("LLM_TEXT_MODEL", defaultTextModels[provider]),
		LLMVisionModel:             getEnvOrDefault("LLM_VISION_MODEL", defaultVisionModels[provider]),
		LLMBaseURL:                 getEnvOrDefault("LLM_BASE_URL", ""),
		LLMPromptPricePer1K:        getEnvAsFloatOrDefault("LLM_PROMPT_PRICE_PER_1K", 0.03),
		LLMCompletionPricePer1K:    getEnvAsFloatOrDefault("LLM_COMPLETION_PRICE_PER_1K", 0.06),
		LLMCharsPerToken:           getEnvAsIntOrDefault("LLM_CHARS_PER_TOKEN", 4),
		LLMCallTimeout:             time.Duration(getEnvAsIntOrDefault("LLM_CALL_TIMEOUT_SECONDS", 90)) * time.Second,
		QueueMinInterval:           time.Duration(getEnvAsIntOrDefault("QUEUE_MIN_INTERVAL_MS", 1000)) * time.Millisecond,
		QueueMaxPerMinute:          getEnvAsIntOrDefault("QUEUE_MAX_PER_MINUTE", 60),
		CacheDefaultTTL:            time.Duration(getEnvAsIntOrDefault("CACHE_DEFAULT_TTL_SECONDS", 300)) * time.Second,
		CacheSweepInterval:         time.Duration(getEnvAsIntOrDefault("CACHE_SWEEP_INTERVAL_SECONDS", 300)) * time.Second,
		CacheKeyPrefix:             getEnvOrDefault("CACHE_KEY_PREFIX", "blogtwin_cache:"),
		ContentLanguage:            getEnvOrDefault("CONTENT_LANGUAGE", "ko"),
		PublishDispatchInterval:    time.Duration(getEnvAsIntOrDefault("PUBLISH_DISPATCH_INTERVAL_SECONDS", 60)) * time.Second,
		GenerateRateLimitPerMinute: getEnvAsIntOrDefault("GENERATE_RATE_LIMIT_PER_MINUTE", 20),
		FrontendURL:                getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if provider == "gemini" {
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	} else {
		cfg.OpenAIAPIKey = mustGetEnv("OPENAI_API_KEY")
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 {
		return defaultVal
	}
	return f
}
