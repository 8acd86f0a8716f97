package config

import (
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envValue)

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
		{"uses default for zero", "TEST_INT_4", "0", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envValue)

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsFloatOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected float64
	}{
		{"parses float", "0.5", 0.5},
		{"uses default for empty", "", 0.03},
		{"uses default for garbage", "cheap", 0.03},
		{"uses default for negative", "-1", 0.03},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_FLOAT", tc.envValue)

			result := getEnvAsFloatOrDefault("TEST_FLOAT", 0.03)
			if result != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	t.Setenv("NONEXISTENT_REQUIRED_VAR", "")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "value123")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/blogtwin")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_CALL_TIMEOUT_SECONDS", "")
	t.Setenv("QUEUE_MIN_INTERVAL_MS", "")
	t.Setenv("QUEUE_MAX_PER_MINUTE", "")
	t.Setenv("LLM_CHARS_PER_TOKEN", "")

	cfg := Load()
	if cfg.LLMProvider != "openai" {
		t.Errorf("Expected openai provider, got %q", cfg.LLMProvider)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("Expected api key to be loaded, got %q", cfg.OpenAIAPIKey)
	}
	if cfg.QueueMinInterval != time.Second {
		t.Errorf("Expected 1s min interval, got %v", cfg.QueueMinInterval)
	}
	if cfg.QueueMaxPerMinute != 60 {
		t.Errorf("Expected 60 per minute, got %d", cfg.QueueMaxPerMinute)
	}
	if cfg.LLMCallTimeout != 90*time.Second {
		t.Errorf("Expected 90s timeout, got %v", cfg.LLMCallTimeout)
	}
	if cfg.LLMCharsPerToken != 4 {
		t.Errorf("Expected 4 chars per token, got %d", cfg.LLMCharsPerToken)
	}
}

func TestLoad_GeminiRequiresKey(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when GEMINI_API_KEY is missing")
		}
	}()
	Load()
}

func TestLoad_ProviderModelDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("LLM_TEXT_MODEL", "")
	t.Setenv("LLM_VISION_MODEL", "")

	cfg := Load()
	if cfg.LLMTextModel != "gemini-1.5-flash" || cfg.LLMVisionModel != "gemini-1.5-flash" {
		t.Errorf("Expected gemini model defaults, got %q / %q", cfg.LLMTextModel, cfg.LLMVisionModel)
	}
	if cfg.OpenAIAPIKey != "" {
		t.Errorf("Expected no OpenAI key for gemini provider")
	}
}

func TestLoad_UnknownProviderFallsBackToOpenAI(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PUBLISH_DISPATCH_INTERVAL_SECONDS", "")
	t.Setenv("GENERATE_RATE_LIMIT_PER_MINUTE", "")

	cfg := Load()
	if cfg.LLMProvider != "openai" {
		t.Errorf("Expected openai fallback, got %q", cfg.LLMProvider)
	}
	if cfg.PublishDispatchInterval != time.Minute {
		t.Errorf("Expected 1m dispatch interval, got %v", cfg.PublishDispatchInterval)
	}
	if cfg.GenerateRateLimitPerMinute != 20 {
		t.Errorf("Expected 20 generate requests per minute, got %d", cfg.GenerateRateLimitPerMinute)
	}
}
