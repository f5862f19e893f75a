// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad() and pass it explicitly;
// nothing reads the environment after that.
type AppConfig struct {
	// ServerPort is the HTTP listen port.
	ServerPort string

	// DBPath is the DuckDB database file path.
	DBPath string

	// DefaultCurrency fills fact rows whose source omits a currency.
	DefaultCurrency string

	// Upload contains upload handling settings.
	Upload UploadConfig

	// Ingest contains settings for the background ingestion workers.
	Ingest IngestConfig

	// LLM contains text-completion provider settings.
	LLM LLMConfig
}

// UploadConfig holds upload handling settings.
type UploadConfig struct {
	// Dir is where uploaded report files are kept.
	Dir string

	// MaxBytes is the upload size cap.
	MaxBytes int64
}

// IngestConfig holds settings for the ingestion worker pool.
type IngestConfig struct {
	// Workers is the number of goroutines draining the ingest queue.
	Workers int

	// QueueSize is the capacity of the ingest job channel.
	QueueSize int
}

// LLMConfig holds text-completion provider settings.
type LLMConfig struct {
	// Provider selects the backend: mock, openai, anthropic or vllm.
	Provider string

	// Model is the model identifier passed to the provider.
	Model string

	// BaseURL overrides the provider endpoint (required for vllm).
	BaseURL string

	// OpenAIKey and AnthropicKey override the SDK's own env lookup.
	OpenAIKey    string
	AnthropicKey string

	// TimeoutSeconds is the per-call deadline.
	TimeoutSeconds int

	// MaxTokens caps the completion length.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64

	// RPS throttles provider calls; 0 disables the limiter.
	RPS float64

	// MaxRetries is how many times a failed provider call is retried
	// with exponential backoff. Off unless set: a timed-out or failed
	// call surfaces as a collaborator error on the first attempt.
	MaxRetries int
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DBPath:          getEnv("DUCKDB_PATH", "data/sales.duckdb"),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "EUR"),
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "data/uploads"),
			MaxBytes: int64(getEnvInt("UPLOAD_MAX_MB", 100)) * 1024 * 1024,
		},
		Ingest: IngestConfig{
			Workers:   getEnvInt("INGEST_WORKERS", 2),
			QueueSize: getEnvInt("INGEST_QUEUE_SIZE", 16),
		},
		LLM: LLMConfig{
			Provider:       getEnv("LLM_PROVIDER", "mock"),
			Model:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			BaseURL:        getEnv("LLM_BASE_URL", ""),
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
			TimeoutSeconds: getEnvInt("LLM_TIMEOUT_SECONDS", 60),
			MaxTokens:      getEnvInt("LLM_MAX_TOKENS", 800),
			Temperature:    getEnvFloat("LLM_TEMPERATURE", 0.2),
			RPS:            getEnvFloat("LLM_RPS", 2),
			MaxRetries:     getEnvInt("LLM_MAX_RETRIES", 0),
		},
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
