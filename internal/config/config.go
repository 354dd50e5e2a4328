package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	// Training inputs and artifacts
	MatchLogPath       string `env:"MATCH_LOG_PATH" envDefault:"match_log.csv"`
	TeamAttributesPath string `env:"TEAM_ATTRIBUTES_PATH" envDefault:"team_attributes.csv"`
	ArtifactDir        string `env:"ARTIFACT_DIR" envDefault:"artifacts"`

	// Feature schema
	FeatureSchema string  `env:"FEATURE_SCHEMA" envDefault:"v6"`
	SchemaFile    string  `env:"SCHEMA_FILE"`
	SmoothingK    float64 `env:"SMOOTHING_K"` // 0 means the schema default
	FormWindow    int     `env:"FORM_WINDOW"` // 0 means the schema default

	// Classifier
	NEstimators  int     `env:"N_ESTIMATORS" envDefault:"40"`
	MaxDepth     int     `env:"MAX_DEPTH" envDefault:"3"`
	LearningRate float64 `env:"LEARNING_RATE" envDefault:"0.05"`
	RegLambda    float64 `env:"REG_LAMBDA" envDefault:"15"`

	// Language model
	LLMAPIKey         string        `env:"GEMINI_API_KEY"`
	LLMBaseURL        string        `env:"LLM_BASE_URL"`
	LLMModel          string        `env:"LLM_MODEL" envDefault:"gemini-2.5-flash"`
	LLMTimeout        time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	LLMMaxRetries     int           `env:"LLM_MAX_RETRIES" envDefault:"3"`
	LLMRequestsPerSec int           `env:"LLM_REQUESTS_PER_SEC" envDefault:"2"`

	// HTTP server
	HTTPPort       int      `env:"HTTP_PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*"`

	// Optional collaborators
	RedisURL       string        `env:"REDIS_URL"`
	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL" envDefault:"6h"`
	DB             DBConfig

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// DBConfig holds PostgreSQL settings for the report history.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether a history database was configured.
func (d DBConfig) Enabled() bool {
	return d.Host != ""
}

// DefaultLLMBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.MatchLogPath = getEnvWithDefault("MATCH_LOG_PATH", "match_log.csv")
	cfg.TeamAttributesPath = getEnvWithDefault("TEAM_ATTRIBUTES_PATH", "team_attributes.csv")
	cfg.ArtifactDir = getEnvWithDefault("ARTIFACT_DIR", "artifacts")

	cfg.FeatureSchema = getEnvWithDefault("FEATURE_SCHEMA", "v6")
	cfg.SchemaFile = os.Getenv("SCHEMA_FILE")
	cfg.SmoothingK = getEnvFloatWithDefault("SMOOTHING_K", 0)
	cfg.FormWindow = getEnvIntWithDefault("FORM_WINDOW", 0)

	cfg.NEstimators = getEnvIntWithDefault("N_ESTIMATORS", 40)
	cfg.MaxDepth = getEnvIntWithDefault("MAX_DEPTH", 3)
	cfg.LearningRate = getEnvFloatWithDefault("LEARNING_RATE", 0.05)
	cfg.RegLambda = getEnvFloatWithDefault("REG_LAMBDA", 15)

	cfg.LLMAPIKey = os.Getenv("GEMINI_API_KEY")
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}
	cfg.LLMBaseURL = getEnvWithDefault("LLM_BASE_URL", DefaultLLMBaseURL)
	cfg.LLMModel = getEnvWithDefault("LLM_MODEL", "gemini-2.5-flash")
	cfg.LLMTimeout = getEnvDurationWithDefault("LLM_TIMEOUT", 30*time.Second)
	cfg.LLMMaxRetries = getEnvIntWithDefault("LLM_MAX_RETRIES", 3)
	cfg.LLMRequestsPerSec = getEnvIntWithDefault("LLM_REQUESTS_PER_SEC", 2)

	cfg.HTTPPort = getEnvIntWithDefault("HTTP_PORT", 8080)
	for _, o := range strings.Split(getEnvWithDefault("ALLOWED_ORIGINS", "*"), ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.ReportCacheTTL = getEnvDurationWithDefault("REPORT_CACHE_TTL", 6*time.Hour)
	cfg.DB = DBConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside training or serving.
func (c *Config) Validate() error {
	if c.SmoothingK < 0 || c.SmoothingK > 1 {
		return fmt.Errorf("SMOOTHING_K must be within [0,1], got %v", c.SmoothingK)
	}
	if c.FormWindow < 0 {
		return fmt.Errorf("FORM_WINDOW must not be negative, got %d", c.FormWindow)
	}
	if c.NEstimators <= 0 || c.MaxDepth <= 0 {
		return fmt.Errorf("N_ESTIMATORS and MAX_DEPTH must be positive")
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("LEARNING_RATE must be positive, got %v", c.LearningRate)
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must not be negative, got %d", c.LLMMaxRetries)
	}
	return nil
}

// ReportTimeout bounds a whole report request: every language model attempt
// plus room for the backoff between them.
func (c *Config) ReportTimeout() time.Duration {
	retries := c.LLMMaxRetries
	if retries < 0 {
		retries = 0
	}
	return c.LLMTimeout * time.Duration(retries+2)
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer, using default")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid float, using default")
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
	}
	return defaultValue
}
