package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Vision   VisionConfig
	Cache    CacheConfig
	Queue    QueueConfig
	Inbox    InboxConfig
	LogLevel string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// OCRConfig holds text acquisition configuration
type OCRConfig struct {
	Tesseract     string
	Pdftoppm      string
	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int
	MinTextChars  int
	PSM           int
}

// VisionConfig selects and configures the AI vision provider.
type VisionConfig struct {
	Provider        string // openai | anthropic | gemini | none
	Model           string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	GeminiAPIKey    string
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
}

// CacheConfig configures the vision answer cache. Empty RedisAddr uses memory.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	Disabled      bool
}

// QueueConfig sizes the worker pool.
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// InboxConfig drives the daemon's directory watcher.
type InboxConfig struct {
	Dir         string
	ProfileName string
	InitialScan bool
	Debounce    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 10),
			MinTextChars:  getEnvAsInt("OCR_MIN_TEXT_CHARS", 100),
			PSM:           getEnvAsInt("OCR_PSM", 0),
		},
		Vision: VisionConfig{
			Provider:        strings.ToLower(getEnv("VISION_PROVIDER", "openai")),
			Model:           getEnv("VISION_MODEL", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			Temperature:     getEnvAsFloat32("VISION_TEMPERATURE", 0.1),
			MaxTokens:       getEnvAsInt("VISION_MAX_TOKENS", 1000),
			Timeout:         getEnvAsDuration("VISION_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			TTL:           getEnvAsDuration("VISION_CACHE_TTL", 24*time.Hour),
			Disabled:      getEnvAsBool("VISION_CACHE_DISABLED", false),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("WORKERS", 4),
			Size:           getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
		Inbox: InboxConfig{
			Dir:         getEnv("INBOX_DIR", ""),
			ProfileName: getEnv("INBOX_PROFILE", "Inbox"),
			InitialScan: getEnvAsBool("INBOX_INITIAL_SCAN", true),
			Debounce:    getEnvAsDuration("INBOX_DEBOUNCE", 500*time.Millisecond),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// VisionAPIKey returns the key for the configured provider.
func (c VisionConfig) VisionAPIKey() string {
	switch c.Provider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	case "openai", "":
		return c.OpenAIAPIKey
	}
	return ""
}

// Validate checks the loaded configuration. A database is only required when
// requireDB is set; vision credentials are optional (vision is then disabled).
func (c *Config) Validate(requireDB bool) error {
	if requireDB && c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	switch c.Vision.Provider {
	case "openai", "anthropic", "gemini", "none", "":
	default:
		return NewAppError("CONFIG_ERROR", "VISION_PROVIDER must be one of openai, anthropic, gemini, none", ErrInvalidInput)
	}
	if c.OCR.MinTextChars < 0 {
		return NewAppError("CONFIG_ERROR", "OCR_MIN_TEXT_CHARS must not be negative", ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
