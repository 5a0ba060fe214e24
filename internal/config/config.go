package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	TranslationTimeout time.Duration
	MaxRequestBodySize int64

	SourceLanguage string
	TargetLanguage string
	AutoCrop       bool
	CropStride     int
	CropThreshold  int

	TesseractLanguages []string
	TranslationWorkers int
	RunPolicy          string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	RedisURL string
	CacheTTL time.Duration

	AzureStorageAccount string
	AzureStorageKey     string
	AllowedImageHosts   []string

	BackgroundOpacity float64
	FontScale         float64

	LogLevel string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob credentials were supplied
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// LoadFromEnv reads the configuration from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables take precedence.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		TranslationTimeout: parseDurationOrDefault("TRANSLATION_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		SourceLanguage: getEnvOrDefault("SOURCE_LANGUAGE", "en"),
		TargetLanguage: getEnvOrDefault("TARGET_LANGUAGE", "it"),
		AutoCrop:       parseBoolOrDefault("AUTO_CROP", false),
		CropStride:     int(parseIntOrDefault("CROP_STRIDE", 10)),
		CropThreshold:  int(parseIntOrDefault("CROP_THRESHOLD", 40)),

		TesseractLanguages: parseListOrDefault("TESSERACT_LANGUAGES", []string{"eng"}),
		TranslationWorkers: int(parseIntOrDefault("TRANSLATION_WORKERS", 1)),
		RunPolicy:          strings.ToLower(getEnvOrDefault("RUN_POLICY", "queue")),

		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMModel:   getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),

		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: parseDurationOrDefault("CACHE_TTL", 24*time.Hour),

		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
		AllowedImageHosts:   parseListOrDefault("ALLOWED_IMAGE_HOSTS", nil),

		BackgroundOpacity: parseFloatOrDefault("BACKGROUND_OPACITY", 0.8),
		FontScale:         parseFloatOrDefault("FONT_SCALE", 1.0),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.TranslationTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, translation=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.TranslationTimeout)
	}
	if c.CropStride < 1 {
		return fmt.Errorf("CROP_STRIDE must be >= 1 (got %d)", c.CropStride)
	}
	if c.CropThreshold < 1 || c.CropThreshold > 255 {
		return fmt.Errorf("CROP_THRESHOLD must be in 1..255 (got %d)", c.CropThreshold)
	}
	if c.TranslationWorkers < 1 {
		return fmt.Errorf("TRANSLATION_WORKERS must be >= 1 (got %d)", c.TranslationWorkers)
	}
	if c.RunPolicy != "queue" && c.RunPolicy != "supersede" {
		return fmt.Errorf("RUN_POLICY must be queue or supersede (got %q)", c.RunPolicy)
	}
	if c.BackgroundOpacity < 0 || c.BackgroundOpacity > 1 {
		return fmt.Errorf("BACKGROUND_OPACITY must be in [0, 1] (got %g)", c.BackgroundOpacity)
	}
	if c.FontScale <= 0 {
		return fmt.Errorf("FONT_SCALE must be > 0 (got %g)", c.FontScale)
	}
	if len(c.TesseractLanguages) == 0 {
		return fmt.Errorf("TESSERACT_LANGUAGES cannot be empty")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// parseListOrDefault splits on '+' or ',' so both tesseract style
// (eng+ita) and comma lists work
func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == '+' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
