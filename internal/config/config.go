package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port          string        `toml:"port"`
	Store         string        `toml:"store"`
	SQLitePath    string        `toml:"sqlite_path"`
	DatabaseURL   string        `toml:"database_url"`
	RedisURL      string        `toml:"redis_url"`
	AIServiceURL  string        `toml:"ai_service_url"`
	AIRatePerSec  float64       `toml:"ai_rate_per_sec"`
	AILanguage    string        `toml:"ai_language"`
	AuthSecret    string        `toml:"auth_secret"`
	PDFEngine     string        `toml:"pdf_engine"`
	ChromePath    string        `toml:"chrome_path"`
	ExportTimeout time.Duration `toml:"-"`
	RenderStrict  bool          `toml:"render_strict"`
	LogLevel      string        `toml:"log_level"`
	LogFormat     string        `toml:"log_format"`

	ExportTimeoutSeconds int `toml:"export_timeout_seconds"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                 "3000",
		Store:                "sqlite",
		SQLitePath:           "cv-data.db",
		RedisURL:             "redis://localhost:6379/0",
		AIServiceURL:         "http://ai-service:8000",
		AIRatePerSec:         2,
		PDFEngine:            "native",
		ExportTimeoutSeconds: 30,
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Load reads the TOML file named by CV_CONFIG, if any, over the defaults and
// then applies environment variables on top.
func Load() (Config, error) {
	c := Defaults()
	if path := os.Getenv("CV_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	c.Port = getenv("PORT", c.Port)
	c.Store = getenv("CV_STORE", c.Store)
	c.SQLitePath = getenv("CV_SQLITE_PATH", c.SQLitePath)
	c.DatabaseURL = getenv("CV_DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getenv("CV_REDIS_URL", c.RedisURL)
	c.AIServiceURL = getenv("AI_SERVICE_URL", c.AIServiceURL)
	c.AIRatePerSec = getenvFloat("AI_RATE_PER_SEC", c.AIRatePerSec)
	c.AILanguage = getenv("AI_LANGUAGE", c.AILanguage)
	c.AuthSecret = getenv("AUTH_SECRET", c.AuthSecret)
	c.PDFEngine = getenv("PDF_ENGINE", c.PDFEngine)
	c.ChromePath = getenv("CHROME_PATH", c.ChromePath)
	c.ExportTimeoutSeconds = getenvInt("EXPORT_TIMEOUT_SECONDS", c.ExportTimeoutSeconds)
	c.RenderStrict = getenvBool("RENDER_STRICT", c.RenderStrict)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenv("LOG_FORMAT", c.LogFormat)

	c.ExportTimeout = time.Duration(c.ExportTimeoutSeconds) * time.Second
	switch c.Store {
	case "sqlite", "postgres", "redis", "memory":
	default:
		return c, fmt.Errorf("unknown CV_STORE %q", c.Store)
	}
	switch c.PDFEngine {
	case "native", "chromium":
	default:
		return c, fmt.Errorf("unknown PDF_ENGINE %q", c.PDFEngine)
	}
	return c, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
