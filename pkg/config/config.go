package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	Port        string
	Env         string // development, staging, production

	// Database performance settings
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime int // minutes
	DBReadTimeout     time.Duration
	DBWriteTimeout    time.Duration
	DBAutoMigrate     bool // apply the embedded schema at startup

	// External services
	GoogleMapsAPIKey string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAITimeout    time.Duration
	ScreeningEnabled bool
	PromptDir        string // optional directory of *.txt.tmpl overrides

	// Duplicate detection thresholds
	DuplicateNameThreshold  float64
	DuplicateDistanceMeters float64

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"
	LogOutput string

	// Admin IP map for moderation endpoints
	AdminsYAMLPath string

	// Debug server (metrics copy, runtime stats, pprof); empty port disables it
	DebugPort        string
	ProfilingEnabled bool
}

func Load() *Config {
	dbMaxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	dbMaxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "10"))
	dbConnMaxLifetime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_LIFETIME_MINUTES", "10"))
	dbReadTO, _ := time.ParseDuration(getEnv("DB_READ_TIMEOUT", "5s"))
	dbWriteTO, _ := time.ParseDuration(getEnv("DB_WRITE_TIMEOUT", "5s"))
	dbAutoMigrate, _ := strconv.ParseBool(getEnv("DB_AUTO_MIGRATE", "false"))

	openAITimeout, _ := time.ParseDuration(getEnv("OPENAI_TIMEOUT", "20s"))
	openAIKey := getEnv("OPENAI_API_KEY", "")
	// Screening defaults on only when a key is present
	screening, _ := strconv.ParseBool(getEnv("SCREENING_ENABLED", strconv.FormatBool(openAIKey != "")))

	profiling, _ := strconv.ParseBool(getEnv("PROFILING_ENABLED", "false"))

	nameThreshold, _ := strconv.ParseFloat(getEnv("DUPLICATE_NAME_THRESHOLD", "0.7"), 64)
	distanceMeters, _ := strconv.ParseFloat(getEnv("DUPLICATE_DISTANCE_METERS", "100"), 64)

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		Port:              getEnv("PORT", "8080"),
		Env:               strings.ToLower(getEnv("ENV", "development")),
		DBMaxOpenConns:    dbMaxOpenConns,
		DBMaxIdleConns:    dbMaxIdleConns,
		DBConnMaxLifetime: dbConnMaxLifetime,
		DBReadTimeout:     dbReadTO,
		DBWriteTimeout:    dbWriteTO,
		DBAutoMigrate:     dbAutoMigrate,

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		OpenAIAPIKey:     openAIKey,
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout:    openAITimeout,
		ScreeningEnabled: screening,
		PromptDir:        getEnv("PROMPT_DIR", ""),

		DuplicateNameThreshold:  nameThreshold,
		DuplicateDistanceMeters: distanceMeters,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogOutput: getEnv("LOG_OUTPUT", "stdout"),

		AdminsYAMLPath: getEnv("ADMINS_YAML_PATH", "admins.yaml"),

		DebugPort:        getEnv("DEBUG_PORT", ""),
		ProfilingEnabled: profiling,
	}

	if cfg.ScreeningEnabled && cfg.OpenAIAPIKey == "" {
		log.Printf("[Warning] SCREENING_ENABLED set without OPENAI_API_KEY, screening disabled")
		cfg.ScreeningEnabled = false
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
