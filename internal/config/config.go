package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sentitrack/sentitrack/internal/timewindow"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Data store configuration
	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string

	// Authentication
	JWTSecret string

	// Brand context cache
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	BrandContextTTL time.Duration

	// Generative language service
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Mention collection job
	EnableCollection   bool
	CollectionSchedule string
	CollectionLookback time.Duration
	RedditClientID     string
	RedditClientSecret string

	// Post analysis job
	EnableAnalysis    bool
	AnalysisSchedule  string
	AnalysisBatchSize int

	// Digest job
	EnableDigest    bool
	ReportSchedule  string // "daily" or "weekly"
	DigestPeriod    string
	DigestRetention int

	// Digest archive: Azure Blob Storage when an account is set, else a local directory
	StorageAccount   string
	StorageContainer string
	DigestDir        string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return load(true)
}

// LoadForTools loads configuration for the command line tools, which do not
// verify tokens and so do not need JWT_SECRET.
func LoadForTools() (*Config, error) {
	return load(false)
}

func load(requireAuth bool) (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getIntEnv("REDIS_DB", 0),
		BrandContextTTL: getDurationEnv("BRAND_CONTEXT_TTL", 30*time.Minute),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),

		EnableCollection:   getBoolEnv("ENABLE_COLLECTION", false),
		CollectionSchedule: getEnv("COLLECTION_SCHEDULE", "0 5 * * * *"),
		CollectionLookback: getDurationEnv("COLLECTION_LOOKBACK", 24*time.Hour),
		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),

		EnableAnalysis:    getBoolEnv("ENABLE_ANALYSIS", true),
		AnalysisSchedule:  getEnv("ANALYSIS_SCHEDULE", "0 */15 * * * *"),
		AnalysisBatchSize: getIntEnv("ANALYSIS_BATCH_SIZE", 50),

		EnableDigest:    getBoolEnv("ENABLE_DIGEST", false),
		ReportSchedule:  getEnv("REPORT_SCHEDULE", "weekly"),
		DigestPeriod:    getEnv("DIGEST_PERIOD", string(timewindow.LastWeek)),
		DigestRetention: getIntEnv("DIGEST_RETENTION", 30),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "digests"),
		DigestDir:        getEnv("DIGEST_DIR", ""),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(requireAuth); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate(requireAuth bool) error {
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		return fmt.Errorf("DATABASE_DRIVER must be 'postgres' or 'sqlite'")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if requireAuth && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily' or 'weekly'")
	}

	if !timewindow.IsKnown(c.DigestPeriod) {
		return fmt.Errorf("DIGEST_PERIOD must be one of %s", strings.Join(timewindow.Names(), ", "))
	}

	if c.CollectionLookback <= 0 {
		return fmt.Errorf("COLLECTION_LOOKBACK must be positive")
	}

	if c.AnalysisBatchSize <= 0 {
		return fmt.Errorf("ANALYSIS_BATCH_SIZE must be positive")
	}

	if c.EnableDigest && !c.HasNotificationChannel() {
		return fmt.Errorf("at least one notification method must be configured when ENABLE_DIGEST is set (TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL)")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// HasNotificationChannel reports whether Teams or email delivery is configured.
func (c *Config) HasNotificationChannel() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
