package config

import (
	"path/filepath"

	"github.com/AzielCF/az-remind/pkg/clock"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Whatsapp   WhatsappConfig
	Scheduler  SchedulerConfig
	WorkerPool WorkerPoolConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	CorsAllowedOrigins []string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type WhatsappConfig struct {
	APIBaseURL    string
	PhoneNumberID string
	AccessToken   string
	VerifyToken   string
}

type SchedulerConfig struct {
	CronSecret             string
	Timezone               string
	FollowUpCooldown       int // minutes between initial send and earliest follow-up
	ConfirmationText       string
	DefaultFollowUpMessage string
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	appCfg := AppConfig{
		Version:            "v1.2.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              getEnvBool("APP_DEBUG", false),
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          getEnvList("APP_BASIC_AUTH"),
		BasePath:           getEnv("APP_BASE_PATH", ""),
		TrustedProxies:     getEnvList("APP_TRUSTED_PROXIES"),
		CorsAllowedOrigins: getEnvListDefault("APP_CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	dbCfg := DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Name:            getEnv("DB_NAME", filepath.Join(baseDir, "reminders.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azremind:"),
	}

	waCfg := WhatsappConfig{
		APIBaseURL:    getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v21.0"),
		PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		VerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
	}

	schedCfg := SchedulerConfig{
		CronSecret:             getEnv("CRON_SECRET", ""),
		Timezone:               getEnv("SCHEDULER_TIMEZONE", clock.DefaultTimezone),
		FollowUpCooldown:       getEnvInt("SCHEDULER_FOLLOWUP_COOLDOWN_MINUTES", 2),
		ConfirmationText:       getEnv("SCHEDULER_CONFIRMATION_TEXT", "Great! Marked as completed ✔"),
		DefaultFollowUpMessage: getEnv("SCHEDULER_DEFAULT_FOLLOWUP_MESSAGE", "Did you complete your habit?"),
	}

	cfg := &Config{
		App:       appCfg,
		Database:  dbCfg,
		Whatsapp:  waCfg,
		Scheduler: schedCfg,
		WorkerPool: WorkerPoolConfig{
			Size:      getEnvInt("MESSAGE_WORKER_POOL_SIZE", 20),
			QueueSize: getEnvInt("MESSAGE_WORKER_QUEUE_SIZE", 1000),
		},
	}

	Global = cfg
	return cfg, nil
}
