package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	NotifierNone  = "none"
	NotifierSMTP  = "smtp"
	NotifierGmail = "gmail"
)

type Config struct {
	Addr               string        `yaml:"app_addr"`
	Environment        string        `yaml:"app_env"`
	LogLevel           string        `yaml:"log_level"`
	StoreDriver        string        `yaml:"store_driver"`
	DatabaseURL        string        `yaml:"database_url"`
	SQLitePath         string        `yaml:"sqlite_path"`
	RunMigrations      bool          `yaml:"run_migrations"`
	JWTSecret          string        `yaml:"jwt_secret"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	DataEncryptionKey  string        `yaml:"data_encryption_key"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	Notifier           string        `yaml:"notifier"`
	EmailFrom          string        `yaml:"email_from"`
	SMTPHost           string        `yaml:"smtp_host"`
	SMTPPort           int           `yaml:"smtp_port"`
	SMTPUser           string        `yaml:"smtp_user"`
	SMTPPassword       string        `yaml:"smtp_password"`
	SMTPUseTLS         bool          `yaml:"smtp_use_tls"`
	GoogleClientID     string        `yaml:"google_client_id"`
	GoogleClientSecret string        `yaml:"google_client_secret"`
	CalendarID         string        `yaml:"calendar_id"`
	JobQueueSize       int           `yaml:"job_queue_size"`
	JobWorkers         int           `yaml:"job_workers"`
	SideEffectTimeout  time.Duration `yaml:"side_effect_timeout"`
	ProvisionInterval  time.Duration `yaml:"provision_interval"`
	MetricsEnabled     bool          `yaml:"metrics_enabled"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"`
}

func Defaults() Config {
	return Config{
		Addr:               ":8080",
		Environment:        "development",
		LogLevel:           "info",
		StoreDriver:        StorePostgres,
		SQLitePath:         "holidayhub.db",
		RunMigrations:      true,
		SessionTTL:         7 * 24 * time.Hour,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		Notifier:           NotifierNone,
		EmailFrom:          "no-reply@example.com",
		SMTPPort:           587,
		SMTPUseTLS:         true,
		CalendarID:         "primary",
		JobQueueSize:       128,
		JobWorkers:         2,
		SideEffectTimeout:  30 * time.Second,
		ProvisionInterval:  24 * time.Hour,
		MetricsEnabled:     true,
		MaxBodyBytes:       1048576,
	}
}

// Load starts from Defaults, applies the YAML file named by CONFIG_FILE if
// set, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("APP_ADDR", c.Addr)
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.RunMigrations = getEnvBool("RUN_MIGRATIONS", c.RunMigrations)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.DataEncryptionKey = getEnv("DATA_ENCRYPTION_KEY", c.DataEncryptionKey)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)
	c.Notifier = getEnv("NOTIFIER", c.Notifier)
	c.EmailFrom = getEnv("EMAIL_FROM", c.EmailFrom)
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUser = getEnv("SMTP_USER", c.SMTPUser)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.SMTPUseTLS = getEnvBool("SMTP_USE_TLS", c.SMTPUseTLS)
	c.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", c.GoogleClientID)
	c.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.GoogleClientSecret)
	c.CalendarID = getEnv("CALENDAR_ID", c.CalendarID)
	c.JobQueueSize = getEnvInt("JOB_QUEUE_SIZE", c.JobQueueSize)
	c.JobWorkers = getEnvInt("JOB_WORKERS", c.JobWorkers)
	c.SideEffectTimeout = getEnvDuration("SIDE_EFFECT_TIMEOUT", c.SideEffectTimeout)
	c.ProvisionInterval = getEnvDuration("PROVISION_INTERVAL", c.ProvisionInterval)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
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

func getEnvInt(key string, fallback int) int {
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER is sqlite")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of postgres, sqlite, memory")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.StoreDriver == StoreMemory {
			return fmt.Errorf("STORE_DRIVER memory is not allowed in production")
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	switch c.Notifier {
	case NotifierNone:
	case NotifierSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST must be set when NOTIFIER is smtp")
		}
	case NotifierGmail:
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set when NOTIFIER is gmail")
		}
	default:
		return fmt.Errorf("NOTIFIER must be one of none, smtp, gmail")
	}
	if c.JobWorkers <= 0 || c.JobQueueSize <= 0 {
		return fmt.Errorf("JOB_WORKERS and JOB_QUEUE_SIZE must be positive")
	}
	return nil
}

// GoogleEnabled reports whether calendar sync and Gmail can be wired.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
