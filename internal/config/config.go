package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	SiteTimezone  string

	// Wizard sessions
	SessionBackend string // "memory" or "redis"
	SessionTTL     time.Duration
	CookieSecure   bool

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Intake hand-off
	DatabaseURL          string
	IntakeQueueURL       string
	UseMemoryQueue       bool
	IntakeArchiveBucket  string
	IntakeNotifyEmail    string
	IntakeThrottleMax    int
	IntakeThrottleWindow time.Duration

	// Public form rate limit (per IP)
	FormRatePerSecond float64
	FormRateBurst     int
	// APIRatePerMinute caps all /api requests per IP; zero disables it.
	APIRatePerMinute int

	// Intake worker pool size for the in-process and standalone worker.
	IntakeWorkerCount int

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Email: SendGrid wins when an API key is set, then SES, then the stub sender.
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESConfigSet      string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SiteTimezone:  getEnv("SITE_TIMEZONE", "America/Denver"),

		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		CookieSecure:   getEnvAsBool("COOKIE_SECURE", false),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		DatabaseURL:          getEnv("DATABASE_URL", ""),
		IntakeQueueURL:       getEnv("INTAKE_QUEUE_URL", ""),
		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", true),
		IntakeArchiveBucket:  getEnv("INTAKE_ARCHIVE_BUCKET", ""),
		IntakeNotifyEmail:    getEnv("INTAKE_NOTIFY_EMAIL", "info@cappsac.com"),
		IntakeThrottleMax:    getEnvAsInt("INTAKE_THROTTLE_MAX", 5),
		IntakeThrottleWindow: getEnvAsDuration("INTAKE_THROTTLE_WINDOW", time.Hour),

		FormRatePerSecond: getEnvAsFloat("FORM_RATE_PER_SECOND", 1),
		FormRateBurst:     getEnvAsInt("FORM_RATE_BURST", 10),
		APIRatePerMinute:  getEnvAsInt("API_RATE_PER_MINUTE", 120),
		IntakeWorkerCount: getEnvAsInt("INTAKE_WORKER_COUNT", 2),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Capps Heating & Air"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESConfigSet:      getEnv("SES_CONFIGURATION_SET", ""),
	}
}

// UsesRedisSessions reports whether wizard sessions should be kept in Redis.
func (c *Config) UsesRedisSessions() bool {
	return c.SessionBackend == "redis"
}

// NeedsAWS reports whether any AWS-backed component is configured.
func (c *Config) NeedsAWS() bool {
	if c.IntakeArchiveBucket != "" {
		return true
	}
	if !c.UseMemoryQueue && c.IntakeQueueURL != "" {
		return true
	}
	return c.EmailProvider == "ses"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
