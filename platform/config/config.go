// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq-backed scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetCampaignTickCron() string
	GetDueCallPollInterval() time.Duration
}

// VoiceProviderConfig provides settings for the external voice-AI provider.
type VoiceProviderConfig interface {
	GetVoiceAPIBaseURL() string
	GetVoiceAPIKey() string
	GetVoiceAPITimeout() time.Duration
	GetVoiceDispatchPerSecond() float64
	GetVoiceDispatchBurst() int
}

// WebhookConfig provides settings for inbound provider webhooks.
type WebhookConfig interface {
	GetWebhookSigningSecret() string
}

// DialerConfig provides settings for the call dispatcher.
type DialerConfig interface {
	GetDefaultFromNumber() string
	GetDefaultAgentID() string
	// GetDispatchDefaultMode is "immediate" or "deferred" and controls what a
	// batch trigger without an explicit start time does.
	GetDispatchDefaultMode() string
}

// JobTimeConfig provides the display/storage time conversion boundary.
type JobTimeConfig interface {
	// GetJobTimeStorageOffset is the fixed offset added to a displayed
	// wall-clock time to obtain the stored time.
	GetJobTimeStorageOffset() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	CampaignTickCron       string
	DueCallPollInterval    time.Duration
	VoiceAPIBaseURL        string
	VoiceAPIKey            string
	VoiceAPITimeout        time.Duration
	VoiceDispatchPerSecond float64
	VoiceDispatchBurst     int
	WebhookSigningSecret   string
	DefaultFromNumber      string
	DefaultAgentID         string
	DispatchDefaultMode    string
	JobTimeStorageOffset   time.Duration
}

// Load reads configuration from the environment, loading .env first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		CORSAllowAll:           getBoolEnv("CORS_ALLOW_ALL", false),
		CORSOrigins:            getListEnv("CORS_ORIGINS"),
		CORSAllowCreds:         getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:       getBoolEnv("REDIS_TLS_INSECURE", false),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "dialer"),
		AsynqConcurrency:       getIntEnv("ASYNQ_CONCURRENCY", 10),
		CampaignTickCron:       getEnv("CAMPAIGN_TICK_CRON", "@every 1m"),
		DueCallPollInterval:    getDurationEnv("DUE_CALL_POLL_INTERVAL", 30*time.Second),
		VoiceAPIBaseURL:        getEnv("VOICE_API_BASE_URL", "https://api.voice.example.com"),
		VoiceAPIKey:            os.Getenv("VOICE_API_KEY"),
		VoiceAPITimeout:        getDurationEnv("VOICE_API_TIMEOUT", 15*time.Second),
		VoiceDispatchPerSecond: getFloatEnv("VOICE_DISPATCH_PER_SECOND", 2),
		VoiceDispatchBurst:     getIntEnv("VOICE_DISPATCH_BURST", 5),
		WebhookSigningSecret:   os.Getenv("WEBHOOK_SIGNING_SECRET"),
		DefaultFromNumber:      os.Getenv("DEFAULT_FROM_NUMBER"),
		DefaultAgentID:         os.Getenv("DEFAULT_AGENT_ID"),
		DispatchDefaultMode:    getEnv("DISPATCH_DEFAULT_MODE", "immediate"),
		JobTimeStorageOffset:   time.Duration(getIntEnv("JOB_TIME_STORAGE_OFFSET_MIN", 240)) * time.Minute,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DispatchDefaultMode != "immediate" && cfg.DispatchDefaultMode != "deferred" {
		return nil, fmt.Errorf("DISPATCH_DEFAULT_MODE must be immediate or deferred, got %q", cfg.DispatchDefaultMode)
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetRedisURL() string                   { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool             { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string             { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int              { return c.AsynqConcurrency }
func (c *Config) GetCampaignTickCron() string           { return c.CampaignTickCron }
func (c *Config) GetDueCallPollInterval() time.Duration { return c.DueCallPollInterval }

func (c *Config) GetVoiceAPIBaseURL() string         { return c.VoiceAPIBaseURL }
func (c *Config) GetVoiceAPIKey() string             { return c.VoiceAPIKey }
func (c *Config) GetVoiceAPITimeout() time.Duration  { return c.VoiceAPITimeout }
func (c *Config) GetVoiceDispatchPerSecond() float64 { return c.VoiceDispatchPerSecond }
func (c *Config) GetVoiceDispatchBurst() int         { return c.VoiceDispatchBurst }

func (c *Config) GetWebhookSigningSecret() string { return c.WebhookSigningSecret }

func (c *Config) GetDefaultFromNumber() string   { return c.DefaultFromNumber }
func (c *Config) GetDefaultAgentID() string      { return c.DefaultAgentID }
func (c *Config) GetDispatchDefaultMode() string { return c.DispatchDefaultMode }

func (c *Config) GetJobTimeStorageOffset() time.Duration { return c.JobTimeStorageOffset }

// =============================================================================
// Env helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloatEnv(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
