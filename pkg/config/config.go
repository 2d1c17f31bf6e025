package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Auth     AuthConfig
	Session  SessionConfig
	Recovery RecoveryConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AuthConfig struct {
	JWTSecret  string
	CookieName string
	CookieTTL  time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type RecoveryConfig struct {
	CodeSends      int
	CodeSendWindow time.Duration
	VerifyAttempts int
}

type EmailConfig struct {
	MailerSendKey string
	FromName      string
	FromEmail     string
	DevMode       bool // print emails to logs instead of sending
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Upstream: UpstreamConfig{
			BaseURL: getEnv("UPSTREAM_API_URL", "http://localhost:8081"),
			Timeout: getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "dev-only-secret-change-in-prod"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "kindify_session"),
			CookieTTL:  getDuration("SESSION_COOKIE_TTL", 12*time.Hour),
		},
		Session: SessionConfig{
			TTL:           getDuration("SESSION_TTL", 12*time.Hour),
			SweepInterval: getDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Recovery: RecoveryConfig{
			CodeSends:      getInt("RECOVERY_CODE_SENDS", 5),
			CodeSendWindow: getDuration("RECOVERY_CODE_SEND_WINDOW", 15*time.Minute),
			VerifyAttempts: getInt("RECOVERY_VERIFY_ATTEMPTS", 10),
		},
		Email: EmailConfig{
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
			FromName:      getEnv("EMAIL_FROM_NAME", "Kindify"),
			FromEmail:     getEnv("EMAIL_FROM", "noreply@kindify.local"),
			DevMode:       getBool("EMAIL_DEV_MODE", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
