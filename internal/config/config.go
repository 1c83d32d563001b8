package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret string

	// Base URL used when building absolute deep links in notification mail.
	BaseURL string

	RequestTimeout   time.Duration
	DueSoonSweep     time.Duration
	ArchivePurge     time.Duration
	ReportRatePerMin int

	SMTP SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnvOrPanic("JWT_SECRET"),

		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		RequestTimeout:   getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DueSoonSweep:     getDuration("DUE_SOON_SWEEP", 15*time.Minute),
		ArchivePurge:     getDuration("ARCHIVE_PURGE", 24*time.Hour),
		ReportRatePerMin: getInt("REPORT_RATE_PER_MIN", 30),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
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

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		n := 0
		for _, r := range value {
			if r < '0' || r > '9' {
				return fallback
			}
			n = n*10 + int(r-'0')
		}
		if n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
