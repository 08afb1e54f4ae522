package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	AppEnv              string
	Port                string
	LogLevel            string
	FrontendURL         string
	AdminUsername       string
	AdminPassword       string
	AdminEmail          string
	JWTSecret           string
	DatabasePath        string
	QuoteAPIBaseURL     string
	QuoteAPIKey         string
	SendGridAPIKey      string
	AlertEmailFrom      string
	AlertEmailTo        string
	EnableScheduler     bool
	QuoteRefreshMinutes int
	RiskCheckMinutes    int
}

// Load reads configuration from environment variables
func Load() *Config {
	enableScheduler := os.Getenv("ENABLE_SCHEDULER") == "true"

	return &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		AdminUsername:       getEnv("ADMIN_USERNAME", "arkline"),
		AdminPassword:       getEnv("ADMIN_PASSWORD", "defaultPasswordLaterProvided"),
		AdminEmail:          os.Getenv("ADMIN_EMAIL"),
		JWTSecret:           getEnv("JWT_SECRET", "change-this-secret-in-production"),
		DatabasePath:        getEnv("DATABASE_PATH", "./data/arkline.db"),
		QuoteAPIBaseURL:     getEnv("QUOTE_API_BASE_URL", "https://api.arkline.app/market"),
		QuoteAPIKey:         os.Getenv("QUOTE_API_KEY"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		AlertEmailFrom:      os.Getenv("ALERT_EMAIL_FROM"),
		AlertEmailTo:        os.Getenv("ALERT_EMAIL_TO"),
		EnableScheduler:     enableScheduler,
		QuoteRefreshMinutes: getEnvInt("QUOTE_REFRESH_MINUTES", 15),
		RiskCheckMinutes:    getEnvInt("RISK_CHECK_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
