package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	Port               string
	DBConn             string
	LogLevel           string
	JWTSecret          string
	LenderPasswordHash string
	CBRURL             string
	RecomputeSchedule  string
	StatementSchedule  string
	SMTPHost           string
	SMTPPort           string
	SMTPUsername       string
	SMTPPassword       string
	SenderEmail        string
	LenderEmail        string
}

// NewConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DBConn:             getEnv("DB_CONN", ""),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		LenderPasswordHash: getEnv("LENDER_PASSWORD_HASH", ""),
		CBRURL:             getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		RecomputeSchedule:  getEnv("RECOMPUTE_SCHEDULE", "@hourly"),
		StatementSchedule:  getEnv("STATEMENT_SCHEDULE", "0 8 1 * *"),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnv("SMTP_PORT", "587"),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SenderEmail:        getEnv("SENDER_EMAIL", ""),
		LenderEmail:        getEnv("LENDER_EMAIL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and cron expressions
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := cron.ParseStandard(c.RecomputeSchedule); err != nil {
		return fmt.Errorf("invalid RECOMPUTE_SCHEDULE: %w", err)
	}
	if _, err := cron.ParseStandard(c.StatementSchedule); err != nil {
		return fmt.Errorf("invalid STATEMENT_SCHEDULE: %w", err)
	}
	return nil
}

// MailEnabled reports whether statement e-mails can be sent
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SenderEmail != "" && c.LenderEmail != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
