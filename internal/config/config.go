package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN                string
	Environment          string
	MigrationsPath       string
	AMQPURL              string // empty disables event publishing
	AutoApproveAfter     time.Duration
	AutoApprovePollEvery time.Duration
}

func Load() (*Config, error) {
	// Load .env when present; plain environment variables otherwise.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    os.Getenv("ENV"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		AMQPURL:        os.Getenv("AMQP_URL"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	hours, err := envInt("AUTO_APPROVE_AFTER_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.AutoApproveAfter = time.Duration(hours) * time.Hour

	minutes, err := envInt("AUTO_APPROVE_POLL_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	cfg.AutoApprovePollEvery = time.Duration(minutes) * time.Minute

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

func envInt(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return v, nil
}
