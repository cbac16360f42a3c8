// Package config loads the server configuration from the environment and
// fails fast on missing payment credentials.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	MigrationsDirPath string

	RedisAddr    string
	KafkaBrokers []string

	MercadoPagoBaseURL       string
	MercadoPagoAccessToken   string
	MercadoPagoWebhookSecret string
	MercadoPagoTimeout       time.Duration

	FrontendURL string
	BackendURL  string

	AdminToken     string
	PhotographerID uuid.UUID

	StorageDir     string
	StorageBaseURL string

	Production bool
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		DBHost:            getEnv("DB_HOST", "localhost"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "fotoventa"),
		MigrationsDirPath: getEnv("MIGRATIONS_DIR", "./migrations"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		MercadoPagoBaseURL:       getEnv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
		MercadoPagoAccessToken:   os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		MercadoPagoWebhookSecret: os.Getenv("MERCADOPAGO_WEBHOOK_SECRET"),
		MercadoPagoTimeout:       10 * time.Second,

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),

		AdminToken: os.Getenv("ADMIN_TOKEN"),

		StorageDir:     getEnv("STORAGE_DIR", "./data/photos"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),

		Production: getEnv("APP_ENV", "development") == "production",
	}

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.DBPort = port

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.MercadoPagoAccessToken == "" {
		return nil, fmt.Errorf("MERCADOPAGO_ACCESS_TOKEN is not set")
	}
	if cfg.MercadoPagoWebhookSecret == "" {
		return nil, fmt.Errorf("MERCADOPAGO_WEBHOOK_SECRET is not set")
	}
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("ADMIN_TOKEN is not set")
	}

	photographerID, err := uuid.Parse(getEnv("PHOTOGRAPHER_ID", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid PHOTOGRAPHER_ID: %w", err)
	}
	cfg.PhotographerID = photographerID

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
