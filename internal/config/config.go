// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fintx-engine/pkg/db" // Import db package for its Config struct

	"github.com/joho/godotenv"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string

	// StorageBackend selects the repository implementations: "memory"
	// (reference store) or "postgres".
	StorageBackend string
	DB             db.Config

	QueueWorkers   int
	QueueCapacity  int
	JobMaxAttempts int

	LockTTL time.Duration
	// RedisAddr, when set, switches the lock manager to Redis.
	RedisAddr string

	// KafkaBrokers, when non-empty, enables the completion event publisher.
	KafkaBrokers []string
}

// LoadConfig loads configuration from environment variables, after loading a
// local .env file when one is present.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load() // Missing .env is fine; env vars win anyway

	cfg := &AppConfig{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		StorageBackend: getEnv("STORAGE_BACKEND", "memory"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
	}

	switch cfg.StorageBackend {
	case "memory", "postgres":
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	var err error
	if cfg.QueueWorkers, err = getEnvInt("QUEUE_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.QueueCapacity, err = getEnvInt("QUEUE_CAPACITY", 256); err != nil {
		return nil, err
	}
	if cfg.JobMaxAttempts, err = getEnvInt("JOB_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}

	lockTTLSecs, err := getEnvInt("LOCK_TTL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.LockTTL = time.Duration(lockTTLSecs) * time.Second

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	cfg.DB = db.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "user"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "fintxdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
