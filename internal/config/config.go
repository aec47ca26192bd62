package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	AppEnv   string
	HTTPPort string
	Secret   string
	TokenTTL time.Duration

	Database DatabaseConfig
	Logger   LoggerConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Storage  StorageConfig

	Currency          string
	LowStockThreshold int64
	ExpiryWindowDays  int
	CORSOrigins       []string
}

type DatabaseConfig struct {
	Driver       string // sqlite or postgres
	DSN          string
	MaxOpenConns int
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

// RedisConfig is optional; an empty Addr keeps revoked tokens in process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig is optional; no brokers disables event publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type StorageConfig struct {
	Dir       string
	PublicURL string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	cfg := Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Secret:   getEnv("SECRET", "dev_secret"),
		TokenTTL: getEnvDuration("TOKEN_TTL", 24*time.Hour),
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
			DSN:          os.Getenv("DATABASE_DSN"),
			MaxOpenConns: getEnvInt("DATABASE_MAX_OPEN_CONNS", 8),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "json"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "medstore.events"),
		},
		Storage: StorageConfig{
			Dir:       getEnv("STORAGE_DIR", "storage"),
			PublicURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", "http://localhost:8080/storage"), "/"),
		},
		Currency:          strings.ToUpper(getEnv("CURRENCY", "INR")),
		LowStockThreshold: int64(getEnvInt("LOW_STOCK_THRESHOLD", 10)),
		ExpiryWindowDays:  getEnvInt("EXPIRY_WINDOW_DAYS", 30),
		CORSOrigins:       splitCSV(getEnv("CORS_ORIGINS", "*")),
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = defaultDSN(cfg.Database.Driver)
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	if cfg.ExpiryWindowDays <= 0 {
		cfg.ExpiryWindowDays = 30
	}
	return cfg
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

func defaultDSN(driver string) string {
	if driver != "postgres" {
		return getEnv("SQLITE_PATH", "medstore.db")
	}
	host := getEnv("HOST", "localhost")
	user := getEnv("USER", "postgres")
	dbPort := getEnv("PORT", "5432")
	name := getEnv("NAME", "medstore")
	password := os.Getenv("PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, dbPort, name)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
