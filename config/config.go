package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	SQLite    SQLiteConfig
	Lock      LockConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration
}

type LockConfig struct {
	Backend    string // "memory" or "redis"
	TTL        time.Duration
	Retries    int
	RetryDelay time.Duration

	// 0 means TTL/3.
	RefreshInterval time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	ScanTopic      string
	EventsTopic    string
	GroupID        string
	PublishTimeout time.Duration
}

type InventoryConfig struct {
	BlockEnforcement    string // "enforce" or "advisory"
	OverdueFallbackDays int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			HTTPPort:        getEnv("HTTP_PORT", ":8083"),
			ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		SQLite: SQLiteConfig{
			Path:        getEnv("DB_PATH", "data/inventory.db"),
			BusyTimeout: time.Duration(getEnvInt("DB_BUSY_TIMEOUT_MS", 5000)) * time.Millisecond,
		},
		Lock: LockConfig{
			Backend:         getEnv("LOCK_BACKEND", "memory"),
			TTL:             time.Duration(getEnvInt("LOCK_TTL_SECONDS", 5)) * time.Second,
			Retries:         getEnvInt("LOCK_RETRIES", 3),
			RetryDelay:      time.Duration(getEnvInt("LOCK_RETRY_DELAY_MS", 100)) * time.Millisecond,
			RefreshInterval: time.Duration(getEnvInt("LOCK_REFRESH_INTERVAL_MS", 0)) * time.Millisecond,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:        getEnvBool("KAFKA_ENABLED", false),
			Brokers:        getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ScanTopic:      getEnv("KAFKA_TOPIC_SCANS", "scanner.counts"),
			EventsTopic:    getEnv("KAFKA_TOPIC_EVENTS", "stock.events"),
			GroupID:        getEnv("KAFKA_GROUP_STOCK", "stock"),
			PublishTimeout: time.Duration(getEnvInt("KAFKA_PUBLISH_TIMEOUT_MS", 3000)) * time.Millisecond,
		},
		Inventory: InventoryConfig{
			BlockEnforcement:    getEnv("BLOCK_ENFORCEMENT", "enforce"),
			OverdueFallbackDays: getEnvInt("OVERDUE_FALLBACK_DAYS", 30),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
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

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
