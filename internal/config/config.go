package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Batch    BatchConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// ProviderConfig holds market data API configuration
type ProviderConfig struct {
	APIKey         string
	BaseURL        string
	Exchange       string
	RequestTimeout time.Duration
}

// BatchConfig holds scheduling parameters for a run over the universe
type BatchConfig struct {
	GroupSize    int
	Cooldown     time.Duration
	HistoryYears int
	ForwardYears int
	// Interval between runs in serve mode; zero disables periodic runs
	Interval time.Duration
}

// RedisConfig holds result cache configuration
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MigrationsPath is a directory of golang-migrate SQL files
	MigrationsPath string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	RefreshTopic string
	GroupID      string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Provider: ProviderConfig{
			APIKey:         getEnv("EODHD_API_KEY", ""),
			BaseURL:        getEnv("EODHD_BASE_URL", "https://eodhd.com/api"),
			Exchange:       getEnv("EODHD_EXCHANGE", "US"),
			RequestTimeout: getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 30*time.Second),
		},
		Batch: BatchConfig{
			GroupSize:    getEnvInt("BATCH_GROUP_SIZE", 900),
			Cooldown:     getEnvDuration("BATCH_COOLDOWN", 60*time.Second),
			HistoryYears: getEnvInt("BATCH_HISTORY_YEARS", 2),
			ForwardYears: getEnvInt("BATCH_FORWARD_YEARS", 1),
			Interval:     getEnvDuration("BATCH_INTERVAL", 0),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "earnings:"),
			TTL:       getEnvDuration("REDIS_TTL", 30*24*time.Hour),
		},
		Database: DatabaseConfig{
			Enabled:        getEnvBool("DB_ENABLED", false),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "earnings"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "db/migrations"),
		},
		Kafka: KafkaConfig{
			Enabled:      getEnvBool("KAFKA_ENABLED", false),
			Brokers:      splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:        getEnv("KAFKA_TOPIC", "earnings-events"),
			RefreshTopic: getEnv("KAFKA_REFRESH_TOPIC", "earnings-refresh-requests"),
			GroupID:      getEnv("KAFKA_GROUP_ID", "earnings-batch"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			File:   getEnv("LOG_FILE", ""),
		},
	}
}

// Validate checks the settings a batch run cannot proceed without
func (c *Config) Validate() error {
	var errs []error
	if c.Provider.APIKey == "" {
		errs = append(errs, errors.New("EODHD_API_KEY is required"))
	}
	if c.Provider.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.Provider.RequestTimeout))
	}
	if c.Batch.GroupSize <= 0 {
		errs = append(errs, fmt.Errorf("group size must be positive, got %d", c.Batch.GroupSize))
	}
	if c.Batch.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown must not be negative, got %s", c.Batch.Cooldown))
	}
	if c.Redis.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache TTL must be positive, got %s", c.Redis.TTL))
	}
	return errors.Join(errs...)
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

// Address returns the host:port the HTTP server listens on
func (s *ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
