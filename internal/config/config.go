package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for city documents
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config holds process-level configuration loaded from the environment
type Config struct {
	Server              ServerConfig
	Database            DatabaseConfig
	Redis               RedisConfig
	Logging             LoggingConfig
	Storage             StorageConfig
	Scraper             ScraperConfig
	RankingSettingsPath string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig configures the optional response cache. An empty Host disables it.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a redis host is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LoggingConfig struct {
	Level         string
	Format        string
	FilePath      string
	RotationSize  int
	RetentionDays int
}

type StorageConfig struct {
	Backend         string
	CitiesPath      string
	LoadConcurrency int
}

type ScraperConfig struct {
	URLTemplate    string
	InputPath      string
	HeightRange    string
	HeightFloor  float64
	RequestDelay time.Duration
	HTTPTimeout  time.Duration
}

// LoadConfig loads configuration from .env (when present) and the environment
func LoadConfig() (*Config, error) {
	// a missing .env is fine, plain environment variables still apply
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "skyscraper"),
			Password:        getEnv("DB_PASSWORD", "skyscraper"),
			Database:        getEnv("DB_NAME", "skyscraper"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: getEnvDuration("REDIS_CACHE_TTL", 10*time.Minute),
		},
		Logging: LoggingConfig{
			Level:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format:        strings.ToLower(getEnv("LOG_FORMAT", "json")),
			FilePath:      getEnv("LOG_FILE_PATH", ""),
			RotationSize:  getEnvInt("LOG_ROTATION_SIZE_MB", 50),
			RetentionDays: getEnvInt("LOG_RETENTION_DAYS", 14),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(getEnv("STORAGE_BACKEND", StorageFile)),
			CitiesPath:      getEnv("STORAGE_CITIES_PATH", "output/json"),
			LoadConcurrency: getEnvInt("STORAGE_LOAD_CONCURRENCY", 8),
		},
		Scraper: ScraperConfig{
			URLTemplate:  getEnv("SCRAPER_URL", "https://www.skyscrapercenter.com/cities?base_city=%s&base_height_range=%s"),
			InputPath:    getEnv("SCRAPER_INPUT_PATH", "input"),
			HeightRange:  getEnv("SCRAPER_HEIGHT_RANGE", "All"),
			HeightFloor:  getEnvFloat("SCRAPER_HEIGHT_FLOOR", 75),
			RequestDelay: getEnvDuration("SCRAPER_REQUEST_DELAY", 20*time.Millisecond),
			HTTPTimeout:  getEnvDuration("SCRAPER_HTTP_TIMEOUT", 30*time.Second),
		},
		RankingSettingsPath: getEnv("RANKING_SETTINGS_PATH", "settings/settings.json"),
	}

	return cfg, nil
}

// Validate checks the configuration for values the commands cannot work with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.CitiesPath == "" {
			return fmt.Errorf("storage cities path is required for the %q backend", StorageFile)
		}
	case StoragePostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("database host and name are required for the %q backend", StoragePostgres)
		}
	default:
		return fmt.Errorf("invalid storage backend: %s. Must be '%s' or '%s'", c.Storage.Backend, StorageFile, StoragePostgres)
	}

	if c.Storage.LoadConcurrency < 1 {
		return fmt.Errorf("storage load concurrency must be at least 1")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Scraper.HeightFloor < 0 {
		return fmt.Errorf("scraper height floor must not be negative")
	}

	if strings.Count(c.Scraper.URLTemplate, "%s") != 2 {
		return fmt.Errorf("scraper URL template must contain two %%s placeholders (city code, height range code)")
	}

	return nil
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Database,
		d.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
