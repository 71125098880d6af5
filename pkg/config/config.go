package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Queries  QueriesConfig
	Reports  ReportConfig
	CORS     CORSConfig
	Log      LogConfig
	Seed     SeedConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// QueriesConfig tunes the analytical query library.
type QueriesConfig struct {
	CacheTTL time.Duration
	// MemoryCacheSize bounds the in-process cache used when Redis is off. Zero, the default,
	// disables it. Writes made by another process never clear this cache, so only enable it when
	// a single process owns the database.
	MemoryCacheSize int
}

// ReportConfig drives asynchronous report exports.
type ReportConfig struct {
	Dir             string
	SigningSecret   string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	Workers         int
	MaxRetries      int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SeedConfig sizes the generated demo dataset.
type SeedConfig struct {
	Groups     int
	Teachers   int
	Subjects   int
	Students   int
	MinGrades  int
	MaxGrades  int
	// RandomSeed fixes the generated data when non-zero.
	RandomSeed int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		Path:         v.GetString("DB_PATH"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Queries = QueriesConfig{
		CacheTTL:        parseDuration(v.GetString("QUERY_CACHE_TTL"), 5*time.Minute),
		MemoryCacheSize: v.GetInt("QUERY_CACHE_MEMORY_SIZE"),
	}

	cfg.Reports = ReportConfig{
		Dir:             v.GetString("REPORT_DIR"),
		SigningSecret:   v.GetString("REPORT_SIGNING_SECRET"),
		ResultTTL:       parseDuration(v.GetString("REPORT_RESULT_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("REPORT_CLEANUP_INTERVAL"), time.Hour),
		Workers:         v.GetInt("REPORT_WORKERS"),
		MaxRetries:      v.GetInt("REPORT_MAX_RETRIES"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Seed = SeedConfig{
		Groups:     v.GetInt("SEED_GROUPS"),
		Teachers:   v.GetInt("SEED_TEACHERS"),
		Subjects:   v.GetInt("SEED_SUBJECTS"),
		Students:   v.GetInt("SEED_STUDENTS"),
		MinGrades:  v.GetInt("SEED_MIN_GRADES"),
		MaxGrades:  v.GetInt("SEED_MAX_GRADES"),
		RandomSeed: v.GetInt64("SEED_RANDOM_SEED"),
	}
	if cfg.Seed.MaxGrades < cfg.Seed.MinGrades {
		cfg.Seed.MaxGrades = cfg.Seed.MinGrades
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "gradebook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_PATH", "gradebook.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("QUERY_CACHE_TTL", "5m")
	v.SetDefault("QUERY_CACHE_MEMORY_SIZE", 0)

	v.SetDefault("REPORT_DIR", "./reports")
	v.SetDefault("REPORT_SIGNING_SECRET", "change-me")
	v.SetDefault("REPORT_RESULT_TTL", "24h")
	v.SetDefault("REPORT_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORT_WORKERS", 2)
	v.SetDefault("REPORT_MAX_RETRIES", 3)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("SEED_GROUPS", 3)
	v.SetDefault("SEED_TEACHERS", 5)
	v.SetDefault("SEED_SUBJECTS", 8)
	v.SetDefault("SEED_STUDENTS", 50)
	v.SetDefault("SEED_MIN_GRADES", 10)
	v.SetDefault("SEED_MAX_GRADES", 20)
	v.SetDefault("SEED_RANDOM_SEED", 0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
