package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config aggregates all runtime configuration for the API.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Board    BoardConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the dashboard/stats response cache.
type CacheConfig struct {
	TTL time.Duration
}

// ExportConfig tunes the async report export pipeline.
type ExportConfig struct {
	Dir     string
	URLTTL  time.Duration
	Workers int
	FileTTL time.Duration
}

// BoardConfig tunes board projection defaults.
type BoardConfig struct {
	// OverdueGrace shifts the overdue cutoff; zero means strict scheduled < now.
	OverdueGrace time.Duration
}

// Load reads configuration from environment variables, honouring a local
// .env file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "gearguard")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_EXPIRATION", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "gearguard-api")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("BOARD_OVERDUE_GRACE", "0s")

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_URL_TTL", "24h")
	v.SetDefault("EXPORT_WORKERS", 2)
	v.SetDefault("EXPORT_FILE_TTL", "72h")

	cfg := &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:            v.GetString("JWT_SECRET"),
			Expiration:        v.GetDuration("JWT_EXPIRATION"),
			RefreshExpiration: v.GetDuration("JWT_REFRESH_EXPIRATION"),
			Issuer:            v.GetString("JWT_ISSUER"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Cache: CacheConfig{
			TTL: v.GetDuration("CACHE_TTL"),
		},
		Board: BoardConfig{
			OverdueGrace: v.GetDuration("BOARD_OVERDUE_GRACE"),
		},
		Export: ExportConfig{
			Dir:     v.GetString("EXPORT_DIR"),
			URLTTL:  v.GetDuration("EXPORT_URL_TTL"),
			Workers: v.GetInt("EXPORT_WORKERS"),
			FileTTL: v.GetDuration("EXPORT_FILE_TTL"),
		},
	}

	if cfg.JWT.Secret == "" {
		if cfg.Env == EnvProduction {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWT.Secret = "dev-only-secret"
	}

	return cfg, nil
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
