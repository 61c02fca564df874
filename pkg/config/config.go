package config

import (
	"errors"
	"fmt"
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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Scale         ScaleConfig
	GradeBands    GradeBandsConfig
	Recalculation RecalculationConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScaleConfig declares the admissible rating levels.
type ScaleConfig struct {
	MinLevel         int
	MaxLevel         int
	MinRequiredLevel int
}

// GradeBandsConfig controls caching of the active grade band table.
type GradeBandsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// RecalculationConfig gates bulk recalculation through the background queue.
type RecalculationConfig struct {
	Enabled           bool
	WorkerConcurrency int
	WorkerRetries     int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scale = ScaleConfig{
		MinLevel:         v.GetInt("SCALE_MIN_LEVEL"),
		MaxLevel:         v.GetInt("SCALE_MAX_LEVEL"),
		MinRequiredLevel: v.GetInt("SCALE_MIN_REQUIRED_LEVEL"),
	}
	if cfg.Scale.MinLevel >= cfg.Scale.MaxLevel {
		return nil, fmt.Errorf("scale min level %d must be below max level %d", cfg.Scale.MinLevel, cfg.Scale.MaxLevel)
	}
	if cfg.Scale.MinRequiredLevel < cfg.Scale.MinLevel || cfg.Scale.MinRequiredLevel > cfg.Scale.MaxLevel {
		return nil, fmt.Errorf("scale min required level %d outside [%d,%d]", cfg.Scale.MinRequiredLevel, cfg.Scale.MinLevel, cfg.Scale.MaxLevel)
	}

	cfg.GradeBands = GradeBandsConfig{
		CacheEnabled: v.GetBool("GRADE_BANDS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("GRADE_BANDS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Recalculation = RecalculationConfig{
		Enabled:           v.GetBool("ENABLE_BULK_RECALCULATION"),
		WorkerConcurrency: v.GetInt("RECALC_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("RECALC_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hr_competency")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCALE_MIN_LEVEL", 0)
	v.SetDefault("SCALE_MAX_LEVEL", 10)
	v.SetDefault("SCALE_MIN_REQUIRED_LEVEL", 1)

	v.SetDefault("GRADE_BANDS_CACHE_ENABLED", false)
	v.SetDefault("GRADE_BANDS_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_BULK_RECALCULATION", false)
	v.SetDefault("RECALC_WORKER_CONCURRENCY", 1)
	v.SetDefault("RECALC_WORKER_RETRIES", 3)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
