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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Planner    PlannerConfig
	Velocity   VelocityConfig
	Reschedule RescheduleConfig
	Cache      CacheConfig
	Jobs       JobsConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PlannerConfig governs gap finding and the greedy packer.
type PlannerConfig struct {
	MinGapMinutes       int
	MaxMinutesPerDay    int
	MaxMinutesPerBlock  int
	MinMinutesPerBlock  int
	DefaultHorizonWeeks int
}

// VelocityConfig tunes the adaptive pace estimator.
type VelocityConfig struct {
	DefaultSinceWeeks int
}

// RescheduleConfig tunes conflict suggestion search.
type RescheduleConfig struct {
	LookaheadDays   int
	SlotStepMinutes int
}

// CacheConfig controls the availability read-through cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// JobsConfig sizes the background worker queue.
type JobsConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Planner = PlannerConfig{
		MinGapMinutes:       v.GetInt("PLANNER_MIN_GAP_MINUTES"),
		MaxMinutesPerDay:    v.GetInt("PLANNER_MAX_MINUTES_PER_DAY"),
		MaxMinutesPerBlock:  v.GetInt("PLANNER_MAX_MINUTES_PER_BLOCK"),
		MinMinutesPerBlock:  v.GetInt("PLANNER_MIN_MINUTES_PER_BLOCK"),
		DefaultHorizonWeeks: v.GetInt("PLANNER_DEFAULT_HORIZON_WEEKS"),
	}

	cfg.Velocity = VelocityConfig{
		DefaultSinceWeeks: v.GetInt("VELOCITY_DEFAULT_SINCE_WEEKS"),
	}

	cfg.Reschedule = RescheduleConfig{
		LookaheadDays:   v.GetInt("RESCHEDULE_LOOKAHEAD_DAYS"),
		SlotStepMinutes: v.GetInt("RESCHEDULE_SLOT_STEP_MINUTES"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_AVAILABILITY_CACHE"),
		TTL:     parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "planner")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PLANNER_MIN_GAP_MINUTES", 15)
	v.SetDefault("PLANNER_MAX_MINUTES_PER_DAY", 240)
	v.SetDefault("PLANNER_MAX_MINUTES_PER_BLOCK", 90)
	v.SetDefault("PLANNER_MIN_MINUTES_PER_BLOCK", 30)
	v.SetDefault("PLANNER_DEFAULT_HORIZON_WEEKS", 2)

	v.SetDefault("VELOCITY_DEFAULT_SINCE_WEEKS", 6)

	v.SetDefault("RESCHEDULE_LOOKAHEAD_DAYS", 7)
	v.SetDefault("RESCHEDULE_SLOT_STEP_MINUTES", 30)

	v.SetDefault("ENABLE_AVAILABILITY_CACHE", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "5m")

	v.SetDefault("JOBS_WORKERS", 1)
	v.SetDefault("JOBS_MAX_RETRIES", 3)
	v.SetDefault("JOBS_RETRY_DELAY", "5s")
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
