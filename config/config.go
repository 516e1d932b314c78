package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Logger       LoggerConfig
	RateLimit    RateLimitConfig
	DefaultAdmin AdminConfig
}

type AppConfig struct {
	Env         string
	Port        string
	FrontendURL string
}

type DatabaseConfig struct {
	URL string
}

// RedisConfig selects the redis session registry when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type LoggerConfig struct {
	Level  string
	Format string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// AdminConfig describes the account seeded on first start.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

func LoadEnv() error {
	// A missing .env is fine; production sets variables directly.
	_ = godotenv.Load()
	return nil
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv(logger *zap.Logger) error {
	var missing []string

	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	if logger == nil {
		return nil
	}
	if os.Getenv("REDIS_ADDR") == "" {
		logger.Warn("REDIS_ADDR not set - sessions are kept in the database")
	}
	if os.Getenv("FRONTEND_URL") == "" {
		logger.Warn("FRONTEND_URL not set - CORS defaults to http://localhost:5173")
	}
	if os.Getenv("ADMIN_PASSWORD") == "" {
		logger.Warn("ADMIN_PASSWORD not set - default admin uses the built-in password")
	}

	return nil
}

// Load reads configuration from the environment, applying defaults where possible.
// Required variables are checked by ValidateEnv.
func Load() (*Config, error) {
	redisDB, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:         GetEnv("APP_ENV", "development"),
			Port:        GetEnv("PORT", "3000"),
			FrontendURL: GetEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			TokenTTL:   time.Duration(GetEnvAsInt("JWT_TTL_MINUTES", 24*60)) * time.Minute,
			BcryptCost: GetEnvAsInt("BCRYPT_COST", 10),
		},
		Logger: LoggerConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Requests: GetEnvAsInt("AUTH_RATE_LIMIT", 20),
			Window:   GetEnvAsDuration("AUTH_RATE_WINDOW", time.Minute),
		},
		DefaultAdmin: AdminConfig{
			Name:     GetEnv("ADMIN_NAME", "常用名字"),
			Email:    GetEnv("ADMIN_EMAIL", "a@jwt.com"),
			Password: GetEnv("ADMIN_PASSWORD", "admin"),
		},
	}

	return cfg, nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvAsDuration accepts Go duration strings such as "90s" or "5m".
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
