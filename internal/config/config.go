package config

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port        string `conf:"default:8080,env:PORT"`
	Environment string `conf:"default:development,enum:development|testing|production,env:ENVIRONMENT"`
	LogLevel    string `conf:"default:info,env:LOG_LEVEL"`
	LogFormat   string `conf:"default:json,enum:json|console,env:LOG_FORMAT"`

	StoreBackend string `conf:"default:memory,enum:memory|file|postgres|redis,env:STORE_BACKEND"`
	DataDir      string `conf:"default:./data,env:DATA_DIR"`
	DatabaseURL  string `conf:"env:DATABASE_URL,noprint"`

	RedisAddr     string `conf:"env:REDIS_ADDR"`
	RedisPassword string `conf:"env:REDIS_PASSWORD,noprint"`
	RedisDB       int    `conf:"default:0,env:REDIS_DB"`
	RedisPrefix   string `conf:"default:stockroom,env:REDIS_PREFIX"`

	ReportCacheTTLSeconds int `conf:"default:30,env:REPORT_CACHE_TTL_SECONDS"`
	LowStockThreshold     int `conf:"default:10,env:LOW_STOCK_THRESHOLD"`

	AuthSecret            string `conf:"env:AUTH_SECRET,noprint"`
	AccessTokenTTLMinutes int    `conf:"default:480,env:ACCESS_TOKEN_TTL_MINUTES"`
	SeedAdminPassword     string `conf:"default:admin123,env:SEED_ADMIN_PASSWORD,noprint"`
	SeedStaffPassword     string `conf:"default:staff123,env:SEED_STAFF_PASSWORD,noprint"`

	CORSAllowedOrigins string `conf:"default:http://127.0.0.1:3000,env:CORS_ALLOWED_ORIGINS"`
	RateLimitPerMinute int    `conf:"default:300,env:RATE_LIMIT_PER_MINUTE"`
}

// Load reads a .env file when present, then the environment.
func Load() (Config, error) {
	var cfg Config
	_ = godotenv.Load()
	if _, err := conf.Parse("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	if cfg.ReportCacheTTLSeconds < 1 {
		cfg.ReportCacheTTLSeconds = 30
	}
	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = 480
	}
	if cfg.RateLimitPerMinute < 1 {
		cfg.RateLimitPerMinute = 300
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks that the selected backend has what it needs and that
// production deployments do not run on development credentials.
func (c Config) Validate() error {
	var errs []string

	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, "REDIS_ADDR is required when STORE_BACKEND=redis")
		}
	case BackendFile:
		if strings.TrimSpace(c.DataDir) == "" {
			errs = append(errs, "DATA_DIR is required when STORE_BACKEND=file")
		}
	}

	if c.IsProduction() {
		if len(c.AuthSecret) < 32 {
			errs = append(errs, fmt.Sprintf("AUTH_SECRET must be at least 32 characters (got %d)", len(c.AuthSecret)))
		}
		if c.SeedAdminPassword == "admin123" || c.SeedStaffPassword == "staff123" {
			errs = append(errs, "SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD must be changed in production")
		}
		if c.StoreBackend == BackendMemory {
			errs = append(errs, "STORE_BACKEND=memory loses data on restart and is not allowed in production")
		}
		if c.LogLevel == "debug" || c.LogLevel == "trace" {
			errs = append(errs, "LOG_LEVEL must not be debug or trace in production")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
}
