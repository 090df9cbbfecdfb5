package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Addr               string        `env:"APP_ADDR" envDefault:":8080"`
	Environment        string        `env:"APP_ENV" envDefault:"development"`
	DatabaseURL        string        `env:"DATABASE_URL"`
	StorageDriver      string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	SQLitePath         string        `env:"SQLITE_PATH" envDefault:"leadtrack.db"`
	JWTSecret          string        `env:"JWT_SECRET"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	PolicyFile         string        `env:"POLICY_FILE"`
	ManagerTargetScope string        `env:"MANAGER_TARGET_SCOPE" envDefault:"all"`
	RunMigrations      bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	MetricsEnabled     bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads an optional .env file, then the process environment. Values
// already set in the environment win over the file.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, file := range dotenvFiles {
		_ = godotenv.Load(file)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.ManagerTargetScope = strings.ToLower(strings.TrimSpace(cfg.ManagerTargetScope))
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is postgres")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORAGE_DRIVER is sqlite")
		}
	case DriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORAGE_DRIVER memory is not allowed in production")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of memory, postgres, sqlite")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.ManagerTargetScope != "all" && c.ManagerTargetScope != "created" {
		return fmt.Errorf("MANAGER_TARGET_SCOPE must be all or created")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}
