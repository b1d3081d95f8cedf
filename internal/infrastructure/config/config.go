package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Backend names accepted by STORE_BACKEND and SESSION_BACKEND.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	// StoreBackend holds users and the audit trail: mongo or memory.
	StoreBackend string `env:"STORE_BACKEND,   default=mongo"`
	// SessionBackend holds sessions and the login throttle: redis, mongo or memory.
	SessionBackend string `env:"SESSION_BACKEND, default=redis"`

	Auth  AuthConfig
	Audit AuditConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type AuthConfig struct {
	SessionTTL         time.Duration `env:"SESSION_TTL,           default=24h"`
	PasswordMinLength  int           `env:"PASSWORD_MIN_LENGTH,   default=8"`
	BcryptCost         int           `env:"BCRYPT_COST,           default=10"`
	ListUsersAdminOnly bool          `env:"LIST_USERS_ADMIN_ONLY, default=false"`
	// LoginMaxFailures of 0 disables throttling.
	LoginMaxFailures   int           `env:"LOGIN_MAX_FAILURES,    default=10"`
	LoginFailureWindow time.Duration `env:"LOGIN_FAILURE_WINDOW,  default=15m"`
}

type AuditConfig struct {
	Enabled bool `env:"AUDIT_ENABLED, default=true"`
	Workers int  `env:"AUDIT_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom resolves configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("config: unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.SessionBackend {
	case BackendRedis, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("config: unsupported SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.Auth.SessionTTL)
	}
	if c.Auth.PasswordMinLength < 1 {
		return fmt.Errorf("config: PASSWORD_MIN_LENGTH must be at least 1, got %d", c.Auth.PasswordMinLength)
	}
	if c.Auth.LoginMaxFailures < 0 {
		return fmt.Errorf("config: LOGIN_MAX_FAILURES cannot be negative")
	}
	if c.Auth.LoginMaxFailures > 0 && c.Auth.LoginFailureWindow <= 0 {
		return fmt.Errorf("config: LOGIN_FAILURE_WINDOW must be positive when throttling is enabled")
	}
	return nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
