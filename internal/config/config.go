package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/Adham-AI-111/clinic-system-docker/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Tenancy   TenancyConfig   `mapstructure:"tenancy"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Log       logger.Config   `mapstructure:"log"`
}

type ServerConfig struct {
	// Mode is the gin mode: debug, release or test.
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type SessionConfig struct {
	// Store is "redis" or "memory".
	Store      string        `mapstructure:"store"`
	CookieName string        `mapstructure:"cookie_name"`
	// CookieDomain must be a parent of every tenant domain so the session
	// survives the redirect from the public host to the clinic host.
	CookieDomain string        `mapstructure:"cookie_domain"`
	Secure       bool          `mapstructure:"secure"`
	Lifetime     time.Duration `mapstructure:"lifetime"`
	Secret       string        `mapstructure:"secret"`
}

type AuthConfig struct {
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LockoutDuration  time.Duration `mapstructure:"lockout_duration"`
	HandoffTTL       time.Duration `mapstructure:"handoff_ttl"`
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
	PhoneRegion      string        `mapstructure:"phone_region"`
	// TenantPort is appended to tenant domains in redirects when non-zero.
	TenantPort int `mapstructure:"tenant_port"`
}

type TenancyConfig struct {
	DomainCacheTTL time.Duration `mapstructure:"domain_cache_ttl"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type AuditConfig struct {
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// secrets are read from CLINIC_* environment variables and win over the file.
type secrets struct {
	SessionSecret string `envconfig:"SESSION_SECRET"`
	DBPassword    string `envconfig:"DB_PASSWORD"`
	RedisURL      string `envconfig:"REDIS_URL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("session.store", "redis")
	v.SetDefault("session.cookie_name", "sessionid")
	v.SetDefault("session.lifetime", 14*24*time.Hour)

	v.SetDefault("auth.max_login_attempts", 15)
	v.SetDefault("auth.lockout_duration", 15*time.Minute)
	v.SetDefault("auth.handoff_ttl", 5*time.Minute)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.phone_region", "EG")

	v.SetDefault("tenancy.domain_cache_ttl", 5*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 1.0)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("audit.retention_days", 90)
	v.SetDefault("audit.cleanup_interval", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads config.yaml from the usual locations. A missing file is
// not an error; defaults and environment variables still apply.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var s secrets
	if err := envconfig.Process("clinic", &s); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.applySecrets(s)

	return &cfg, nil
}

func (c *Config) applySecrets(s secrets) {
	if s.SessionSecret != "" {
		c.Session.Secret = s.SessionSecret
	}
	if s.DBPassword != "" {
		c.Database.Password = s.DBPassword
	}
	if s.RedisURL != "" {
		c.Redis.URL = s.RedisURL
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if len(c.Session.Secret) < 32 {
		return errors.New("session.secret must be at least 32 characters")
	}
	if c.Session.Store != "redis" && c.Session.Store != "memory" {
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		return errors.New("auth.max_login_attempts must be positive")
	}
	if c.Auth.LockoutDuration <= 0 || c.Auth.HandoffTTL <= 0 {
		return errors.New("auth durations must be positive")
	}
	return nil
}
