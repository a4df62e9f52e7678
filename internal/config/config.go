package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres  = "postgres"
	DriverCouchbase = "couchbase"

	minProductionSecret = 32
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	StoreDriver       string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBSchema          string        `mapstructure:"DB_SCHEMA"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	CouchbaseURL      string        `mapstructure:"COUCHBASE_URL"`
	CouchbaseUsername string        `mapstructure:"COUCHBASE_USERNAME"`
	CouchbasePassword string        `mapstructure:"COUCHBASE_PASSWORD"`
	CouchbaseBucket   string        `mapstructure:"COUCHBASE_BUCKET"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	JWTIssuer         string        `mapstructure:"JWT_ISSUER"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
	BcryptCost        int           `mapstructure:"BCRYPT_COST"`
	IDMaxAttempts     int           `mapstructure:"ID_MAX_ATTEMPTS"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	LogFormat         string        `mapstructure:"LOG_FORMAT"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	MetricsEnabled    bool          `mapstructure:"METRICS_ENABLED"`
	RequestLogEnabled bool          `mapstructure:"REQUEST_LOG_ENABLED"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	TLSTerminated     bool          `mapstructure:"TLS_TERMINATED"`
}

var keys = []string{
	"PORT", "ENV", "STORE_DRIVER",
	"DATABASE_URL", "DB_SCHEMA", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"COUCHBASE_URL", "COUCHBASE_USERNAME", "COUCHBASE_PASSWORD", "COUCHBASE_BUCKET",
	"JWT_SECRET", "JWT_ISSUER", "TOKEN_TTL", "BCRYPT_COST", "ID_MAX_ATTEMPTS",
	"CORS_ORIGINS", "LOG_FORMAT", "LOG_LEVEL", "METRICS_ENABLED", "REQUEST_LOG_ENABLED",
	"BODY_LIMIT", "REQUEST_TIMEOUT", "TLS_TERMINATED",
}

// Load reads configuration from the environment and an optional .env file in
// the working directory. It only checks what is needed to reach the store;
// Validate covers the rest.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("COUCHBASE_BUCKET", "hms")
	v.SetDefault("JWT_ISSUER", "hms")
	v.SetDefault("TOKEN_TTL", "8760h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("ID_MAX_ATTEMPTS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOG_ENABLED", true)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("TLS_TERMINATED", false)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// The .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case DriverCouchbase:
		if cfg.CouchbaseURL == "" {
			return nil, fmt.Errorf("COUCHBASE_URL is required when STORE_DRIVER is couchbase")
		}
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverCouchbase, cfg.StoreDriver)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to serve traffic with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < minProductionSecret {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes in production, got %d", minProductionSecret, len(c.JWTSecret))
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.IDMaxAttempts < 1 {
		return fmt.Errorf("ID_MAX_ATTEMPTS must be at least 1, got %d", c.IDMaxAttempts)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT cannot be negative, got %s", c.RequestTimeout)
	}
	switch c.LogFormat {
	case "", "console", "json", "ecs":
	default:
		return fmt.Errorf("LOG_FORMAT must be console, json or ecs, got %q", c.LogFormat)
	}
	return nil
}
