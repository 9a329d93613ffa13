package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds the complete application configuration, loadable from
// environment variables (BACKOFFICE_ prefix), flags, a .env file or YAML
// config files.
type Config struct {
	Addr         string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	TimeZone     string        `default:"Asia/Seoul" usage:"Business time zone used to resolve day keys" flag:"time-zone"`
	FetchTimeout time.Duration `default:"10s" usage:"Upper bound for one day fetch" flag:"fetch-timeout"`
	Store        StoreConfig
	NATS         NATSConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Graceful     GracefulConfig
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver        string `default:"postgres" usage:"Document store driver: postgres, mongo or memory"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (BACKOFFICE_STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	MongoURL      string `usage:"MongoDB connection URL" flag:"mongo-url"`
	MongoDatabase string `default:"backoffice" usage:"MongoDB database name" flag:"mongo-database"`
}

// NATSConfig controls order status events. An empty URL disables them.
type NATSConfig struct {
	URL  string `usage:"NATS server URL" flag:"nats-url"`
	Name string `default:"backoffice-api" usage:"NATS client name" flag:"nats-name"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Enabled    bool          `default:"true" usage:"Enable per-client rate limiting" flag:"rate-limit"`
	Max        int           `default:"120" usage:"Maximum requests per window per client" flag:"rate-limit-max"`
	Window     time.Duration `default:"1m" usage:"Rate limit window duration" flag:"rate-limit-window"`
	WritesOnly bool          `default:"true" usage:"Limit only state-changing requests" flag:"rate-limit-writes-only"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from .env, environment variables, flags
// and YAML config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(false)
}

// LoadEnvConfig is LoadConfig without command line flags, for tools that
// parse their own.
func LoadEnvConfig() (*Config, error) {
	return loadConfig(true)
}

func loadConfig(skipFlags bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BACKOFFICE",
		SkipFlags: skipFlags,
		Files:     []string{"config.yaml", "/etc/backoffice/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("database URL is required: set BACKOFFICE_STORE_DATABASE_URL or DATABASE_URL")
		}
	case DriverMongo:
		if c.Store.MongoURL == "" {
			return errors.New("mongo URL is required for the mongo driver")
		}
	case DriverMemory:
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0) {
		return errors.Errorf("rate limit needs a positive max and window, got %d per %s", c.RateLimit.Max, c.RateLimit.Window)
	}
	if c.FetchTimeout <= 0 {
		return errors.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured business time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", c.TimeZone)
	}
	return loc, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's BACKOFFICE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Store.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Store.DatabaseURL = v
		}
	}
	if c.NATS.URL == "" {
		if v := os.Getenv("NATS_URL"); v != "" {
			c.NATS.URL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
