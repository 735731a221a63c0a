// Package config loads service settings from the environment. Variables are
// prefixed with TRAIT_ and nested by section, e.g. TRAIT_SERVER_PORT or
// TRAIT_REDIS_ADDR. A .env file, when present, is read first and never
// overrides variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	apperrors "github.com/ahump20/lone-star-legends-championship-sub006/internal/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "TRAIT"

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `envconfig:"SERVER"`
	Logging     LoggingConfig     `envconfig:"LOGGING"`
	Redis       RedisConfig       `envconfig:"REDIS"`
	Storage     StorageConfig     `envconfig:"STORAGE"`
	Cohort      CohortConfig      `envconfig:"COHORT"`
	Cache       CacheConfig       `envconfig:"CACHE"`
	Compression CompressionConfig `envconfig:"COMPRESSION"`
	RateLimit   RateLimitConfig   `envconfig:"RATE_LIMIT"`
	Security    SecurityConfig    `envconfig:"SECURITY"`
	Engine      EngineConfig      `envconfig:"ENGINE"`
	Reliability ReliabilityConfig `envconfig:"RELIABILITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"8080"`
	GinMode         string        `envconfig:"GIN_MODE" default:"release"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`
}

type LoggingConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
}

// RedisConfig is optional; an empty Addr runs without Redis.
type RedisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// StorageConfig locates the SQLite cohort table store. An empty path
// disables it.
type StorageConfig struct {
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/cohorts.db"`
}

type CohortConfig struct {
	SeedFile string        `envconfig:"SEED_FILE"`
	TTL      time.Duration `envconfig:"TTL" default:"1h"`
	Warm     bool          `envconfig:"WARM" default:"true"`
}

// CacheConfig controls the response cache for requests with a pinned asOf.
type CacheConfig struct {
	Enabled bool          `envconfig:"ENABLED" default:"true"`
	TTL     time.Duration `envconfig:"TTL" default:"15m"`
}

// CompressionConfig controls gzip of responses.
type CompressionConfig struct {
	Enabled bool `envconfig:"ENABLED" default:"true"`
	MinSize int  `envconfig:"MIN_SIZE" default:"1024"`
	Level   int  `envconfig:"LEVEL" default:"-1"`
}

type RateLimitConfig struct {
	Enabled         bool `envconfig:"ENABLED" default:"true"`
	PerMinute       int  `envconfig:"PER_MINUTE" default:"120"`
	BurstMultiplier int  `envconfig:"BURST_MULTIPLIER" default:"1"`
}

type SecurityConfig struct {
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	EnableHSTS     bool     `envconfig:"ENABLE_HSTS" default:"false"`
}

// EngineConfig overrides calibration constants. Zero keeps the built-in value.
type EngineConfig struct {
	TopK                  int     `envconfig:"TOP_K"`
	InSeasonHalfLifeDays  float64 `envconfig:"IN_SEASON_HALF_LIFE_DAYS"`
	OffSeasonHalfLifeDays float64 `envconfig:"OFF_SEASON_HALF_LIFE_DAYS"`
	ConflictDivisor       float64 `envconfig:"CONFLICT_DIVISOR"`
	ConflictThreshold     float64 `envconfig:"CONFLICT_THRESHOLD"`
	ShrinkK               float64 `envconfig:"SHRINK_K"`
}

// ReliabilityConfig carries externally tracked validation metrics that are
// published on the calibration endpoint.
type ReliabilityConfig struct {
	TestRetestR      float64 `envconfig:"TEST_RETEST_R"`
	CalibrationSlope float64 `envconfig:"CALIBRATION_SLOPE"`
	SampleSize       int     `envconfig:"SAMPLE_SIZE"`
}

// Load reads the optional env files, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewConfigurationError("failed to read "+f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigurationError(err.Error(), err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("invalid gin mode %q", c.Server.GinMode))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	if c.Cohort.TTL <= 0 {
		errs = append(errs, errors.New("cohort TTL must be positive"))
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache TTL must be positive"))
	}
	if c.Compression.Enabled && (c.Compression.MinSize < 0 || c.Compression.Level < -2 || c.Compression.Level > 9) {
		errs = append(errs, errors.New("compression level must be within -2..9 and min size non-negative"))
	}
	if c.RateLimit.Enabled && c.RateLimit.PerMinute <= 0 {
		errs = append(errs, errors.New("rate limit must be positive"))
	}
	if c.Engine.TopK < 0 || c.Engine.InSeasonHalfLifeDays < 0 || c.Engine.OffSeasonHalfLifeDays < 0 ||
		c.Engine.ConflictDivisor < 0 || c.Engine.ConflictThreshold < 0 || c.Engine.ShrinkK < 0 {
		errs = append(errs, errors.New("engine overrides must not be negative"))
	}
	if c.Cohort.SeedFile != "" {
		if _, err := os.Stat(c.Cohort.SeedFile); err != nil {
			errs = append(errs, fmt.Errorf("cohort seed file: %w", err))
		}
	}

	return errors.Join(errs...)
}

// EngineParams returns the analysis parameters with overrides applied.
func (c *Config) EngineParams() analysis.Params {
	p := analysis.DefaultParams()
	if c.Engine.TopK > 0 {
		p.TopK = c.Engine.TopK
	}
	if c.Engine.InSeasonHalfLifeDays > 0 {
		p.InSeasonHalfLifeDays = c.Engine.InSeasonHalfLifeDays
	}
	if c.Engine.OffSeasonHalfLifeDays > 0 {
		p.OffSeasonHalfLifeDays = c.Engine.OffSeasonHalfLifeDays
	}
	if c.Engine.ConflictDivisor > 0 {
		p.ConflictDivisor = c.Engine.ConflictDivisor
	}
	if c.Engine.ConflictThreshold > 0 {
		p.ConflictThreshold = c.Engine.ConflictThreshold
	}
	if c.Engine.ShrinkK > 0 {
		p.ShrinkK = c.Engine.ShrinkK
	}
	return p
}

// ReliabilityMetrics converts the reliability section for the engine.
func (c *Config) ReliabilityMetrics() analysis.ReliabilityMetrics {
	return analysis.ReliabilityMetrics{
		TestRetestR:      c.Reliability.TestRetestR,
		CalibrationSlope: c.Reliability.CalibrationSlope,
		SampleSize:       c.Reliability.SampleSize,
	}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
