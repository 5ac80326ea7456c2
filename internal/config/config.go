// Package config loads memnotes configuration from CLI flags and environment
// variables, applies defaults and validates the result.
//
// CLI flags toggle boot behavior (--no-seed, --ratelimit) and override the
// listen address and log level. Environment variables tune everything else.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/memnotes/internal/obs"
	"github.com/kuitang/memnotes/internal/ratelimit"
)

const (
	defaultListenAddr        = ":8000"
	defaultMaxBodyBytes      = 1 << 20
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr        string
	MaxBodyBytes      int64
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	// Logging
	LogLevel string

	// Seed the store at boot; SeedFile replaces the two built-in notes
	SeedNotes bool
	SeedFile  string

	// Rate limiting (off unless --ratelimit or RATE_LIMIT_ENABLED=true)
	RateLimitEnabled bool
	RateLimitConfig  ratelimit.Config
}

// Flags holds the values parsed from the command line.
type Flags struct {
	Addr        string
	LogLevel    string
	SeedFile    string
	NoSeed      bool
	RateLimit   bool
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags registers and parses the server flags on fs with args.
func ParseFlags(fs *flag.FlagSet, args []string) (Flags, error) {
	var f Flags
	fs.StringVar(&f.Addr, "addr", "", "Listen address (default :8000, overrides LISTEN_ADDR env var)")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug|info|warn|error (overrides LOG_LEVEL env var)")
	fs.StringVar(&f.SeedFile, "seed-file", "", "YAML file of boot notes (overrides NOTES_SEED_FILE env var)")
	fs.BoolVar(&f.NoSeed, "no-seed", false, "Start with an empty store instead of the two sample notes")
	fs.BoolVar(&f.RateLimit, "ratelimit", false, "Enable per-client rate limiting (overrides RATE_LIMIT_ENABLED env var)")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// LoadConfig loads configuration from environment variables and CLI flag values.
func LoadConfig(f Flags) (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", defaultListenAddr)
	if f.Addr != "" {
		cfg.ListenAddr = f.Addr
	}
	cfg.MaxBodyBytes = int64(parseIntOrDefault("MAX_BODY_BYTES", defaultMaxBodyBytes))
	cfg.ReadHeaderTimeout = parseDurationOrDefault("READ_HEADER_TIMEOUT", defaultReadHeaderTimeout)
	cfg.ShutdownTimeout = parseDurationOrDefault("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)

	cfg.LogLevel = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	if f.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(f.LogLevel)
	}

	cfg.SeedNotes = parseBoolOrDefault("NOTES_SEED", true) && !f.NoSeed
	cfg.SeedFile = getEnvOrDefault("NOTES_SEED_FILE", "")
	if f.SeedFile != "" {
		cfg.SeedFile = f.SeedFile
	}

	cfg.RateLimitEnabled = parseBoolOrDefault("RATE_LIMIT_ENABLED", false) || f.RateLimit
	cfg.RateLimitConfig = ratelimit.Config{
		RPS:             parseFloat64OrDefault("RATE_LIMIT_RPS", ratelimit.DefaultConfig.RPS),
		Burst:           parseIntOrDefault("RATE_LIMIT_BURST", ratelimit.DefaultConfig.Burst),
		CleanupInterval: parseDurationOrDefault("RATE_LIMIT_CLEANUP_INTERVAL", ratelimit.DefaultConfig.CleanupInterval),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, "LISTEN_ADDR must not be empty")
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, "MAX_BODY_BYTES must be positive")
	}
	if c.ReadHeaderTimeout <= 0 {
		errs = append(errs, "READ_HEADER_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be positive")
	}
	if c.SeedNotes && c.SeedFile != "" {
		if info, err := os.Stat(c.SeedFile); err != nil || info.IsDir() {
			errs = append(errs, fmt.Sprintf("NOTES_SEED_FILE %q must be a readable file", c.SeedFile))
		}
	}
	if _, ok := obs.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL %q must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.RateLimitEnabled {
		if c.RateLimitConfig.RPS <= 0 {
			errs = append(errs, "RATE_LIMIT_RPS must be positive (or unset RATE_LIMIT_ENABLED)")
		}
		if c.RateLimitConfig.Burst <= 0 {
			errs = append(errs, "RATE_LIMIT_BURST must be positive (or unset RATE_LIMIT_ENABLED)")
		}
		if c.RateLimitConfig.CleanupInterval <= 0 {
			errs = append(errs, "RATE_LIMIT_CLEANUP_INTERVAL must be positive")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := obs.ParseLevel(c.LogLevel)
	return lvl
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary(seeded int) {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "memnotes server starting...")
	fmt.Fprintf(os.Stderr, "  Listen:    %s\n", c.ListenAddr)
	if c.SeedFile != "" && c.SeedNotes {
		fmt.Fprintf(os.Stderr, "  Store:     in-memory (%d seed notes from %s)\n", seeded, c.SeedFile)
	} else {
		fmt.Fprintf(os.Stderr, "  Store:     in-memory (%d seed notes)\n", seeded)
	}
	if c.RateLimitEnabled {
		fmt.Fprintf(os.Stderr, "  RateLimit: %.1f rps, burst %d per client\n", c.RateLimitConfig.RPS, c.RateLimitConfig.Burst)
	} else {
		fmt.Fprintln(os.Stderr, "  RateLimit: off (enable with --ratelimit)")
	}
	fmt.Fprintf(os.Stderr, "  Log level: %s\n", c.LogLevel)
	fmt.Fprintln(os.Stderr, "")
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	parsed, err := strconv.Atoi(getEnvOrDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	parsed, err := strconv.ParseFloat(getEnvOrDefault(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	parsed, err := time.ParseDuration(getEnvOrDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	parsed, err := strconv.ParseBool(getEnvOrDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return parsed
}
