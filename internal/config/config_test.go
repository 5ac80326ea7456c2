package config

import (
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kuitang/memnotes/internal/ratelimit"
	"pgregory.net/rapid"
)

func validTestConfig() Config {
	return Config{
		ListenAddr:        ":0",
		MaxBodyBytes:      1024,
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		LogLevel:          "info",
		SeedNotes:         true,
		RateLimitEnabled:  true,
		RateLimitConfig:   ratelimit.DefaultConfig,
	}
}

func TestValidate_MinimalConfigPasses(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidate_AggregatesProblems(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.ListenAddr = " "
	cfg.MaxBodyBytes = 0
	cfg.LogLevel = "chatty"
	cfg.RateLimitConfig.RPS = 0
	cfg.RateLimitConfig.Burst = -1

	err := cfg.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	msg := err.Error()
	for _, expected := range []string{"LISTEN_ADDR", "MAX_BODY_BYTES", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		if !strings.Contains(msg, expected) {
			t.Fatalf("expected validation error to mention %q, got: %v", expected, err)
		}
	}
	if len(verr.Errors) != 5 {
		t.Fatalf("expected 5 problems, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func testValidate_RateLimitIgnoredWhenDisabled(t *rapid.T) {
	cfg := validTestConfig()
	cfg.RateLimitEnabled = false
	cfg.RateLimitConfig.RPS = rapid.Float64Range(-100, 0).Draw(t, "rps")
	cfg.RateLimitConfig.Burst = rapid.IntRange(-100, 0).Draw(t, "burst")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("rate limit settings should be ignored when disabled: %v", err)
	}
}

func TestValidate_RateLimitIgnoredWhenDisabled(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidate_RateLimitIgnoredWhenDisabled)
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "LOG_LEVEL", "NOTES_SEED", "NOTES_SEED_FILE", "MAX_BODY_BYTES", "RATE_LIMIT_ENABLED", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadConfig(Flags{})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ListenAddr != ":8000" || !cfg.SeedNotes || cfg.RateLimitEnabled || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxBodyBytes != 1<<20 || cfg.RateLimitConfig != ratelimit.DefaultConfig {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("SlogLevel = %v", cfg.SlogLevel())
	}
}

func TestLoadConfig_EnvAndFlags(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("NOTES_SEED", "false")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "7")

	cfg, err := LoadConfig(Flags{})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ListenAddr != ":9000" || cfg.LogLevel != "debug" || cfg.SeedNotes {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if !cfg.RateLimitEnabled {
		t.Fatal("RATE_LIMIT_ENABLED=true did not enable rate limiting")
	}
	if cfg.RateLimitConfig.RPS != 2.5 || cfg.RateLimitConfig.Burst != 7 {
		t.Fatalf("rate limit env not applied: %+v", cfg.RateLimitConfig)
	}

	cfg, err = LoadConfig(Flags{Addr: "127.0.0.1:1234", LogLevel: "warn"})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:1234" || cfg.LogLevel != "warn" || !cfg.RateLimitEnabled {
		t.Fatalf("flags did not override env: %+v", cfg)
	}
}

func TestLoadConfig_SeedFile(t *testing.T) {
	t.Setenv("NOTES_SEED", "")
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("notes: []\n"), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	t.Setenv("NOTES_SEED_FILE", path)

	cfg, err := LoadConfig(Flags{})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SeedFile != path {
		t.Fatalf("SeedFile = %q, want %q", cfg.SeedFile, path)
	}

	if _, err := LoadConfig(Flags{SeedFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatal("expected error for missing seed file")
	}
	// A missing file is irrelevant when seeding is off.
	if _, err := LoadConfig(Flags{SeedFile: "missing.yaml", NoSeed: true}); err != nil {
		t.Fatalf("seed file should be ignored with --no-seed: %v", err)
	}
}

// Rate limiting stays off unless the flag or env var asks for it.
func TestLoadConfig_RateLimitOptIn(t *testing.T) {
	for _, key := range []string{"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP_INTERVAL"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadConfig(Flags{})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RateLimitEnabled {
		t.Fatal("rate limiting must be off by default")
	}

	cfg, err = LoadConfig(Flags{RateLimit: true})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.RateLimitEnabled || cfg.RateLimitConfig != ratelimit.DefaultConfig {
		t.Fatalf("--ratelimit did not enable defaults: %+v", cfg)
	}

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	cfg, err = LoadConfig(Flags{RateLimit: true})
	if err != nil || !cfg.RateLimitEnabled {
		t.Fatalf("--ratelimit should win over RATE_LIMIT_ENABLED=false: %+v, %v", cfg, err)
	}
}

func TestLoadConfig_InvalidLogLevelFails(t *testing.T) {
	t.Setenv("LOG_LEVEL", "shouty")
	if _, err := LoadConfig(Flags{}); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f, err := ParseFlags(fs, []string{"--addr", ":7000", "--no-seed", "--ratelimit", "--log-level", "debug", "--seed-file", "seed.yaml"})
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if f != (Flags{Addr: ":7000", LogLevel: "debug", SeedFile: "seed.yaml", NoSeed: true, RateLimit: true}) {
		t.Fatalf("unexpected flags: %+v", f)
	}

	bad := flag.NewFlagSet("test", flag.ContinueOnError)
	bad.SetOutput(io.Discard)
	if _, err := ParseFlags(bad, []string{"--bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestHelperParsers_DefaultOnBadInput(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "not-an-int")
	t.Setenv("CFG_TEST_FLOAT", "not-a-float")
	t.Setenv("CFG_TEST_DUR", "not-a-duration")
	t.Setenv("CFG_TEST_BOOL", "maybe")
	if got := parseIntOrDefault("CFG_TEST_INT", 7); got != 7 {
		t.Fatalf("parseIntOrDefault fallback mismatch: got=%d want=7", got)
	}
	if got := parseFloat64OrDefault("CFG_TEST_FLOAT", 3.5); got != 3.5 {
		t.Fatalf("parseFloat64OrDefault fallback mismatch: got=%v want=3.5", got)
	}
	if got := parseDurationOrDefault("CFG_TEST_DUR", 2*time.Minute); got != 2*time.Minute {
		t.Fatalf("parseDurationOrDefault fallback mismatch: got=%v want=%v", got, 2*time.Minute)
	}
	if got := parseBoolOrDefault("CFG_TEST_BOOL", true); !got {
		t.Fatal("parseBoolOrDefault fallback mismatch")
	}
}

func TestGetEnvOrDefault_TrimsWhitespace(t *testing.T) {
	key := "CFG_TEST_STR_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	t.Setenv(key, "   value   ")
	if got := getEnvOrDefault(key, "fallback"); got != "value" {
		t.Fatalf("getEnvOrDefault trim mismatch: got=%q want=%q", got, "value")
	}
}
