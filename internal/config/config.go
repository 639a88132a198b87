// Package config loads the portal's runtime configuration.
//
// SOURCES, IN ORDER OF PRECEDENCE:
//  1. Real environment variables
//  2. A .env file in the working directory (optional, never overrides 1)
//  3. The defaults below
//
// Load validates everything up front so that main can fail fast with one
// readable message instead of a half-started server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// csrfKeyLength is the key size gorilla/csrf expects.
const csrfKeyLength = 32

// Config holds all configuration for the portal.
type Config struct {
	Host       string // interface to listen on; loopback unless set
	Port       int
	APIBaseURL string
	APITimeout time.Duration

	SessionBackend string
	DBPath         string
	RedisAddr      string
	RedisPrefix    string

	CSRFKey            []byte
	CSRFKeyGenerated   bool // no CSRF_KEY was set; forms break across restarts
	CSRFTrustedOrigins []string
	CSRFSecure         bool

	RefreshSchedule string // cron spec; empty disables background refresh
	LogLevel        slog.Level
}

// Load reads the .env files (default ".env") and the environment.
// Missing .env files are fine.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("reading %s: %w", f, err)
		}
	}

	cfg := Config{
		Host:            getEnv("HOST", "127.0.0.1"),
		APIBaseURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("SSC_API_BASE_URL")), "/"),
		SessionBackend:  strings.ToLower(getEnv("SESSION_BACKEND", BackendSQLite)),
		DBPath:          getEnv("DB_PATH", "data/portal.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPrefix:     getEnv("REDIS_PREFIX", "ssc-portal:"),
		RefreshSchedule: strings.TrimSpace(os.Getenv("PORTAL_REFRESH_SCHEDULE")),
	}

	var err error
	if cfg.Port, err = intEnv("PORT", 8080); err != nil {
		return Config{}, err
	}
	if cfg.APITimeout, err = durationEnv("API_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CSRFSecure, err = boolEnv("CSRF_SECURE", false); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = levelEnv("LOG_LEVEL", slog.LevelInfo); err != nil {
		return Config{}, err
	}
	if cfg.CSRFKey, cfg.CSRFKeyGenerated, err = csrfKey(os.Getenv("CSRF_KEY")); err != nil {
		return Config{}, err
	}
	cfg.CSRFTrustedOrigins = listEnv("CSRF_TRUSTED_ORIGINS")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) validate() error {
	if c.APIBaseURL == "" {
		return errors.New("SSC_API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SSC_API_BASE_URL: %q is not an http(s) URL", c.APIBaseURL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT: %d is out of range", c.Port)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	switch c.SessionBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND: %q (must be %q or %q)", c.SessionBackend, BackendSQLite, BackendRedis)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, val)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, val)
	}
	return b, nil
}

func levelEnv(key string, fallback slog.Level) (slog.Level, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(val)); err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return level, nil
}

// listEnv splits a comma-separated variable, dropping blanks.
func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// csrfKey accepts 32 raw bytes or 64 hex characters. An empty value yields
// a random key and generated=true.
func csrfKey(val string) (key []byte, generated bool, err error) {
	val = strings.TrimSpace(val)
	switch {
	case val == "":
		key = make([]byte, csrfKeyLength)
		if _, err := rand.Read(key); err != nil {
			return nil, false, fmt.Errorf("generating CSRF key: %w", err)
		}
		return key, true, nil
	case len(val) == csrfKeyLength*2:
		if decoded, err := hex.DecodeString(val); err == nil {
			return decoded, false, nil
		}
	}
	if len(val) != csrfKeyLength {
		return nil, false, fmt.Errorf("CSRF_KEY must be %d bytes or %d hex characters", csrfKeyLength, csrfKeyLength*2)
	}
	return []byte(val), false, nil
}
