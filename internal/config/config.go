package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHost               = "0.0.0.0"
	defaultPort               = 2222
	defaultHostKeyPath        = ".data/host_ed25519"
	defaultIdleTimeout        = 10 * time.Minute
	defaultMaxSessions        = 32
	defaultRateLimitPerMinute = 30
	defaultRateLimitBurst     = 10
	defaultPrefsPath          = ".data/prefs.yaml"
	defaultFrameInterval      = time.Second / 60
	defaultLogLevel           = "info"
	maximumConfiguredSessions = 1024
	minimumFrameInterval      = time.Millisecond
)

// Config captures startup settings for both entrypoints.
type Config struct {
	Host               string
	Port               int
	HostKeyPath        string
	IdleTimeout        time.Duration
	MaxSessions        int
	RateLimitPerMinute int
	RateLimitBurst     int

	PrefsPath     string
	FrameInterval time.Duration
	ShowNav       bool
	ShowSurface   bool

	// HTTPAddr enables the snapshot gateway when non-empty.
	HTTPAddr string

	LogLevel string
	LogFile  string
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Host:               defaultHost,
		Port:               defaultPort,
		HostKeyPath:        defaultHostKeyPath,
		IdleTimeout:        defaultIdleTimeout,
		MaxSessions:        defaultMaxSessions,
		RateLimitPerMinute: defaultRateLimitPerMinute,
		RateLimitBurst:     defaultRateLimitBurst,
		PrefsPath:          defaultPrefsPath,
		FrameInterval:      defaultFrameInterval,
		ShowNav:            true,
		ShowSurface:        true,
		LogLevel:           defaultLogLevel,
	}
}

// LoadFromEnv loads runtime configuration from environment variables.
func LoadFromEnv() (Config, error) {
	cfg := Default()
	var err error

	if cfg.Host, err = readRequiredOrDefault("SATURN_SSH_HOST", cfg.Host); err != nil {
		return Config{}, err
	}
	if cfg.Port, err = readInt("SATURN_SSH_PORT", cfg.Port, 1, 65535); err != nil {
		return Config{}, err
	}

	hostKeyPath, err := readRequiredOrDefault("SATURN_SSH_HOST_KEY_PATH", cfg.HostKeyPath)
	if err != nil {
		return Config{}, err
	}
	cfg.HostKeyPath = filepath.Clean(hostKeyPath)
	if cfg.HostKeyPath == "." {
		return Config{}, fmt.Errorf("SATURN_SSH_HOST_KEY_PATH must not resolve to current directory")
	}

	if cfg.IdleTimeout, err = readDuration("SATURN_SSH_IDLE_TIMEOUT", cfg.IdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MaxSessions, err = readInt("SATURN_SSH_MAX_SESSIONS", cfg.MaxSessions, 1, maximumConfiguredSessions); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerMinute, err = readInt("SATURN_SSH_RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute, 1, 10000); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = readInt("SATURN_SSH_RATE_LIMIT_BURST", cfg.RateLimitBurst, 1, 1000); err != nil {
		return Config{}, err
	}

	prefsPath, err := readRequiredOrDefault("SATURN_PREFS_PATH", cfg.PrefsPath)
	if err != nil {
		return Config{}, err
	}
	cfg.PrefsPath = filepath.Clean(prefsPath)

	if cfg.FrameInterval, err = readDuration("SATURN_FRAME_INTERVAL", cfg.FrameInterval); err != nil {
		return Config{}, err
	}
	if cfg.FrameInterval < minimumFrameInterval {
		return Config{}, fmt.Errorf("SATURN_FRAME_INTERVAL must be at least %s", minimumFrameInterval)
	}

	if cfg.ShowNav, err = readBool("SATURN_SHOW_NAV", cfg.ShowNav); err != nil {
		return Config{}, err
	}
	if cfg.ShowSurface, err = readBool("SATURN_SHOW_SURFACE", cfg.ShowSurface); err != nil {
		return Config{}, err
	}

	cfg.HTTPAddr = strings.TrimSpace(os.Getenv("SATURN_HTTP_ADDR"))

	level, err := readRequiredOrDefault("SATURN_LOG_LEVEL", cfg.LogLevel)
	if err != nil {
		return Config{}, err
	}
	switch level = strings.ToLower(level); level {
	case "debug", "info", "warn", "error":
		cfg.LogLevel = level
	default:
		return Config{}, fmt.Errorf("SATURN_LOG_LEVEL must be one of debug, info, warn, error")
	}
	cfg.LogFile = strings.TrimSpace(os.Getenv("SATURN_LOG_FILE"))

	return cfg, nil
}

func readRequiredOrDefault(key, fallback string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}

	return strings.TrimSpace(raw), nil
}

func readInt(key string, fallback, min, max int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}

	return parsed, nil
}

func readDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func readBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}
