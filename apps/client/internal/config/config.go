package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"holdem-sync/apps/client/internal/session"
)

const (
	DefaultPort            = "9001"
	DefaultHost            = "localhost"
	DefaultReconnectBase   = 1 * time.Second
	DefaultReconnectMax    = 10 * time.Second
	DefaultPendingTimeout  = 15 * time.Second
	DefaultNotificationTTL = 3200 * time.Millisecond
	DefaultRevealDelay     = 5 * time.Second
)

// Config is everything the client reads from its environment.
type Config struct {
	URL             string
	ReconnectBase   time.Duration
	ReconnectMax    time.Duration
	PendingTimeout  time.Duration
	NotificationTTL time.Duration
	RevealDelay     time.Duration
	Session         session.Options
	TapePath        string
	LogLevel        zapcore.Level
}

// LoadDotEnv merges the given .env files into the process environment
// without overriding variables that are already set. Missing files are fine.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv builds a Config from the process environment. Malformed values
// are reported rather than silently replaced.
func FromEnv() (Config, error) {
	cfg := Config{
		URL:      ResolveEndpoint(os.Getenv("HOLDEM_WS_URL"), os.Getenv("HOLDEM_HOST"), envBool("HOLDEM_SECURE")),
		TapePath: strings.TrimSpace(os.Getenv("HOLDEM_TAPE_PATH")),
		Session: session.Options{
			Mode:      os.Getenv("SESSION_MODE"),
			LocalPath: strings.TrimSpace(os.Getenv("SESSION_LOCAL_DATABASE_PATH")),
			DSN:       sessionDSNFromEnv(),
			Key:       strings.TrimSpace(os.Getenv("SESSION_KEY")),
		},
	}

	var errs []error
	// Timers marked optional accept a negative value, which switches them off.
	durations := []struct {
		key      string
		dst      *time.Duration
		def      time.Duration
		optional bool
	}{
		{"HOLDEM_RECONNECT_BASE", &cfg.ReconnectBase, DefaultReconnectBase, false},
		{"HOLDEM_RECONNECT_MAX", &cfg.ReconnectMax, DefaultReconnectMax, false},
		{"HOLDEM_PENDING_TIMEOUT", &cfg.PendingTimeout, DefaultPendingTimeout, true},
		{"HOLDEM_NOTIFICATION_TTL", &cfg.NotificationTTL, DefaultNotificationTTL, true},
		{"HOLDEM_REVEAL_DELAY", &cfg.RevealDelay, DefaultRevealDelay, true},
	}
	for _, d := range durations {
		v, err := envDuration(d.key, d.def, d.optional)
		if err != nil {
			errs = append(errs, err)
		}
		*d.dst = v
	}
	if cfg.ReconnectMax < cfg.ReconnectBase {
		errs = append(errs, fmt.Errorf("HOLDEM_RECONNECT_MAX (%s) below HOLDEM_RECONNECT_BASE (%s)", cfg.ReconnectMax, cfg.ReconnectBase))
	}

	level, err := envLevel("LOG_LEVEL", zapcore.InfoLevel)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.LogLevel = level

	return cfg, errors.Join(errs...)
}

// ResolveEndpoint picks the socket URL: an explicit URL wins, then the
// page-style host on the default port, then localhost.
func ResolveEndpoint(explicit, host string, secure bool) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	host = strings.TrimSpace(host)
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	if host == "" {
		return "ws://" + net.JoinHostPort(DefaultHost, DefaultPort)
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return scheme + "://" + net.JoinHostPort(host, DefaultPort)
}

func sessionDSNFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("SESSION_DATABASE_DSN")); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func envDuration(key string, def time.Duration, optional bool) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil || d == 0:
	case d > 0:
		return d, nil
	case optional:
		return -1, nil
	}
	if optional {
		return def, fmt.Errorf("invalid %s %q: want a positive duration, or a negative one to disable", key, raw)
	}
	return def, fmt.Errorf("invalid %s %q: want a positive duration", key, raw)
}

func envLevel(key string, def zapcore.Level) (zapcore.Level, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return level, nil
}
