package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	Addr     string
	DBDSN    string
	DBSchema string
	LogLevel string

	SessionTTL   time.Duration
	CookieName   string
	cookieSecure *bool

	BootstrapUsername    string
	BootstrapDisplayName string
	BootstrapPassword    string
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

// LoadFromEnv reads configuration through the provided getenv, which
// keeps loading testable without touching the process environment.
func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:        getenv("APP_ENV"),
		Addr:       getenv("APP_ADDR"),
		DBDSN:      getenv("APP_DB_DSN"),
		DBSchema:   strings.TrimSpace(getenv("APP_DB_SCHEMA")),
		LogLevel:   getenv("APP_LOG_LEVEL"),
		CookieName: strings.TrimSpace(getenv("APP_SESSION_COOKIE_NAME")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "cd_session"
	}

	switch cfg.Env {
	case "dev", "test", "prod":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	ttlRaw := getenv("APP_SESSION_TTL_DAYS")
	if ttlRaw == "" {
		cfg.SessionTTL = 30 * 24 * time.Hour
	} else {
		days, err := strconv.Atoi(strings.TrimSpace(ttlRaw))
		if err != nil {
			return Config{}, fmt.Errorf("APP_SESSION_TTL_DAYS: %w", err)
		}
		if days <= 0 {
			return Config{}, errors.New("APP_SESSION_TTL_DAYS: must be > 0")
		}
		cfg.SessionTTL = time.Duration(days) * 24 * time.Hour
	}

	if raw := strings.TrimSpace(getenv("APP_COOKIE_SECURE")); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_COOKIE_SECURE: %w", err)
		}
		cfg.cookieSecure = &secure
	}

	cfg.BootstrapUsername = strings.TrimSpace(strings.ToLower(getenv("APP_BOOTSTRAP_USERNAME")))
	cfg.BootstrapDisplayName = strings.TrimSpace(getenv("APP_BOOTSTRAP_DISPLAY_NAME"))
	cfg.BootstrapPassword = getenv("APP_BOOTSTRAP_PASSWORD")

	if cfg.BootstrapPassword != "" && cfg.BootstrapUsername == "" {
		return Config{}, errors.New("APP_BOOTSTRAP_USERNAME: required when APP_BOOTSTRAP_PASSWORD is set")
	}

	if cfg.IsProd() && cfg.DBDSN == "" {
		return Config{}, errors.New("APP_DB_DSN: required in prod")
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

// CookieSecure defaults to the environment (secure in prod) unless
// APP_COOKIE_SECURE overrides it explicitly.
func (c Config) CookieSecure() bool {
	if c.cookieSecure != nil {
		return *c.cookieSecure
	}
	return c.IsProd()
}
