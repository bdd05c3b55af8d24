// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"errors"
	"fmt"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

// DefaultSessionSecret is the documented insecure fallback secret. It is only
// accepted outside of production.
const DefaultSessionSecret = "godfactor-secret-key-change-in-production"

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// minSecretLength is the shortest session secret accepted in production.
const minSecretLength = 32

var configFile = altsrc.StringSourcer("config.toml")

var (
	ErrInsecureSecret = errors.New("session secret must be set to a non-default value in production")
	ErrShortSecret    = fmt.Errorf("session secret must be at least %d characters in production", minSecretLength)
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Env      string
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Session  SessionConfig
	Auth     AuthConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Token and cookie max age in seconds
	Secret     string // Server secret the signing keys are derived from
	Encrypt    bool   // Encrypt token contents in addition to signing
	Secure     bool   // HTTPS only cookie
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical
	MinPasswordLength int
	BcryptCost        int
	RateLimit         float64 // signup/login requests per second per IP, 0 disables
	AdminEmail        string
	AdminPassword     string
}

// IsProduction reports whether the production posture applies.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// UsesDefaultSecret reports whether the session secret is empty or the insecure default.
func (c *Config) UsesDefaultSecret() bool {
	return c.Session.Secret == "" || c.Session.Secret == DefaultSessionSecret
}

// Validate checks the configuration. In production the insecure default
// session secret is rejected.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("session max age must be positive, got %d", c.Session.MaxAge)
	}
	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("minimum password length must be positive, got %d", c.Auth.MinPasswordLength)
	}

	if c.IsProduction() {
		if c.UsesDefaultSecret() {
			return ErrInsecureSecret
		}
		if len(c.Session.Secret) < minSecretLength {
			return ErrShortSecret
		}
	}

	return nil
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Env: cmd.String("env"),
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			Secret:     cmd.String("session-secret"),
			Encrypt:    cmd.Bool("session-encrypt"),
			Secure:     cmd.Bool("session-cookie-secure"),
		},
		Auth: AuthConfig{
			MinPasswordLength: int(cmd.Int("min-password-length")),
			BcryptCost:        int(cmd.Int("bcrypt-cost")),
			RateLimit:         cmd.Float("auth-rate-limit"),
			AdminEmail:        cmd.String("admin-email"),
			AdminPassword:     cmd.String("admin-password"),
		},
	}

	// Secure cookies are mandatory in production
	if cfg.IsProduction() {
		cfg.Session.Secure = true
	}

	return cfg
}

// source builds the env var + TOML value chain used by every flag.
func source(envKey, tomlKey string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(envKey), toml.TOML(tomlKey, configFile))
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "env",
			Value:   EnvDevelopment,
			Usage:   "Environment (development, production)",
			Sources: source("APP_ENV", "env"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: source("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   3000,
			Usage:   "Port to listen on",
			Sources: source("PORT", "server.port"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: source("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: source("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: source("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/godfactor.db",
			Usage:   "Database DSN",
			Sources: source("DATABASE_DSN", "database.dsn"),
		},
		// Session flags
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "session_token",
			Usage:   "Session cookie name",
			Sources: source("SESSION_COOKIE_NAME", "session.cookie_name"),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   2592000, // 30 days in seconds
			Usage:   "Session token and cookie max age in seconds",
			Sources: source("SESSION_MAX_AGE", "session.max_age"),
		},
		&cli.StringFlag{
			Name:    "session-secret",
			Value:   DefaultSessionSecret,
			Usage:   "Secret the session signing keys are derived from (the default is rejected in production)",
			Sources: source("SESSION_SECRET", "session.secret"),
		},
		&cli.BoolFlag{
			Name:    "session-encrypt",
			Usage:   "Encrypt session token contents",
			Sources: source("SESSION_ENCRYPT", "session.encrypt"),
		},
		&cli.BoolFlag{
			Name:    "session-cookie-secure",
			Usage:   "HTTPS only session cookie (always on in production)",
			Sources: source("SESSION_COOKIE_SECURE", "session.cookie_secure"),
		},
		// Auth flags
		&cli.IntFlag{
			Name:    "min-password-length",
			Value:   6,
			Usage:   "Minimum password length",
			Sources: source("MIN_PASSWORD_LENGTH", "auth.min_password_length"),
		},
		&cli.IntFlag{
			Name:    "bcrypt-cost",
			Value:   10,
			Usage:   "bcrypt cost factor for password hashes",
			Sources: source("BCRYPT_COST", "auth.bcrypt_cost"),
		},
		&cli.FloatFlag{
			Name:    "auth-rate-limit",
			Value:   1,
			Usage:   "Signup/login requests per second per client IP (0 disables)",
			Sources: source("AUTH_RATE_LIMIT", "auth.rate_limit"),
		},
		&cli.StringFlag{
			Name:    "admin-email",
			Value:   "admin@godfactor.app",
			Usage:   "Email of the bootstrap admin account",
			Sources: source("ADMIN_EMAIL", "auth.admin_email"),
		},
		&cli.StringFlag{
			Name:    "admin-password",
			Usage:   "Password of the bootstrap admin account (no admin is created when empty)",
			Sources: source("ADMIN_PASSWORD", "auth.admin_password"),
		},
	}
}
