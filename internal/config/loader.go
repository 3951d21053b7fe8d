package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "idgate.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "IDGATE_PORT")
	setString(&cfg.Server.BaseURL, "IDGATE_BASE_URL")
	setString(&cfg.Server.CORSOrigin, "IDGATE_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "IDGATE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "IDGATE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "IDGATE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "IDGATE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "IDGATE_PG_HEALTH_CHECK")
	setString(&cfg.Auth.SessionSecret, "IDGATE_SESSION_SECRET")
	setDuration(&cfg.Auth.SessionExpiry, "IDGATE_SESSION_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "IDGATE_BCRYPT_COST")
	setInt(&cfg.Auth.LockoutThreshold, "IDGATE_LOCKOUT_THRESHOLD")
	setDuration(&cfg.Auth.LockoutDuration, "IDGATE_LOCKOUT_DURATION")
	setString(&cfg.Auth.BootstrapEmail, "IDGATE_BOOTSTRAP_EMAIL")
	setString(&cfg.Auth.BootstrapPass, "IDGATE_BOOTSTRAP_PASS")
	setString(&cfg.Issuer.SigningKey, "IDGATE_ISSUER_SIGNING_KEY")
	setDuration(&cfg.Issuer.AccessTokenTTL, "IDGATE_ACCESS_TOKEN_TTL")
	setDuration(&cfg.Issuer.IDTokenTTL, "IDGATE_ID_TOKEN_TTL")
	setDuration(&cfg.Issuer.CodeTTL, "IDGATE_CODE_TTL")
	setString(&cfg.SMTP.Host, "IDGATE_SMTP_HOST")
	setInt(&cfg.SMTP.Port, "IDGATE_SMTP_PORT")
	setString(&cfg.SMTP.User, "IDGATE_SMTP_USER")
	setString(&cfg.SMTP.Pass, "IDGATE_SMTP_PASS")
	setString(&cfg.SMTP.From, "IDGATE_SMTP_FROM")
	setDuration(&cfg.SMTP.Timeout, "IDGATE_SMTP_TIMEOUT")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "IDGATE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "IDGATE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "IDGATE_LOG_ASYNC")
	setFloat64(&cfg.Rate.RequestsPerSecond, "IDGATE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "IDGATE_RATE_BURST")
	setString(&cfg.Tracing.Endpoint, "IDGATE_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Auth.SessionSecret == "" {
		return errors.New("auth.session_secret is required")
	}
	if cfg.Issuer.SigningKey == "" {
		return errors.New("issuer.signing_key is required")
	}
	if cfg.Auth.LockoutThreshold < 1 {
		return errors.New("auth.lockout_threshold must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
